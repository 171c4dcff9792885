package models

type Category string

const (
	CategoryCode          Category = "code"
	CategoryData          Category = "data"
	CategoryAudio         Category = "audio"
	CategoryVideo         Category = "video"
	CategoryImage         Category = "image"
	CategoryDocumentation Category = "documentation"
	CategoryArchive       Category = "archive"
	CategoryOther         Category = "other"
)

var Categories = []Category{
	CategoryCode,
	CategoryData,
	CategoryAudio,
	CategoryVideo,
	CategoryImage,
	CategoryDocumentation,
	CategoryArchive,
	CategoryOther,
}

func (c Category) Valid() bool {
	for _, known := range Categories {
		if c == known {
			return true
		}
	}
	return false
}

func (c Category) IsMedia() bool {
	return c == CategoryAudio || c == CategoryVideo || c == CategoryImage
}

// Sampled reports whether files of this category get an inline text sample.
func (c Category) Sampled() bool {
	return c == CategoryCode || c == CategoryData || c == CategoryDocumentation
}

type WorkspaceEntry struct {
	Path          string   `json:"path"`
	Size          int64    `json:"size"`
	Extension     string   `json:"extension"`
	Type          Category `json:"type"`
	FormattedSize string   `json:"formatted_size"`
	Content       *string  `json:"-"`
}

type ProjectStructure struct {
	Files          []WorkspaceEntry  `json:"files"`
	Directories    []string          `json:"directories"`
	TotalFiles     int               `json:"total_files"`
	TotalSize      int64             `json:"total_size"`
	FileTypes      map[string]int    `json:"file_types"`
	FileCategories map[Category]int  `json:"file_categories"`
	Content        map[string]string `json:"content"`
	LargeFiles     []WorkspaceEntry  `json:"large_files"`
	BinaryFiles    []WorkspaceEntry  `json:"binary_files"`
	CodeFiles      []WorkspaceEntry  `json:"code_files"`
	MediaFiles     []WorkspaceEntry  `json:"media_files"`
}

func NewProjectStructure() *ProjectStructure {
	return &ProjectStructure{
		Files:          []WorkspaceEntry{},
		Directories:    []string{},
		FileTypes:      map[string]int{},
		FileCategories: map[Category]int{},
		Content:        map[string]string{},
		LargeFiles:     []WorkspaceEntry{},
		BinaryFiles:    []WorkspaceEntry{},
		CodeFiles:      []WorkspaceEntry{},
		MediaFiles:     []WorkspaceEntry{},
	}
}
