package models

type FileContent struct {
	Path          string   `json:"file_path"`
	Content       string   `json:"content"`
	Size          int64    `json:"size"`
	FormattedSize string   `json:"formatted_size"`
	Type          Category `json:"type"`
}
