package analyzer_service

import (
	"path/filepath"
	"strings"

	"github.com/sunr3d/project-intake/models"
)

var extensionCategories = map[string]models.Category{}

// Files that are identified by their whole name rather than a suffix.
var nameCategories = map[string]models.Category{
	"dockerfile":     models.CategoryCode,
	"containerfile":  models.CategoryCode,
	"makefile":       models.CategoryCode,
	"gnumakefile":    models.CategoryCode,
	"jenkinsfile":    models.CategoryCode,
	"vagrantfile":    models.CategoryCode,
	"gemfile":        models.CategoryCode,
	"rakefile":       models.CategoryCode,
	"procfile":       models.CategoryCode,
	"cmakelists.txt": models.CategoryCode,
	".gitignore":     models.CategoryData,
	".dockerignore":  models.CategoryData,
	".editorconfig":  models.CategoryData,
	".env":           models.CategoryData,
	"license":        models.CategoryDocumentation,
	"licence":        models.CategoryDocumentation,
	"readme":         models.CategoryDocumentation,
	"changelog":      models.CategoryDocumentation,
	"authors":        models.CategoryDocumentation,
	"contributing":   models.CategoryDocumentation,
	"copying":        models.CategoryDocumentation,
	"notice":         models.CategoryDocumentation,
}

func init() {
	groups := map[models.Category][]string{
		models.CategoryCode: {
			"py", "js", "ts", "jsx", "tsx", "html", "css", "scss", "sass", "less",
			"java", "cpp", "c", "h", "hpp", "cs", "php", "rb", "go", "rs", "swift",
			"kt", "scala", "clj", "hs", "ml", "fs", "vb", "pas", "pl", "r", "lua",
			"sh", "bash", "zsh", "fish", "ps1", "bat", "cmd",
			"dockerfile", "makefile", "cmake", "gradle", "mk",
		},
		models.CategoryData: {
			"json", "xml", "yaml", "yml", "toml", "ini", "cfg", "conf",
			"csv", "tsv", "sql", "db", "sqlite", "sqlite3",
		},
		models.CategoryAudio:         {"wav", "mp3", "m4a", "flac", "ogg", "aac"},
		models.CategoryVideo:         {"mp4", "mov", "avi", "mkv", "webm", "flv"},
		models.CategoryImage:         {"jpg", "jpeg", "png", "gif", "bmp", "tiff", "webp", "svg"},
		models.CategoryDocumentation: {"md", "rst", "txt", "rtf", "tex", "adoc", "org"},
		models.CategoryArchive:       {"zip", "tar", "gz", "tgz", "bz2", "tbz2", "xz", "txz", "7z", "rar"},
	}
	for category, exts := range groups {
		for _, ext := range exts {
			extensionCategories[ext] = category
		}
	}
}

// extensionOf mirrors the usual "suffix" notion: dot files such as
// ".gitignore" and names ending in a dot have no extension.
func extensionOf(name string) string {
	base := filepath.Base(name)
	i := strings.LastIndexByte(base, '.')
	if i <= 0 || i == len(base)-1 {
		return ""
	}
	return strings.ToLower(base[i:])
}

type classifier struct {
	byExt  map[string]models.Category
	byName map[string]models.Category
}

// newClassifier layers overrides ("ext" or full lowercase file name -> category)
// over the built-in tables.
func newClassifier(overrides map[string]string) *classifier {
	c := &classifier{
		byExt:  make(map[string]models.Category, len(extensionCategories)+len(overrides)),
		byName: make(map[string]models.Category, len(nameCategories)),
	}
	for ext, category := range extensionCategories {
		c.byExt[ext] = category
	}
	for name, category := range nameCategories {
		c.byName[name] = category
	}
	for key, value := range overrides {
		category := models.Category(strings.ToLower(strings.TrimSpace(value)))
		if !category.Valid() {
			continue
		}
		key = strings.ToLower(strings.TrimSpace(key))
		c.byExt[strings.TrimPrefix(key, ".")] = category
		c.byName[key] = category
	}
	return c
}

// classify always returns exactly one category; unknown files are "other".
func (c *classifier) classify(name string) models.Category {
	base := strings.ToLower(filepath.Base(name))
	if category, ok := c.byName[base]; ok {
		return category
	}
	if ext := extensionOf(base); ext != "" {
		if category, ok := c.byExt[ext[1:]]; ok {
			return category
		}
	}
	if strings.HasPrefix(base, "dockerfile.") {
		return models.CategoryCode
	}
	return models.CategoryOther
}
