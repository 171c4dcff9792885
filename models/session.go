package models

import "time"

type UploadedFile struct {
	Filename      string   `json:"filename"`
	OriginalName  string   `json:"original_name"`
	Size          int64    `json:"size"`
	FormattedSize string   `json:"formatted_size"`
	Type          Category `json:"type"`
}

type Session struct {
	ID             string            `json:"id"`
	WorkspacePath  string            `json:"workspace_path"`
	StagingPath    string            `json:"-"`
	CreatedAt      time.Time         `json:"created_at"`
	LastActivity   time.Time         `json:"last_activity"`
	Busy           bool              `json:"busy"`
	Structure      *ProjectStructure `json:"project_structure,omitempty"`
	UploadedFiles  []UploadedFile    `json:"uploaded_files"`
	ExtractedFiles []string          `json:"extracted_files"`
	Warnings       []string          `json:"warnings,omitempty"`
}
