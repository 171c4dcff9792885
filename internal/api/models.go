package api

import "github.com/sunr3d/project-intake/models"

// CreateSession
type createSessionResp struct {
	SessionID string `json:"session_id"`
	CreatedAt string `json:"created_at"`
}

// Upload
type uploadResp struct {
	Status           string                `json:"status"`
	SessionID        string                `json:"session_id"`
	UploadedFiles    []models.UploadedFile `json:"uploaded_files"`
	ExtractedFiles   []string              `json:"extracted_files"`
	ProjectStructure structureSummary      `json:"project_structure"`
	Warnings         []string              `json:"warnings,omitempty"`
	ProcessingTime   float64               `json:"processing_time"`
}

type structureSummary struct {
	TotalFiles      int                     `json:"total_files"`
	TotalSize       int64                   `json:"total_size"`
	FormattedSize   string                  `json:"formatted_size"`
	FileCategories  map[models.Category]int `json:"file_categories"`
	FileTypes       map[string]int          `json:"file_types"`
	CodeFilesCount  int                     `json:"code_files_count"`
	MediaFilesCount int                     `json:"media_files_count"`
	LargeFilesCount int                     `json:"large_files_count"`
}

// DeleteSession
type deleteSessionResp struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
}

// Health
type healthResp struct {
	Status   string `json:"status"`
	Sessions int    `json:"sessions"`
}
