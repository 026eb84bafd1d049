package model

import "strings"

type SyncRequest struct {
	Username string `json:"username" binding:"required"`
}

// Normalize trims the username and strips a leading @ or profile url prefix
func (r SyncRequest) Normalize() string {
	username := strings.TrimSpace(r.Username)
	username = strings.TrimPrefix(username, "https://github.com/")
	username = strings.TrimPrefix(username, "@")
	return strings.Trim(username, "/")
}

type UpdateProficiencyRequest struct {
	Tier           *string `json:"tier"`
	LearningStatus *string `json:"learningStatus"`
	Notes          *string `json:"notes"`
}

type BatchMode string

const (
	BatchFull        BatchMode = "full"
	BatchIncremental BatchMode = "incremental"
)
