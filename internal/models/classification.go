package models

import (
	"time"

	"github.com/kylenessen/monarch-phenology-go/internal/platform/database"
)

// ClassificationStatus is the state of one classification attempt-lineage.
type ClassificationStatus string

const (
	ClassificationPending          ClassificationStatus = "pending"
	ClassificationSucceeded        ClassificationStatus = "succeeded"
	ClassificationFailed           ClassificationStatus = "failed"
	ClassificationPermanentFailed  ClassificationStatus = "permanent_failed"
)

// Classification is one attempt-lineage for the tuple
// (photo_id, provider, model, prompt_version).
type Classification struct {
	ID             int64                    `db:"id" json:"id"`
	PhotoID        int64                    `db:"photo_id" json:"photo_id"`
	Provider       string                   `db:"provider" json:"provider"`
	Model          string                   `db:"model" json:"model"`
	PromptVersion  string                   `db:"prompt_version" json:"prompt_version"`
	PromptHash     string                   `db:"prompt_hash" json:"prompt_hash"`
	Status         ClassificationStatus     `db:"status" json:"status"`
	ImageURL       string                   `db:"image_url" json:"image_url"`
	Notes          string                   `db:"notes" json:"notes"`
	NotesTruncated bool                     `db:"notes_truncated" json:"notes_truncated"`
	AttemptCount   int                      `db:"attempt_count" json:"attempt_count"`
	RetryAfter     *time.Time               `db:"retry_after" json:"retry_after,omitempty"`
	Output         *database.JSONB[any]     `db:"output" json:"output,omitempty"`
	RawResponse    *database.JSONB[any]     `db:"raw_response" json:"raw_response,omitempty"`
	LastError      *string                  `db:"last_error" json:"last_error,omitempty"`
	CreatedAt      time.Time                `db:"created_at" json:"created_at"`
	UpdatedAt      time.Time                `db:"updated_at" json:"updated_at"`
	LastAttemptAt  *time.Time               `db:"last_attempt_at" json:"last_attempt_at,omitempty"`
}

func (Classification) TableName() string {
	return "classifications"
}
