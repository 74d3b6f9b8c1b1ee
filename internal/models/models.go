package models

import "time"

type Persona struct {
	ID          string    `json:"buyer_persona_id"`
	DisplayName string    `json:"buyer_persona_name"`
	Priority    int       `json:"priority"`
	IsCatchAll  bool      `json:"is_catch_all"`
	UpdatedAt   time.Time `json:"updated_at"`
}

type Keyword struct {
	ID        string    `json:"id"`
	Text      string    `json:"keyword"`
	PersonaID string    `json:"buyer_persona_id"`
	CreatedAt time.Time `json:"created_at"`
}

type Contact struct {
	ID            string    `json:"id"`
	FullName      string    `json:"full_name"`
	Email         string    `json:"email"`
	JobTitle      string    `json:"job_title"`
	PersonaID     *string   `json:"buyer_persona_id"`
	PersonaLocked bool      `json:"persona_locked"`
	UpdatedAt     time.Time `json:"updated_at"`
}

type KeywordMatch struct {
	Keyword   string `json:"keyword"`
	PersonaID string `json:"buyer_persona_id"`
	Priority  int    `json:"priority"`
}

type Diagnosis struct {
	Input            string         `json:"input"`
	NormalizedInput  string         `json:"normalized_input"`
	Matches          []KeywordMatch `json:"matches"`
	WinningPersonaID string         `json:"winning_persona_id"`
	IsDefault        bool           `json:"is_default"`
}

const (
	JobStatusPending    = "pending"
	JobStatusProcessing = "processing"
	JobStatusCompleted  = "completed"
	JobStatusFailed     = "failed"
	JobStatusCancelled  = "cancelled"
)

const (
	JobTypeAll          = "all"
	JobTypeUnclassified = "unclassified"
	JobTypeCatchAll     = "catch_all"
)

type JobProgress struct {
	TotalContacts int `json:"total_contacts"`
	Processed     int `json:"processed"`
	Updated       int `json:"updated"`
	SkippedLocked int `json:"skipped_locked"`
	Failed        int `json:"failed"`
}

type SampleChange struct {
	JobTitle   string `json:"job_title"`
	OldPersona string `json:"old_persona"`
	NewPersona string `json:"new_persona"`
}

type ReclassificationJob struct {
	ID            string         `json:"job_id"`
	JobType       string         `json:"job_type"`
	DryRun        bool           `json:"dry_run"`
	Status        string         `json:"status"`
	Progress      JobProgress    `json:"progress"`
	SampleChanges []SampleChange `json:"sample_changes"`
	Error         string         `json:"error,omitempty"`
	CreatedBy     string         `json:"created_by"`
	CreatedAt     time.Time      `json:"created_at"`
	FinishedAt    *time.Time     `json:"finished_at,omitempty"`
}

// JobTerminal reports whether a job status can no longer change.
func JobTerminal(status string) bool {
	switch status {
	case JobStatusCompleted, JobStatusFailed, JobStatusCancelled:
		return true
	default:
		return false
	}
}
