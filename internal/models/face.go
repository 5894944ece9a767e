package models

import "time"

// EmbeddingDim is the required length of face embeddings. The external
// extractor produces 128-dimension vectors; anything else is rejected
// before touching the store.
const EmbeddingDim = 128

type FaceTemplate struct {
	ID           string    `json:"id" db:"id"`
	UserID       string    `json:"user_id" db:"user_id"`
	Embedding    []float64 `json:"-" db:"embedding"`
	QualityScore *float64  `json:"quality_score,omitempty" db:"quality_score"`
	CreatedAt    time.Time `json:"created_at" db:"created_at"`
}

// AuthLog is a write-only audit record of one verification attempt.
type AuthLog struct {
	ID        int64     `json:"id" db:"id"`
	UserID    *string   `json:"user_id,omitempty" db:"user_id"` // best candidate, if any template existed
	CosineSim float64   `json:"cosine_sim" db:"cosine_sim"`
	Success   bool      `json:"success" db:"success"`
	Reason    *string   `json:"reason,omitempty" db:"reason"` // threshold_not_met on rejection
	SourceIP  string    `json:"source_ip" db:"source_ip"`
	UserAgent string    `json:"user_agent" db:"user_agent"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

// AuthStats aggregates a user's verification history for reporting.
type AuthStats struct {
	TotalAttempts    int64      `json:"total_attempts"`
	SuccessfulLogins int64      `json:"successful_logins"`
	FailedLogins     int64      `json:"failed_logins"`
	AvgSuccessScore  float64    `json:"avg_success_score"`
	LastAttempt      *time.Time `json:"last_attempt"`
}
