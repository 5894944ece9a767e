package services

import (
	"context"
	"database/sql"
	"math"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"github.com/facepay/backend/internal/audit"
	"github.com/facepay/backend/internal/models"
)

// Rejection reason codes recorded in auth_logs. A NULL reason means the
// attempt was accepted. The candidate column distinguishes "no face stored"
// (NULL) from "face stored but not close enough".
const (
	rejectReasonThreshold  = "threshold_not_met"
	rejectReasonNoTemplate = "no_template"
)

// FaceService is the biometric match engine: it stores one embedding
// template per user and decides verification attempts by cosine similarity
// against a configurable acceptance threshold.
type FaceService struct {
	db        *sql.DB
	audit     *audit.Logger
	threshold float64
}

func NewFaceService(db *sql.DB, auditLogger *audit.Logger, threshold float64) *FaceService {
	return &FaceService{
		db:        db,
		audit:     auditLogger,
		threshold: threshold,
	}
}

// Threshold returns the configured acceptance threshold.
func (s *FaceService) Threshold() float64 {
	return s.threshold
}

// VerifyResult is a decision, not an error: "no template stored" and
// "below threshold" are outcomes the caller branches on.
type VerifyResult struct {
	Matched bool    `json:"match"`
	UserID  string  `json:"userId,omitempty"`
	Score   float64 `json:"score"`
}

// AttemptSource carries request metadata into the auth log.
type AttemptSource struct {
	IP        string
	UserAgent string
}

// Enroll atomically replaces any existing template for the user. At most
// one template per user exists at any time, so a stale embedding can never
// match after re-enrollment.
func (s *FaceService) Enroll(ctx context.Context, userID string, embedding []float64, quality *float64) (string, error) {
	if len(embedding) != models.EmbeddingDim {
		return "", ErrInvalidEmbedding
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return "", err
	}
	defer tx.Rollback()

	var exists int
	err = tx.QueryRowContext(ctx, `SELECT 1 FROM users WHERE id = $1`, userID).Scan(&exists)
	if err == sql.ErrNoRows {
		return "", ErrUserNotFound
	}
	if err != nil {
		return "", err
	}

	if _, err = tx.ExecContext(ctx,
		`DELETE FROM face_templates WHERE user_id = $1`, userID); err != nil {
		return "", err
	}

	templateID := uuid.NewString()
	_, err = tx.ExecContext(ctx, `
		INSERT INTO face_templates (id, user_id, embedding, quality_score)
		VALUES ($1, $2, $3, $4)`,
		templateID, userID, pq.Array(embedding), quality)
	if err != nil {
		return "", err
	}

	if err := tx.Commit(); err != nil {
		return "", err
	}

	s.audit.LogEnrollment(userID, templateID)
	return templateID, nil
}

// Verify matches a probe embedding against every stored template and
// records the attempt. Templates are scanned in row-id order with a
// strictly-greater comparison, so an exact similarity tie deterministically
// keeps the earlier row.
func (s *FaceService) Verify(ctx context.Context, embedding []float64, src AttemptSource) (*VerifyResult, error) {
	if len(embedding) != models.EmbeddingDim {
		return nil, ErrInvalidEmbedding
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT user_id, embedding FROM face_templates ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var (
		bestUser  string
		bestScore float64
		found     bool
	)
	for rows.Next() {
		var userID string
		var stored pq.Float64Array
		if err := rows.Scan(&userID, &stored); err != nil {
			return nil, err
		}

		score := cosineSimilarity(embedding, stored)
		if !found || score > bestScore {
			bestUser = userID
			bestScore = score
			found = true
		}
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	result := &VerifyResult{Score: 0}
	var candidate *string
	var reason *string

	if found {
		// The best candidate is reported even on rejection so callers can
		// tell "no face stored" apart from "stored but not close enough".
		result.Score = bestScore
		result.Matched = bestScore >= s.threshold
		result.UserID = bestUser
		candidate = &bestUser
		if !result.Matched {
			r := rejectReasonThreshold
			reason = &r
		}
	} else {
		r := rejectReasonNoTemplate
		reason = &r
	}

	if err := s.logAttempt(ctx, candidate, result.Score, result.Matched, reason, src); err != nil {
		return nil, err
	}

	auditReason := ""
	if reason != nil {
		auditReason = *reason
	}
	s.audit.LogVerification(bestUser, result.Score, result.Matched, auditReason)
	return result, nil
}

// logAttempt appends one immutable row to auth_logs. The log is write-only
// from the engine's point of view; only reporting reads it.
func (s *FaceService) logAttempt(ctx context.Context, userID *string, score float64, success bool, reason *string, src AttemptSource) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO auth_logs (user_id, cosine_sim, success, reason, source_ip, user_agent)
		VALUES ($1, $2, $3, $4, $5, $6)`,
		userID, score, success, reason, src.IP, src.UserAgent)
	return err
}

// GetAuthStats aggregates a user's verification attempts.
func (s *FaceService) GetAuthStats(ctx context.Context, userID string) (*models.AuthStats, error) {
	var stats models.AuthStats
	var lastAttempt sql.NullTime
	err := s.db.QueryRowContext(ctx, `
		SELECT COUNT(*),
		       COUNT(*) FILTER (WHERE success),
		       COUNT(*) FILTER (WHERE NOT success),
		       COALESCE(AVG(cosine_sim) FILTER (WHERE success), 0),
		       MAX(created_at)
		FROM auth_logs WHERE user_id = $1`,
		userID).Scan(&stats.TotalAttempts, &stats.SuccessfulLogins,
		&stats.FailedLogins, &stats.AvgSuccessScore, &lastAttempt)
	if err != nil {
		return nil, err
	}
	if lastAttempt.Valid {
		stats.LastAttempt = &lastAttempt.Time
	}
	return &stats, nil
}

// cosineSimilarity returns the dot product of a and b divided by the
// product of their magnitudes. A zero-magnitude vector yields 0.
func cosineSimilarity(a, b []float64) float64 {
	if len(a) != len(b) {
		return 0
	}
	var dot, normA, normB float64
	for i := range a {
		dot += a[i] * b[i]
		normA += a[i] * a[i]
		normB += b[i] * b[i]
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}
