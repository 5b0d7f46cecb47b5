package models

import (
	"time"

	"github.com/jmoiron/sqlx/types"
)

// RunStatus captures the generation run lifecycle.
type RunStatus string

const (
	RunStatusPending   RunStatus = "PENDING"
	RunStatusRunning   RunStatus = "RUNNING"
	RunStatusCompleted RunStatus = "COMPLETED"
	RunStatusFailed    RunStatus = "FAILED"
)

// GenerationRun records one timetable generation pass with its input and result.
type GenerationRun struct {
	ID           string             `db:"id" json:"id"`
	Status       RunStatus          `db:"status" json:"status"`
	Seed         int64              `db:"seed" json:"seed"`
	Fingerprint  string             `db:"fingerprint" json:"fingerprint"`
	Input        types.JSONText     `db:"input" json:"-"`
	Result       types.NullJSONText `db:"result" json:"-"`
	WarningCount int                `db:"warning_count" json:"warning_count"`
	SessionCount int                `db:"session_count" json:"session_count"`
	Error        *string            `db:"error" json:"error,omitempty"`
	CreatedAt    time.Time          `db:"created_at" json:"created_at"`
	StartedAt    *time.Time         `db:"started_at" json:"started_at,omitempty"`
	FinishedAt   *time.Time         `db:"finished_at" json:"finished_at,omitempty"`
}

// RunFilter pages through generation runs, newest first.
type RunFilter struct {
	Status   RunStatus
	Page     int
	PageSize int
}

// SystemMetrics is a lightweight snapshot of the process counters.
type SystemMetrics struct {
	CacheHitRatio            float64   `json:"cache_hit_ratio"`
	CacheHits                uint64    `json:"cache_hits"`
	CacheMisses              uint64    `json:"cache_misses"`
	RequestsTotal            uint64    `json:"requests_total"`
	AverageRequestDurationMs float64   `json:"average_request_duration_ms"`
	GenerationsTotal         uint64    `json:"generations_total"`
	AverageGenerationMs      float64   `json:"average_generation_ms"`
	QueueDepth               int64     `json:"queue_depth"`
	Goroutines               int       `json:"goroutines"`
	GeneratedAt              time.Time `json:"generated_at"`
}
