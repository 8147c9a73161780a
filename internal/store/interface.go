package store

import (
	"context"
	"time"

	"codeberg.org/mutker/hwscore/internal/profile"
	"codeberg.org/mutker/hwscore/internal/scoring"
)

// Repository persists named reference profiles and score history
type Repository interface {
	SaveReference(ctx context.Context, name string, p profile.Profile) error
	LoadReference(ctx context.Context, name string) (profile.Profile, error)
	DeleteReference(ctx context.Context, name string) error
	RecordScore(ctx context.Context, snapshot *ScoreSnapshot) error
	RecentScores(ctx context.Context, limit int) ([]ScoreSnapshot, error)
	Close() error
}

// History records score reports over time
type History interface {
	Record(ctx context.Context, snapshot *ScoreSnapshot) error
	Close() error
}

// ScoreSnapshot is one scoring run as stored
type ScoreSnapshot struct {
	RecordedAt time.Time
	Reference  string
	Report     scoring.Report
}
