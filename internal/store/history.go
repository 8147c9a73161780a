package store

import (
	"context"

	"codeberg.org/mutker/hwscore/internal/errors"
	"codeberg.org/mutker/hwscore/internal/logger"
)

type historyService struct {
	repo Repository
	log  logger.Logger
}

type noopHistory struct{}

// NewHistory returns a History backed by repo, or a no-op when repo is nil
func NewHistory(repo Repository, log logger.Logger) History {
	if repo == nil {
		log.Debug().Msg("Score history disabled, using no-op recorder")
		return &noopHistory{}
	}

	return &historyService{repo: repo, log: log}
}

func (s *historyService) Record(ctx context.Context, snapshot *ScoreSnapshot) error {
	errFactory := errors.New()

	if snapshot == nil {
		return errFactory.New(ErrInvalidSnapshot)
	}

	select {
	case <-ctx.Done():
		return errFactory.Wrap(ErrOperationTimeout, ctx.Err())
	default:
		if err := s.repo.RecordScore(ctx, snapshot); err != nil {
			return errFactory.Wrap(errors.ErrRecordScore, err)
		}
	}

	s.log.Debug().
		Float64("overall_score", snapshot.Report.OverallScore).
		Str("reference", snapshot.Reference).
		Msg("Score recorded")

	return nil
}

func (s *historyService) Close() error {
	return s.repo.Close()
}

func (*noopHistory) Record(_ context.Context, _ *ScoreSnapshot) error {
	return nil
}

func (*noopHistory) Close() error {
	return nil
}
