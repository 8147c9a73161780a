package main

import (
	"context"
	"io"
	"time"

	"codeberg.org/mutker/hwscore/internal/config"
	"codeberg.org/mutker/hwscore/internal/errors"
	"codeberg.org/mutker/hwscore/internal/exporter"
	"codeberg.org/mutker/hwscore/internal/logger"
	"codeberg.org/mutker/hwscore/internal/probe"
	"codeberg.org/mutker/hwscore/internal/profile"
	"codeberg.org/mutker/hwscore/internal/scoring"
	"codeberg.org/mutker/hwscore/internal/store"
)

// app owns the engine and its collaborators for one process
type app struct {
	cfg      *config.Config
	engine   *scoring.Engine
	prober   probe.Prober
	repo     store.Repository // nil when the store is disabled
	history  store.History
	exporter *exporter.Exporter // nil unless watch mode serves metrics
	out      io.Writer
	log      logger.Logger
}

func newApp(cfg *config.Config, prober probe.Prober, repo store.Repository, out io.Writer, log logger.Logger) *app {
	engine := scoring.NewEngine(cfg.Weights)
	engine.SetLogger(log.With("scoring"))

	return &app{
		cfg:     cfg,
		engine:  engine,
		prober:  prober,
		repo:    repo,
		history: store.NewHistory(repo, log),
		out:     out,
		log:     log,
	}
}

// resolveReference applies --set-reference / --clear-reference, or loads the
// stored reference falling back to the one authored in config
func (a *app) resolveReference(ctx context.Context) error {
	errFactory := errors.New()
	name := a.cfg.Reference.Name

	switch {
	case a.cfg.SetReference:
		snapshot, _, err := a.prober.Probe(ctx)
		if err != nil {
			return errFactory.Wrap(errors.ErrSetReference, err)
		}
		reference := profile.FromSnapshot(snapshot)
		a.engine.SetReference(reference)

		if a.repo == nil {
			a.log.Warn().Str("reference", name).Msg("Store disabled, reference applies to this run only")
			return nil
		}
		if err := a.repo.SaveReference(ctx, name, reference); err != nil {
			return errFactory.Wrap(errors.ErrSetReference, err)
		}
		a.log.Info().Str("reference", name).Msg("Reference set from this machine")

		return nil

	case a.cfg.ClearReference:
		a.engine.ClearReference()

		if a.repo != nil {
			if err := a.repo.DeleteReference(ctx, name); err != nil {
				return errFactory.Wrap(errors.ErrClearReference, err)
			}
		}
		a.log.Info().Str("reference", name).Msg("Reference cleared")

		return nil
	}

	if a.repo != nil {
		reference, err := a.repo.LoadReference(ctx, name)
		switch {
		case err == nil:
			a.engine.SetReference(reference)
			a.log.Debug().Str("reference", name).Msg("Reference loaded from store")
			return nil
		case !errors.HasCode(err, store.ErrReferenceNotFound):
			return errFactory.Wrap(errors.ErrLoadReference, err)
		}
	}

	if authored := a.cfg.Reference.Profile; authored != nil {
		reference, err := authored.ToProfile()
		if err != nil {
			return errFactory.Wrap(errors.ErrLoadReference, err)
		}
		a.engine.SetReference(reference)
		a.log.Debug().Str("reference", name).Msg("Reference taken from config")

		return nil
	}

	a.log.Warn().Str("reference", name).Msg("No reference profile available, scores compare against a cleared profile")

	return nil
}

// scoreOnce probes the user machine, recomputes and publishes the report
func (a *app) scoreOnce(ctx context.Context) (scoring.Report, error) {
	errFactory := errors.New()

	snapshot, ext, err := a.prober.Probe(ctx)
	if err != nil {
		return scoring.Report{}, errFactory.Wrap(errors.ErrProbeHost, err)
	}

	a.engine.SetUser(profile.FromSnapshot(snapshot))
	report := a.engine.Compute()

	name := a.cfg.Reference.Name
	if err := a.history.Record(ctx, &store.ScoreSnapshot{
		RecordedAt: time.Now().UTC(),
		Reference:  name,
		Report:     report,
	}); err != nil {
		var appErr errors.Error
		if errors.As(err, &appErr) {
			a.log.ErrorWithContext(appErr, "store", "record").Msg("Failed to record score")
		} else {
			a.log.Error().Err(err).Msg("Failed to record score")
		}
	}

	if a.exporter != nil {
		a.exporter.Observe(name, report)
	}

	if err := render(a.out, a.cfg.Format, newDocument(name, report, ext)); err != nil {
		return report, err
	}

	return report, nil
}

// loop re-scores every interval until ctx is done
func (a *app) loop(ctx context.Context) error {
	interval := time.Duration(a.cfg.Interval) * time.Second
	if interval <= 0 {
		return errors.New().WithData(errors.ErrInvalidInterval, a.cfg.Interval)
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			if _, err := a.scoreOnce(ctx); err != nil {
				if ctx.Err() != nil {
					return nil
				}
				return err
			}
		}
	}
}

// printHistory renders the newest limit scores, newest first
func printHistory(ctx context.Context, repo store.Repository, limit int, format config.Format, out io.Writer) error {
	snapshots, err := repo.RecentScores(ctx, limit)
	if err != nil {
		return errors.New().Wrap(errors.ErrLoadHistory, err)
	}

	return renderHistory(out, format, newHistoryEntries(snapshots))
}

func (a *app) close() {
	if err := a.prober.Shutdown(); err != nil {
		a.log.Error().Err(err).Msg("Failed to shut down probe")
	}
	if err := a.history.Close(); err != nil {
		a.log.Error().Err(err).Msg("Failed to close store")
	}
}
