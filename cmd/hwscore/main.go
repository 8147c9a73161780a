package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"codeberg.org/mutker/hwscore/internal/config"
	"codeberg.org/mutker/hwscore/internal/errors"
	"codeberg.org/mutker/hwscore/internal/exporter"
	"codeberg.org/mutker/hwscore/internal/logger"
	"codeberg.org/mutker/hwscore/internal/pid"
	"codeberg.org/mutker/hwscore/internal/probe"
	"codeberg.org/mutker/hwscore/internal/store"
	"golang.org/x/sync/errgroup"
)

func main() {
	cfg, err := config.Load(os.Args[1:])
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	logger.Init(logger.ParseLevel(cfg.LogLevel.String()), logger.IsService())
	log := logger.Default()
	log.Debug().Msg("Config loaded")

	if cfg.WeightsAdjusted != nil {
		log.Warn().Err(cfg.WeightsAdjusted).Msg("Weights clamped to their allowed range")
	}

	if err := run(cfg, log); err != nil {
		var appErr errors.Error
		if errors.As(err, &appErr) {
			logger.FatalWithCode(appErr).Msg("Exiting")
		}
		logger.Fatal().Err(err).Msg("Exiting")
	}
}

func run(cfg *config.Config, log logger.Logger) error {
	errFactory := errors.New()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go handleSignals(cancel)

	var repo store.Repository
	if cfg.Store.Enabled {
		r, err := store.NewRepository(cfg.Store, log.With("store"))
		if err != nil {
			return errFactory.Wrap(errors.ErrInitApp, err)
		}
		repo = r
	}

	if cfg.History > 0 {
		defer repo.Close()
		return printHistory(ctx, repo, cfg.History, cfg.Format, os.Stdout)
	}

	prober, err := probe.New(cfg.Probe, log.With("probe"))
	if err != nil {
		if repo != nil {
			repo.Close()
		}
		return errFactory.Wrap(errors.ErrInitApp, err)
	}

	a := newApp(cfg, prober, repo, os.Stdout, log)
	defer a.close()

	if err := a.resolveReference(ctx); err != nil {
		return err
	}

	if !cfg.Watch() {
		_, err := a.scoreOnce(ctx)
		return err
	}

	return watch(ctx, a)
}

// watch scores once, then re-scores on every tick while serving metrics
func watch(ctx context.Context, a *app) error {
	errFactory := errors.New()

	if err := pid.Write(); err != nil {
		return err
	}
	defer func() {
		if err := pid.Remove(); err != nil {
			a.log.Error().Err(err).Msg("Failed to remove PID file")
		}
	}()

	g, gctx := errgroup.WithContext(ctx)

	if listen := a.cfg.Metrics.Listen; listen != "" {
		exp, err := exporter.New()
		if err != nil {
			return errFactory.Wrap(errors.ErrInitApp, err)
		}
		a.exporter = exp

		g.Go(func() error {
			return exp.Serve(gctx, listen, a.log.With("exporter"))
		})
	}

	a.log.Info().Int("interval", a.cfg.Interval).Msg("Watch mode started")

	g.Go(func() error {
		if _, err := a.scoreOnce(gctx); err != nil {
			return err
		}
		if err := a.loop(gctx); err != nil {
			return errFactory.Wrap(errors.ErrMainLoop, err)
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		return err
	}

	a.log.Info().Msg("Exiting...")

	return nil
}

func handleSignals(cancel context.CancelFunc) {
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)
	<-sigs
	logger.Info().Msg("Received termination signal.")
	cancel()
}
