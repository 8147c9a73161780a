package store

import (
	"context"
	"database/sql"
	"os"
	"path/filepath"
	"testing"
	"time"

	"codeberg.org/mutker/hwscore/internal/errors"
	"codeberg.org/mutker/hwscore/internal/logger"
	"codeberg.org/mutker/hwscore/internal/profile"
	"codeberg.org/mutker/hwscore/internal/scoring"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRepository(t *testing.T) (Repository, Config) {
	t.Helper()

	dir := t.TempDir()
	cfg := Config{
		DBPath:  filepath.Join(dir, "hwscore.db"),
		Enabled: true,
	}

	repo, err := NewRepository(cfg, logger.Nop())
	require.NoError(t, err)
	t.Cleanup(func() { repo.Close() })

	return repo, cfg
}

func sampleReference() profile.Profile {
	return profile.FromSnapshot(profile.Snapshot{
		DeviceClass:            profile.DeviceDesktop,
		GraphicsBackend:        profile.BackendNVIDIA,
		GPUMemoryMB:            profile.Known(4096),
		GPUMultithreaded:       true,
		GPUShaderLevel:         profile.Known(50),
		MaxTextureSize:         profile.Unknown(),
		SystemMemoryMB:         profile.Known(16384),
		ProcessorCount:         profile.Known(8),
		ProcessorFrequencyMHz:  profile.Known(3200),
		SupportsComputeShaders: true,
		SupportsShadows:        true,
		SLIScalar:              1.6,
	})
}

func TestReferenceRoundTrip(t *testing.T) {
	repo, _ := newTestRepository(t)
	ctx := context.Background()

	want := sampleReference()
	require.NoError(t, repo.SaveReference(ctx, "default", want))

	got, err := repo.LoadReference(ctx, " default ")
	require.NoError(t, err)
	assert.Equal(t, want, got)
	assert.False(t, got.MaxTextureSize.IsKnown(), "unknown survives as NULL")
}

func TestSaveReferenceOverwrites(t *testing.T) {
	repo, _ := newTestRepository(t)
	ctx := context.Background()

	require.NoError(t, repo.SaveReference(ctx, "default", sampleReference()))

	updated := sampleReference()
	updated.GPUMemoryMB = profile.Known(8192)
	require.NoError(t, repo.SaveReference(ctx, "default", updated))

	got, err := repo.LoadReference(ctx, "default")
	require.NoError(t, err)
	assert.Equal(t, profile.Known(8192), got.GPUMemoryMB)
}

func TestLoadMissingReference(t *testing.T) {
	repo, _ := newTestRepository(t)

	_, err := repo.LoadReference(context.Background(), "nope")
	require.Error(t, err)
	assert.True(t, errors.HasCode(err, ErrReferenceNotFound))
}

func TestDeleteReference(t *testing.T) {
	repo, _ := newTestRepository(t)
	ctx := context.Background()

	require.NoError(t, repo.SaveReference(ctx, "default", sampleReference()))
	require.NoError(t, repo.DeleteReference(ctx, "default"))
	require.NoError(t, repo.DeleteReference(ctx, "default"), "deleting twice is fine")

	_, err := repo.LoadReference(ctx, "default")
	assert.True(t, errors.HasCode(err, ErrReferenceNotFound))
}

func TestReferenceNameRequired(t *testing.T) {
	repo, _ := newTestRepository(t)

	err := repo.SaveReference(context.Background(), "  ", sampleReference())
	assert.True(t, errors.HasCode(err, ErrInvalidName))
}

func TestScoreHistory(t *testing.T) {
	repo, _ := newTestRepository(t)
	ctx := context.Background()
	history := NewHistory(repo, logger.Nop())

	base := time.Date(2026, 10, 1, 12, 0, 0, 0, time.UTC)
	for i, overall := range []float64{75, 80, 92.5} {
		require.NoError(t, history.Record(ctx, &ScoreSnapshot{
			RecordedAt: base.Add(time.Duration(i) * time.Minute),
			Reference:  "default",
			Report: scoring.Report{
				OverallScore: overall,
				GPUScore:     50,
				CPUScore:     100,
				Warnings:     []string{"reference supports shadows, user does not"},
			},
		}))
	}

	recent, err := repo.RecentScores(ctx, 2)
	require.NoError(t, err)
	require.Len(t, recent, 2)
	assert.InDelta(t, 92.5, recent[0].Report.OverallScore, 1e-9)
	assert.InDelta(t, 80.0, recent[1].Report.OverallScore, 1e-9)
	assert.True(t, recent[0].RecordedAt.Equal(base.Add(2*time.Minute)))
	assert.Equal(t, []string{"reference supports shadows, user does not"}, recent[0].Report.Warnings)
	assert.Equal(t, "default", recent[0].Reference)
}

func TestRecordEmptyWarnings(t *testing.T) {
	repo, _ := newTestRepository(t)
	ctx := context.Background()

	require.NoError(t, repo.RecordScore(ctx, &ScoreSnapshot{RecordedAt: time.Now(), Reference: "default"}))

	recent, err := repo.RecentScores(ctx, 1)
	require.NoError(t, err)
	require.Len(t, recent, 1)
	assert.Empty(t, recent[0].Report.Warnings)
}

func TestHistoryRejectsNil(t *testing.T) {
	repo, _ := newTestRepository(t)

	err := NewHistory(repo, logger.Nop()).Record(context.Background(), nil)
	assert.True(t, errors.HasCode(err, ErrInvalidSnapshot))
}

func TestHistoryCanceledContext(t *testing.T) {
	repo, _ := newTestRepository(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := NewHistory(repo, logger.Nop()).Record(ctx, &ScoreSnapshot{RecordedAt: time.Now()})
	assert.True(t, errors.HasCode(err, ErrOperationTimeout))
}

func TestNoopHistory(t *testing.T) {
	h := NewHistory(nil, logger.Nop())

	require.NoError(t, h.Record(context.Background(), nil))
	require.NoError(t, h.Close())
}

func TestSchemaVersionMismatchBacksUp(t *testing.T) {
	dir := t.TempDir()
	dbPath := filepath.Join(dir, "hwscore.db")
	backupDir := filepath.Join(dir, "backups")

	db, err := sql.Open("sqlite3", dbPath)
	require.NoError(t, err)
	_, err = db.Exec(`
        CREATE TABLE schema_versions (version INTEGER PRIMARY KEY, applied_at TEXT NOT NULL);
        INSERT INTO schema_versions (version, applied_at) VALUES (99, datetime('now'));
    `)
	require.NoError(t, err)
	require.NoError(t, db.Close())

	repo, err := NewRepository(Config{DBPath: dbPath, BackupDir: backupDir, Enabled: true}, logger.Nop())
	require.NoError(t, err)
	defer repo.Close()

	entries, err := os.ReadDir(backupDir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Contains(t, entries[0].Name(), "hwscore_v99_")

	// The recreated schema is usable.
	require.NoError(t, repo.SaveReference(context.Background(), "default", sampleReference()))
}

func TestConfigValidate(t *testing.T) {
	assert.NoError(t, DefaultConfig().Validate())
	assert.NoError(t, Config{Enabled: false}.Validate())
	assert.True(t, errors.HasCode(Config{Enabled: true}.Validate(), ErrInvalidDBPath))
	assert.Equal(t, "/var/lib/hwscore/backups", DefaultConfig().backupDir())
}
