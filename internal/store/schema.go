package store

import (
	"database/sql"

	"codeberg.org/mutker/hwscore/internal/errors"
	"codeberg.org/mutker/hwscore/internal/logger"
)

const (
	SchemaVersion = 1

	// Unknown measures are stored as NULL
	createTablesSQL = `
	   CREATE TABLE IF NOT EXISTS schema_versions (
	       version     INTEGER PRIMARY KEY,
	       applied_at  TEXT NOT NULL
	   );
	   CREATE TABLE IF NOT EXISTS reference_profiles (
	       name                     TEXT PRIMARY KEY,
	       device_class             TEXT NOT NULL,
	       graphics_backend         TEXT NOT NULL,
	       gpu_memory_mb            INTEGER CHECK (gpu_memory_mb IS NULL OR gpu_memory_mb >= 0),
	       gpu_multithreaded        INTEGER NOT NULL CHECK (gpu_multithreaded IN (0, 1)),
	       gpu_shader_level         INTEGER CHECK (gpu_shader_level IS NULL OR gpu_shader_level >= 0),
	       max_texture_size         INTEGER CHECK (max_texture_size IS NULL OR max_texture_size >= 0),
	       system_memory_mb         INTEGER CHECK (system_memory_mb IS NULL OR system_memory_mb >= 0),
	       processor_count          INTEGER CHECK (processor_count IS NULL OR processor_count >= 0),
	       processor_frequency_mhz  INTEGER CHECK (processor_frequency_mhz IS NULL OR processor_frequency_mhz >= 0),
	       supports_compute_shaders INTEGER NOT NULL CHECK (supports_compute_shaders IN (0, 1)),
	       supports_image_effects   INTEGER NOT NULL CHECK (supports_image_effects IN (0, 1)),
	       supports_shadows         INTEGER NOT NULL CHECK (supports_shadows IN (0, 1)),
	       sli_scalar               REAL NOT NULL,
	       updated_at               INTEGER NOT NULL
	   );
	   CREATE TABLE IF NOT EXISTS score_history (
	       recorded_at   INTEGER PRIMARY KEY,
	       reference     TEXT NOT NULL,
	       overall_score REAL NOT NULL,
	       gpu_score     REAL NOT NULL,
	       cpu_score     REAL NOT NULL,
	       warnings      TEXT NOT NULL
	   );`

	upsertReferenceSQL = `
    INSERT INTO reference_profiles (
        name, device_class, graphics_backend,
        gpu_memory_mb, gpu_multithreaded, gpu_shader_level, max_texture_size,
        system_memory_mb, processor_count, processor_frequency_mhz,
        supports_compute_shaders, supports_image_effects, supports_shadows,
        sli_scalar, updated_at
    ) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
    ON CONFLICT(name) DO UPDATE SET
        device_class = excluded.device_class,
        graphics_backend = excluded.graphics_backend,
        gpu_memory_mb = excluded.gpu_memory_mb,
        gpu_multithreaded = excluded.gpu_multithreaded,
        gpu_shader_level = excluded.gpu_shader_level,
        max_texture_size = excluded.max_texture_size,
        system_memory_mb = excluded.system_memory_mb,
        processor_count = excluded.processor_count,
        processor_frequency_mhz = excluded.processor_frequency_mhz,
        supports_compute_shaders = excluded.supports_compute_shaders,
        supports_image_effects = excluded.supports_image_effects,
        supports_shadows = excluded.supports_shadows,
        sli_scalar = excluded.sli_scalar,
        updated_at = excluded.updated_at`

	selectReferenceSQL = `
    SELECT device_class, graphics_backend,
        gpu_memory_mb, gpu_multithreaded, gpu_shader_level, max_texture_size,
        system_memory_mb, processor_count, processor_frequency_mhz,
        supports_compute_shaders, supports_image_effects, supports_shadows,
        sli_scalar
    FROM reference_profiles
    WHERE name = ?`

	deleteReferenceSQL = `DELETE FROM reference_profiles WHERE name = ?`

	insertScoreSQL = `
    INSERT INTO score_history (
        recorded_at, reference, overall_score, gpu_score, cpu_score, warnings
    ) VALUES (?, ?, ?, ?, ?, ?)
    ON CONFLICT(recorded_at) DO UPDATE SET
        reference = excluded.reference,
        overall_score = excluded.overall_score,
        gpu_score = excluded.gpu_score,
        cpu_score = excluded.cpu_score,
        warnings = excluded.warnings`

	selectRecentScoresSQL = `
    SELECT recorded_at, reference, overall_score, gpu_score, cpu_score, warnings
    FROM score_history
    ORDER BY recorded_at DESC
    LIMIT ?`
)

// InitSchema creates a new database schema with the current version
func InitSchema(db *sql.DB, log logger.Logger) error {
	errFactory := errors.New()

	log.Debug().Msg("Creating database...")

	tx, err := db.Begin()
	if err != nil {
		return errFactory.Wrap(ErrSchemaInitFailed, err)
	}

	// Track transaction state
	committed := false
	defer func() {
		if !committed {
			if err := tx.Rollback(); err != nil {
				if !errors.Is(err, sql.ErrTxDone) {
					log.Debug().Err(err).Msg("Failed to rollback transaction")
				}
			}
		}
	}()

	if _, err := tx.Exec(createTablesSQL); err != nil {
		return errFactory.WithData(ErrSchemaInitFailed, struct {
			Phase string
			Error string
		}{
			Phase: "create_tables",
			Error: err.Error(),
		})
	}

	if _, err := tx.Exec(`
        INSERT INTO schema_versions (version, applied_at)
        VALUES (?, datetime('now'))
    `, SchemaVersion); err != nil {
		return errFactory.WithData(ErrSchemaInitFailed, struct {
			Phase string
			Error string
		}{
			Phase: "record_version",
			Error: err.Error(),
		})
	}

	if err := tx.Commit(); err != nil {
		return errFactory.Wrap(ErrSchemaInitFailed, err)
	}
	committed = true

	log.Info().
		Int("version", SchemaVersion).
		Msg("Schema initialized successfully")

	return nil
}

// GetSchemaVersion returns the current schema version, or 0 for a new database
func GetSchemaVersion(db *sql.DB) (int, error) {
	errFactory := errors.New()

	exists, err := TableExists(db, "schema_versions")
	if err != nil {
		return 0, errFactory.Wrap(ErrSchemaValidationFailed, err)
	}
	if !exists {
		return 0, nil
	}

	var version int
	err = db.QueryRow(`
        SELECT version
        FROM schema_versions
        ORDER BY version DESC
        LIMIT 1
    `).Scan(&version)

	if errors.Is(err, sql.ErrNoRows) {
		return 0, nil
	}
	if err != nil {
		return 0, errFactory.WithData(ErrSchemaValidationFailed, struct {
			Phase string
			Error string
		}{
			Phase: "get_version",
			Error: err.Error(),
		})
	}

	return version, nil
}

// TableExists checks if a table exists
func TableExists(db *sql.DB, tableName string) (bool, error) {
	errFactory := errors.New()
	var exists bool
	err := db.QueryRow(`
        SELECT EXISTS (
            SELECT 1 FROM sqlite_master
            WHERE type='table' AND name=?
        )
    `, tableName).Scan(&exists)
	if err != nil {
		return false, errFactory.WithData(ErrSchemaValidationFailed, struct {
			Phase string
			Table string
			Error string
		}{
			Phase: "check_table_exists",
			Table: tableName,
			Error: err.Error(),
		})
	}
	return exists, nil
}
