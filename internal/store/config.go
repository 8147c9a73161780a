package store

import (
	"path/filepath"

	"codeberg.org/mutker/hwscore/internal/errors"
)

const (
	// File system permissions and paths
	defaultDirPerm = 0o755
	defaultDBPath  = "/var/lib/hwscore/hwscore.db"
)

type Config struct {
	DBPath    string `mapstructure:"path"`
	BackupDir string `mapstructure:"backup_dir"`
	Enabled   bool   `mapstructure:"enabled"`
}

func DefaultConfig() Config {
	return Config{
		DBPath:  defaultDBPath,
		Enabled: true,
	}
}

func (c Config) Validate() error {
	errFactory := errors.New()

	// Only validate DBPath if the store is enabled
	if c.Enabled && c.DBPath == "" {
		return errFactory.New(ErrInvalidDBPath)
	}
	return nil
}

// backupDir defaults to a backups directory next to the database
func (c Config) backupDir() string {
	if c.BackupDir != "" {
		return c.BackupDir
	}
	return filepath.Join(filepath.Dir(c.DBPath), "backups")
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
