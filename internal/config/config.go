package config

import (
	"os"
	"strings"

	"codeberg.org/mutker/hwscore/internal/errors"
	"codeberg.org/mutker/hwscore/internal/probe"
	"codeberg.org/mutker/hwscore/internal/scoring"
	"codeberg.org/mutker/hwscore/internal/store"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

const (
	DefaultLogLevel      = LogLevelInfo
	DefaultFormat        = FormatText
	DefaultInterval      = 0
	DefaultReferenceName = "default"
	DefaultEnvPrefix     = "HWSCORE"

	configName = "hwscore"
	configType = "toml"
	configDir  = "/etc"
)

type Config struct {
	LogLevel  LogLevel        `mapstructure:"log_level"`
	Format    Format          `mapstructure:"format"`
	Interval  int             `mapstructure:"interval"`
	Weights   scoring.Weights `mapstructure:"weights"`
	Reference Reference       `mapstructure:"reference"`
	Probe     probe.Config    `mapstructure:"probe"`
	Store     store.Config    `mapstructure:"store"`
	Metrics   Metrics         `mapstructure:"metrics"`

	// Actions requested on the command line
	SetReference   bool `mapstructure:"-"`
	ClearReference bool `mapstructure:"-"`

	// History prints the last N recorded scores instead of scoring
	History int `mapstructure:"-"`

	// WeightsAdjusted holds the out-of-range report when clamping changed
	// configured weights
	WeightsAdjusted error `mapstructure:"-"`
}

type Metrics struct {
	Listen string `mapstructure:"listen"`
}

// Watch reports whether the user machine is re-scored periodically
func (c *Config) Watch() bool {
	return c.Interval > 0
}

// Load reads defaults, the TOML config file, HWSCORE_* environment and
// the flags in args, in increasing precedence
func Load(args []string, opts ...Option) (*Config, error) {
	errFactory := errors.New()

	o := options{envPrefix: DefaultEnvPrefix}
	for _, opt := range opts {
		if err := opt(&o); err != nil {
			return nil, errFactory.Wrap(errors.ErrInvalidConfig, err)
		}
	}

	v := viper.New()
	setDefaults(v)

	fs := newFlagSet()
	if err := fs.Parse(args); err != nil {
		return nil, errFactory.Wrap(errors.ErrParseFlags, err)
	}
	if err := bindFlags(v, fs); err != nil {
		return nil, err
	}

	v.SetEnvPrefix(o.envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := readConfigFile(v, fs, o); err != nil {
		return nil, err
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, errFactory.Wrap(errors.ErrInvalidConfig, err)
	}

	cfg.SetReference, _ = fs.GetBool("set-reference")
	cfg.ClearReference, _ = fs.GetBool("clear-reference")
	cfg.History, _ = fs.GetInt("history")
	if noStore, _ := fs.GetBool("no-store"); noStore {
		cfg.Store.Enabled = false
	}

	cfg.LogLevel = LogLevel(strings.ToLower(string(cfg.LogLevel)))
	cfg.Format = Format(strings.ToLower(string(cfg.Format)))
	cfg.Reference.Name = strings.TrimSpace(cfg.Reference.Name)

	if err := cfg.Weights.Validate(); err != nil {
		cfg.WeightsAdjusted = err
		cfg.Weights = cfg.Weights.Clamp()
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (c *Config) Validate() error {
	errFactory := errors.New()

	if !c.LogLevel.IsValid() {
		return errFactory.WithData(errors.ErrInvalidLogLevel, c.LogLevel)
	}
	if !c.Format.IsValid() {
		return errFactory.WithData(errors.ErrInvalidFormat, c.Format)
	}
	if c.Interval < 0 {
		return errFactory.WithData(errors.ErrInvalidInterval, c.Interval)
	}
	if c.SetReference && c.ClearReference {
		return errFactory.WithMessage(errors.ErrInvalidConfig,
			"--set-reference and --clear-reference are mutually exclusive")
	}
	if c.History < 0 {
		return errFactory.WithData(errors.ErrInvalidArgument, struct {
			Field string
			Value int
		}{
			Field: "history",
			Value: c.History,
		})
	}
	if c.History > 0 && (c.SetReference || c.ClearReference || c.Watch()) {
		return errFactory.WithMessage(errors.ErrInvalidConfig,
			"--history cannot be combined with reference changes or watch mode")
	}
	if c.History > 0 && !c.Store.Enabled {
		return errFactory.WithMessage(errors.ErrInvalidConfig, "--history needs the store enabled")
	}
	if c.Reference.Name == "" {
		return errFactory.WithMessage(errors.ErrInvalidConfig, "reference.name must not be empty")
	}
	if c.Reference.Profile != nil {
		if _, err := c.Reference.Profile.ToProfile(); err != nil {
			return err
		}
	}
	if err := c.Probe.Validate(); err != nil {
		return err
	}

	return c.Store.Validate()
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("log_level", DefaultLogLevel.String())
	v.SetDefault("format", DefaultFormat.String())
	v.SetDefault("interval", DefaultInterval)

	w := scoring.DefaultWeights()
	v.SetDefault("weights.desktop_weight", w.DesktopWeight)
	v.SetDefault("weights.console_weight", w.ConsoleWeight)
	v.SetDefault("weights.handheld_weight", w.HandheldWeight)
	v.SetDefault("weights.ignore_cores_above", w.IgnoreCoresAbove)
	v.SetDefault("weights.gpu_multithread_penalty", w.GPUMultithreadPenalty)
	v.SetDefault("weights.compute_penalty", w.ComputePenalty)
	v.SetDefault("weights.image_effect_penalty", w.ImageEffectPenalty)
	v.SetDefault("weights.shadow_penalty", w.ShadowPenalty)

	v.SetDefault("reference.name", DefaultReferenceName)

	p := probe.DefaultConfig()
	v.SetDefault("probe.device_class", p.DeviceClass)
	v.SetDefault("probe.graphics_backend", p.GraphicsBackend)
	v.SetDefault("probe.gpu_multithreaded", p.GPUMultithreaded)
	v.SetDefault("probe.sli_scalar", p.SLIScalar)
	v.SetDefault("probe.extended", p.Extended)

	s := store.DefaultConfig()
	v.SetDefault("store.enabled", s.Enabled)
	v.SetDefault("store.path", s.DBPath)
	v.SetDefault("store.backup_dir", s.BackupDir)

	v.SetDefault("metrics.listen", "")
}

func newFlagSet() *pflag.FlagSet {
	fs := pflag.NewFlagSet(configName, pflag.ContinueOnError)

	fs.StringP("config", "c", "", "Path to config file")
	fs.String("log-level", DefaultLogLevel.String(), "Log level (debug, info, warning, error)")
	fs.StringP("format", "f", DefaultFormat.String(), "Output format (text, json, yaml)")
	fs.IntP("interval", "i", DefaultInterval, "Re-score every N seconds; 0 scores once")
	fs.Bool("set-reference", false, "Store the current machine as the reference")
	fs.Bool("clear-reference", false, "Delete the stored reference")
	fs.Int("history", 0, "Print the last N recorded scores and exit")
	fs.String("reference", DefaultReferenceName, "Name of the stored reference")
	fs.Bool("extended", false, "Collect the extended host profile")
	fs.Bool("no-store", false, "Do not open the score database")
	fs.String("metrics-listen", "", "Serve metrics on this address in watch mode")

	return fs
}

func bindFlags(v *viper.Viper, fs *pflag.FlagSet) error {
	errFactory := errors.New()

	bindings := map[string]string{
		"log_level":      "log-level",
		"format":         "format",
		"interval":       "interval",
		"reference.name": "reference",
		"probe.extended": "extended",
		"metrics.listen": "metrics-listen",
	}
	for key, flag := range bindings {
		if err := v.BindPFlag(key, fs.Lookup(flag)); err != nil {
			return errFactory.Wrap(errors.ErrBindFlags, err)
		}
	}

	return nil
}

// readConfigFile prefers an explicit path (option, flag, then environment);
// only the default location may be absent
func readConfigFile(v *viper.Viper, fs *pflag.FlagSet, o options) error {
	errFactory := errors.New()

	path := o.configPath
	if path == "" {
		path, _ = fs.GetString("config")
	}
	if path == "" {
		path = os.Getenv(o.envPrefix + "_CONFIG")
	}

	if path != "" {
		v.SetConfigFile(path)
		v.SetConfigType(configType)
	} else {
		v.SetConfigName(configName)
		v.SetConfigType(configType)
		v.AddConfigPath(configDir)
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path == "" && errors.As(err, &notFound) {
			return nil
		}
		return errFactory.Wrap(errors.ErrReadConfig, err)
	}

	return nil
}
