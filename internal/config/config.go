package config

import (
	"fmt"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// FileName is the config file looked up in the config directory.
const FileName = "heliraid.cfg.json"

// DifficultyConfig holds the three tiers chosen before a session starts.
type DifficultyConfig struct {
	Ammunition int `json:"ammunition" mapstructure:"ammunition"`
	Reload     int `json:"reload" mapstructure:"reload"`
	Cooldown   int `json:"cooldown" mapstructure:"cooldown"`
}

// SimulationConfig holds arena tuning.
type SimulationConfig struct {
	TickInterval      time.Duration
	FrameInterval     time.Duration
	ReloadMode        string
	Cannons           int
	Hostages          int
	InitialAmmunition int
	MissileSpeed      int
	MissileArcDegrees int
	CannonSpeed       int
	HelicopterSpeed   int
	Seed              uint64
}

// MemoryConfig holds in-memory journal settings
type MemoryConfig struct {
	OutputDir      string `json:"outputDir" mapstructure:"outputDir"`
	CompressOutput bool   `json:"compressOutput" mapstructure:"compressOutput"`
}

// SQLiteConfig holds SQLite journal settings
type SQLiteConfig struct {
	DumpInterval time.Duration
	DumpPath     string
}

// StorageConfig selects and configures the journal backend
type StorageConfig struct {
	Type   string
	Memory MemoryConfig
	SQLite SQLiteConfig
}

// OTelConfig holds OpenTelemetry settings
type OTelConfig struct {
	Enabled        bool
	ServiceName    string
	BatchTimeout   time.Duration
	Endpoint       string
	Insecure       bool
	MetricInterval time.Duration
}

// MonitorConfig holds the status monitor settings
type MonitorConfig struct {
	Enabled  bool
	Interval time.Duration
}

// Load reads configuration from JSON file and sets default values.
// configDir is the directory containing the config file.
func Load(configDir string) error {
	setDefaults()

	viper.SetConfigName(FileName)
	viper.AddConfigPath(configDir)
	viper.SetConfigType("json")

	err := viper.ReadInConfig()
	if err != nil {
		return fmt.Errorf("error reading config file: %v", err)
	}

	return nil
}

func setDefaults() {
	viper.SetDefault("logLevel", "info")
	viper.SetDefault("logsDir", "./heliraid-logs")

	viper.SetDefault("difficulty.ammunition", 2)
	viper.SetDefault("difficulty.reload", 2)
	viper.SetDefault("difficulty.cooldown", 2)

	viper.SetDefault("simulation.tickInterval", "10ms")
	viper.SetDefault("simulation.frameInterval", "16ms")
	viper.SetDefault("simulation.reloadMode", "incremental")
	viper.SetDefault("simulation.cannons", 2)
	viper.SetDefault("simulation.hostages", 10)
	viper.SetDefault("simulation.initialAmmunition", -1) // full magazine
	viper.SetDefault("simulation.missileSpeed", 5)
	viper.SetDefault("simulation.missileArcDegrees", 120)
	viper.SetDefault("simulation.cannonSpeed", 2)
	viper.SetDefault("simulation.helicopterSpeed", 3)
	viper.SetDefault("simulation.seed", 0)

	viper.SetDefault("storage.type", "memory")
	viper.SetDefault("storage.memory.outputDir", "")
	viper.SetDefault("storage.memory.compressOutput", true)
	viper.SetDefault("storage.sqlite.dumpInterval", "30s")
	viper.SetDefault("storage.sqlite.dumpPath", "")

	viper.SetDefault("otel.enabled", false)
	viper.SetDefault("otel.serviceName", "heliraid")
	viper.SetDefault("otel.batchTimeout", "5s")
	viper.SetDefault("otel.endpoint", "")
	viper.SetDefault("otel.insecure", true)
	viper.SetDefault("otel.metricInterval", "10s")

	viper.SetDefault("monitor.enabled", true)
	viper.SetDefault("monitor.interval", "1s")
}

// Flags returns the command-line flags. Call BindFlags after parsing.
func Flags() *pflag.FlagSet {
	fs := pflag.NewFlagSet("heliraid", pflag.ContinueOnError)
	fs.String("config-dir", ".", "directory containing "+FileName)
	fs.String("log-level", "", "log level (debug, info, warn, error)")
	fs.Int("ammo-tier", 0, "ammunition tier 1-3, magazine is 5 per tier")
	fs.Int("reload-tier", 0, "reload tier 1-3, higher reloads faster")
	fs.Int("cooldown-tier", 0, "cooldown tier 1-3, higher fires more often")
	fs.String("storage", "", "journal backend (memory, sqlite)")
	return fs
}

// BindFlags makes explicitly set flags override file values.
func BindFlags(fs *pflag.FlagSet) error {
	bindings := map[string]string{
		"log-level":     "logLevel",
		"ammo-tier":     "difficulty.ammunition",
		"reload-tier":   "difficulty.reload",
		"cooldown-tier": "difficulty.cooldown",
		"storage":       "storage.type",
	}
	for flag, key := range bindings {
		f := fs.Lookup(flag)
		if f == nil || !f.Changed {
			continue
		}
		if err := viper.BindPFlag(key, f); err != nil {
			return fmt.Errorf("binding flag %s: %w", flag, err)
		}
	}
	return nil
}

// GetString returns a string config value.
func GetString(key string) string {
	return viper.GetString(key)
}

// GetInt returns an int config value.
func GetInt(key string) int {
	return viper.GetInt(key)
}

// GetBool returns a bool config value.
func GetBool(key string) bool {
	return viper.GetBool(key)
}

// GetDifficulty returns the difficulty tiers.
func GetDifficulty() DifficultyConfig {
	return DifficultyConfig{
		Ammunition: viper.GetInt("difficulty.ammunition"),
		Reload:     viper.GetInt("difficulty.reload"),
		Cooldown:   viper.GetInt("difficulty.cooldown"),
	}
}

// GetSimulationConfig returns arena tuning.
func GetSimulationConfig() SimulationConfig {
	return SimulationConfig{
		TickInterval:      viper.GetDuration("simulation.tickInterval"),
		FrameInterval:     viper.GetDuration("simulation.frameInterval"),
		ReloadMode:        viper.GetString("simulation.reloadMode"),
		Cannons:           viper.GetInt("simulation.cannons"),
		Hostages:          viper.GetInt("simulation.hostages"),
		InitialAmmunition: viper.GetInt("simulation.initialAmmunition"),
		MissileSpeed:      viper.GetInt("simulation.missileSpeed"),
		MissileArcDegrees: viper.GetInt("simulation.missileArcDegrees"),
		CannonSpeed:       viper.GetInt("simulation.cannonSpeed"),
		HelicopterSpeed:   viper.GetInt("simulation.helicopterSpeed"),
		Seed:              viper.GetUint64("simulation.seed"),
	}
}

// GetStorageConfig returns the journal backend settings.
func GetStorageConfig() StorageConfig {
	return StorageConfig{
		Type: viper.GetString("storage.type"),
		Memory: MemoryConfig{
			OutputDir:      viper.GetString("storage.memory.outputDir"),
			CompressOutput: viper.GetBool("storage.memory.compressOutput"),
		},
		SQLite: SQLiteConfig{
			DumpInterval: viper.GetDuration("storage.sqlite.dumpInterval"),
			DumpPath:     viper.GetString("storage.sqlite.dumpPath"),
		},
	}
}

// GetOTelConfig returns OpenTelemetry settings.
func GetOTelConfig() OTelConfig {
	return OTelConfig{
		Enabled:        viper.GetBool("otel.enabled"),
		ServiceName:    viper.GetString("otel.serviceName"),
		BatchTimeout:   viper.GetDuration("otel.batchTimeout"),
		Endpoint:       viper.GetString("otel.endpoint"),
		Insecure:       viper.GetBool("otel.insecure"),
		MetricInterval: viper.GetDuration("otel.metricInterval"),
	}
}

// GetMonitorConfig returns the status monitor settings.
func GetMonitorConfig() MonitorConfig {
	return MonitorConfig{
		Enabled:  viper.GetBool("monitor.enabled"),
		Interval: viper.GetDuration("monitor.interval"),
	}
}
