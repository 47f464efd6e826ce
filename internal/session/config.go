package session

import (
	"errors"
	"fmt"
	"time"

	"github.com/heliraid/heliraid/internal/config"
	"github.com/heliraid/heliraid/internal/depot"
)

// ErrInvalidConfig is wrapped by every validation failure.
var ErrInvalidConfig = errors.New("invalid session config")

// Tier bounds for every difficulty knob.
const (
	MinTier = 1
	MaxTier = 3
)

// Difficulty holds the three tiers picked before a session starts.
type Difficulty struct {
	Ammunition int
	Reload     int
	Cooldown   int
}

// Validate checks every tier is within [MinTier, MaxTier].
func (d Difficulty) Validate() error {
	tiers := []struct {
		name  string
		value int
	}{
		{"ammunition", d.Ammunition},
		{"reload", d.Reload},
		{"cooldown", d.Cooldown},
	}
	for _, t := range tiers {
		if t.value < MinTier || t.value > MaxTier {
			return fmt.Errorf("%w: %s tier %d outside [%d, %d]", ErrInvalidConfig, t.name, t.value, MinTier, MaxTier)
		}
	}
	return nil
}

// Capacity is the magazine size: five rounds per ammunition tier.
func (d Difficulty) Capacity() int { return 5 * d.Ammunition }

// ReloadSlice is the time to load one round; higher tiers are faster.
func (d Difficulty) ReloadSlice() time.Duration {
	return time.Duration(MaxTier+1-d.Reload) * 100 * time.Millisecond
}

// CooldownRange is the interval a shot cooldown is drawn from.
func (d Difficulty) CooldownRange() (time.Duration, time.Duration) {
	n := time.Duration(d.Cooldown)
	return 1500 * time.Millisecond / n, 3000 * time.Millisecond / n
}

// Config is everything a session needs, resolved from tiers and tuning.
type Config struct {
	Tick       time.Duration
	ReloadMode depot.ReloadMode

	Cannons  int
	Hostages int

	Capacity          int
	InitialAmmunition int // negative means a full magazine
	ReloadSlice       time.Duration
	MinCooldown       time.Duration
	MaxCooldown       time.Duration

	MissileSpeed      int
	MissileArcDegrees int
	CannonSpeed       int
	HelicopterSpeed   int

	// Seed for cannon randomness; zero picks one from the clock.
	Seed uint64
}

// DefaultConfig returns the standard two-cannon, ten-hostage session at the
// given difficulty.
func DefaultConfig(d Difficulty) (Config, error) {
	if err := d.Validate(); err != nil {
		return Config{}, err
	}
	lo, hi := d.CooldownRange()
	return Config{
		Tick:              10 * time.Millisecond,
		ReloadMode:        depot.ReloadIncremental,
		Cannons:           2,
		Hostages:          10,
		Capacity:          d.Capacity(),
		InitialAmmunition: -1,
		ReloadSlice:       d.ReloadSlice(),
		MinCooldown:       lo,
		MaxCooldown:       hi,
		MissileSpeed:      5,
		MissileArcDegrees: 120,
		CannonSpeed:       2,
		HelicopterSpeed:   3,
	}, nil
}

// FromSettings resolves the loaded configuration.
func FromSettings(dc config.DifficultyConfig, sc config.SimulationConfig) (Config, error) {
	cfg, err := DefaultConfig(Difficulty{
		Ammunition: dc.Ammunition,
		Reload:     dc.Reload,
		Cooldown:   dc.Cooldown,
	})
	if err != nil {
		return Config{}, err
	}

	mode, err := depot.ParseReloadMode(sc.ReloadMode)
	if err != nil {
		return Config{}, fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}

	cfg.Tick = sc.TickInterval
	cfg.ReloadMode = mode
	cfg.Cannons = sc.Cannons
	cfg.Hostages = sc.Hostages
	cfg.InitialAmmunition = sc.InitialAmmunition
	cfg.MissileSpeed = sc.MissileSpeed
	cfg.MissileArcDegrees = sc.MissileArcDegrees
	cfg.CannonSpeed = sc.CannonSpeed
	cfg.HelicopterSpeed = sc.HelicopterSpeed
	cfg.Seed = sc.Seed

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate rejects configurations the units cannot run with.
func (c Config) Validate() error {
	switch {
	case c.Tick <= 0:
		return fmt.Errorf("%w: tick must be positive", ErrInvalidConfig)
	case c.Cannons < 1:
		return fmt.Errorf("%w: need at least one cannon", ErrInvalidConfig)
	case c.Hostages < 1:
		return fmt.Errorf("%w: need at least one hostage", ErrInvalidConfig)
	case c.Capacity < 1:
		return fmt.Errorf("%w: capacity must be positive", ErrInvalidConfig)
	case c.InitialAmmunition > c.Capacity:
		return fmt.Errorf("%w: initial ammunition %d above capacity %d", ErrInvalidConfig, c.InitialAmmunition, c.Capacity)
	case c.ReloadMode == depot.ReloadIncremental && c.ReloadSlice <= 0:
		return fmt.Errorf("%w: reload slice must be positive", ErrInvalidConfig)
	case c.MinCooldown < 0 || c.MaxCooldown < c.MinCooldown:
		return fmt.Errorf("%w: empty cooldown range [%s, %s]", ErrInvalidConfig, c.MinCooldown, c.MaxCooldown)
	case c.MissileSpeed <= 0 || c.CannonSpeed <= 0 || c.HelicopterSpeed <= 0:
		return fmt.Errorf("%w: speeds must be positive", ErrInvalidConfig)
	case c.MissileArcDegrees < 1 || c.MissileArcDegrees > 180:
		return fmt.Errorf("%w: missile arc %d outside [1, 180]", ErrInvalidConfig, c.MissileArcDegrees)
	}
	return nil
}

// startAmmo is the magazine each cannon spawns with.
func (c Config) startAmmo() int {
	if c.InitialAmmunition < 0 {
		return c.Capacity
	}
	return c.InitialAmmunition
}
