package internal

import (
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/starford/rehearse/internal/reviewservice"
	"github.com/starford/rehearse/internal/schedule"
)

// Auth modes.
const (
	AuthModeDisabled = "disabled"
	AuthModeToken    = "token"
)

// Config represents the application configuration.
type Config struct {
	App    ApplicationConfig `yaml:"app"`
	Vault  VaultConfig       `yaml:"vault"`
	SQLite SQLiteConfig      `yaml:"sqlite"`
	Auth   AuthConfig        `yaml:"auth"`
	Review ReviewConfig      `yaml:"review"`
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if err := c.App.Validate(); err != nil {
		return err
	}
	if err := c.Vault.Validate(); err != nil {
		return err
	}
	if err := c.SQLite.Validate(); err != nil {
		return err
	}
	if err := c.Auth.Validate(); err != nil {
		return err
	}
	return c.Review.Validate()
}

// ApplicationConfig holds application-level configuration.
type ApplicationConfig struct {
	LogLevel slog.Level `yaml:"log_level"`
	HTTP     HTTPConfig `yaml:"http"`
}

// Validate validates the application configuration.
func (c *ApplicationConfig) Validate() error {
	return c.HTTP.Validate()
}

// HTTPConfig holds HTTP server configuration.
type HTTPConfig struct {
	Port int `yaml:"port"`
}

// Address returns HTTP server address.
func (c *HTTPConfig) Address() string {
	return fmt.Sprintf(":%d", c.Port)
}

// Validate validates the HTTP configuration.
func (c *HTTPConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Port, validation.Required, validation.Min(1), validation.Max(65535)),
	)
}

// VaultConfig holds the path to the Markdown vault directory.
type VaultConfig struct {
	Path string `yaml:"path"`
}

// Validate validates the vault configuration.
func (c *VaultConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Path, validation.Required),
	)
}

// SQLiteConfig holds SQLite database configuration.
type SQLiteConfig struct {
	Path string `yaml:"path"`
}

// Validate validates the SQLite configuration.
func (c *SQLiteConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Path, validation.Required),
	)
}

// AuthConfig holds authentication configuration.
//
// Mode controls how authentication is enforced:
//   - "disabled" (default): no authentication required, suitable for local dev.
//   - "token": Bearer token authentication; Token must be non-empty.
type AuthConfig struct {
	Mode  string `yaml:"mode"`
	Token string `yaml:"token"`
}

// Validate validates the auth configuration.
func (c *AuthConfig) Validate() error {
	// Normalise empty mode to "disabled" for backward compatibility.
	if c.Mode == "" {
		c.Mode = AuthModeDisabled
	}
	if err := validation.ValidateStruct(c,
		validation.Field(&c.Mode, validation.Required, validation.In(AuthModeDisabled, AuthModeToken)),
	); err != nil {
		return err
	}
	if c.Mode == AuthModeToken && c.Token == "" {
		return fmt.Errorf("auth: mode is %q but token is empty", AuthModeToken)
	}
	return nil
}

// AuthEnabled returns true when authentication is active.
func (c *AuthConfig) AuthEnabled() bool {
	return c.Mode == AuthModeToken
}

// ReviewConfig holds scheduling configuration.
type ReviewConfig struct {
	// Strategy is used when a review names none: "rating" or "confidence".
	Strategy string `yaml:"strategy"`
	// Ladder holds the base intervals in days of the rating strategy.
	Ladder []int `yaml:"ladder"`
	// MaxIntervalDays caps intervals of the confidence strategy.
	MaxIntervalDays int `yaml:"max_interval_days"`
	// DefaultUser is recorded in the review log when a review names none.
	DefaultUser string `yaml:"default_user"`
	// DueLimit is the due queue size when a query names none.
	DueLimit int `yaml:"due_limit"`
	// MaxAttempts bounds recomputation after concurrent schedule updates.
	MaxAttempts int `yaml:"max_attempts"`
	// DueEventThrottle is the minimum gap between due.updated events.
	DueEventThrottle time.Duration `yaml:"due_event_throttle"`
}

// Validate validates the review configuration.
func (c *ReviewConfig) Validate() error {
	c.Strategy = strings.ToLower(strings.TrimSpace(c.Strategy))
	if c.Strategy == "" {
		c.Strategy = string(schedule.StrategyRating)
	}
	return validation.ValidateStruct(c,
		validation.Field(&c.Strategy, validation.In(string(schedule.StrategyRating), string(schedule.StrategyConfidence))),
		validation.Field(&c.Ladder, validation.Each(validation.Min(1)), validation.By(strictlyIncreasing)),
		validation.Field(&c.MaxIntervalDays, validation.Required, validation.Min(1)),
		validation.Field(&c.DefaultUser, validation.Required, validation.Length(1, 128)),
		validation.Field(&c.DueLimit, validation.Required, validation.Min(1), validation.Max(reviewservice.MaxDueLimit)),
		validation.Field(&c.MaxAttempts, validation.Required, validation.Min(1), validation.Max(10)),
		validation.Field(&c.DueEventThrottle, validation.Min(time.Duration(0))),
	)
}

func strictlyIncreasing(value any) error {
	ladder, _ := value.([]int)
	if ladder != nil && len(ladder) == 0 {
		return errors.New("must not be empty")
	}
	for i := 1; i < len(ladder); i++ {
		if ladder[i] <= ladder[i-1] {
			return errors.New("must be strictly increasing")
		}
	}
	return nil
}

// Engines builds the scheduling engines from the configuration.
func (c *ReviewConfig) Engines() (*schedule.Engines, error) {
	return schedule.NewEngines(c.Ladder, c.MaxIntervalDays)
}

// NewDefaultConfig returns a new Config with sensible default values.
func NewDefaultConfig() *Config {
	return &Config{
		App: ApplicationConfig{
			LogLevel: slog.LevelInfo,
			HTTP: HTTPConfig{
				Port: 8080,
			},
		},
		Vault: VaultConfig{
			Path: "./vault",
		},
		SQLite: SQLiteConfig{
			Path: "./rehearse.db",
		},
		Auth: AuthConfig{
			Mode: AuthModeDisabled,
		},
		Review: ReviewConfig{
			Strategy:         string(schedule.StrategyRating),
			Ladder:           slices.Clone(schedule.DefaultLadder),
			MaxIntervalDays:  schedule.DefaultMaxIntervalDays,
			DefaultUser:      reviewservice.DefaultUser,
			DueLimit:         reviewservice.DefaultDueLimit,
			MaxAttempts:      reviewservice.DefaultMaxAttempts,
			DueEventThrottle: 2 * time.Second,
		},
	}
}
