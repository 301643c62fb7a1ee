package config

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// DefaultConfigPath is the path to the canonical perception defaults file.
const DefaultConfigPath = "config/perception.defaults.json"

// Localization strategies.
const (
	LocalizationLowPass       = "lowpassfilter"
	LocalizationTriangulation = "triangulation"
	LocalizationParticle      = "particlefilter"
)

// Tracking strategies.
const (
	TrackingQualifier = "qualifier"
	TrackingParticles = "pfilters"
)

// Agent kinds.
const (
	AgentPlayer  = "player"
	AgentGoalie  = "goalie"
	AgentCoach   = "coach"
	AgentTrainer = "trainer"
)

// PerceptionConfig is the root configuration for the perception core.
// Every field is optional; the Get* methods supply defaults for nil fields
// so partial files are safe.
type PerceptionConfig struct {
	// Agent identity
	TeamName  *string `json:"team_name,omitempty"`
	AgentKind *string `json:"agent_kind,omitempty"`

	// Cycle timing
	CycleOffsetMs *int `json:"cycle_offset_ms,omitempty"`
	HistorySize   *int `json:"history_size,omitempty"`

	// Self localization
	Localization *string `json:"localization,omitempty"`
	Particles    *int    `json:"particles,omitempty"`
	RandomSeed   *uint64 `json:"random_seed,omitempty"`

	// World tracking
	PlayerHistory         *bool    `json:"player_history,omitempty"`
	PlayerTracking        *bool    `json:"player_tracking,omitempty"`
	BallTracking          *bool    `json:"ball_tracking,omitempty"`
	Tracking              *string  `json:"tracking,omitempty"`
	TrackingThreshold     *float64 `json:"tracking_threshold,omitempty"`
	PlayerMaxHistory      *int     `json:"player_max_history,omitempty"`
	BallMaxHistory        *int     `json:"ball_max_history,omitempty"`
	ExactIdentityBackfill *bool    `json:"exact_identity_backfill,omitempty"`

	Verbose *bool `json:"verbose,omitempty"`
}

// Helper functions to create pointers
func ptrFloat64(v float64) *float64 { return &v }
func ptrBool(v bool) *bool          { return &v }
func ptrString(v string) *string    { return &v }
func ptrInt(v int) *int             { return &v }
func ptrUint64(v uint64) *uint64    { return &v }

// EmptyPerceptionConfig returns a PerceptionConfig with all fields nil.
func EmptyPerceptionConfig() *PerceptionConfig {
	return &PerceptionConfig{}
}

// DefaultPerceptionConfig returns a config with every field set explicitly
// to its default value.
func DefaultPerceptionConfig() *PerceptionConfig {
	c := EmptyPerceptionConfig()
	return &PerceptionConfig{
		TeamName:              ptrString(c.GetTeamName()),
		AgentKind:             ptrString(c.GetAgentKind()),
		CycleOffsetMs:         ptrInt(c.GetCycleOffsetMs()),
		HistorySize:           ptrInt(c.GetHistorySize()),
		Localization:          ptrString(c.GetLocalization()),
		Particles:             ptrInt(c.GetParticles()),
		RandomSeed:            ptrUint64(c.GetRandomSeed()),
		PlayerHistory:         ptrBool(c.GetPlayerHistory()),
		PlayerTracking:        ptrBool(c.GetPlayerTracking()),
		BallTracking:          ptrBool(c.GetBallTracking()),
		Tracking:              ptrString(c.GetTracking()),
		TrackingThreshold:     ptrFloat64(c.GetTrackingThreshold()),
		PlayerMaxHistory:      ptrInt(c.GetPlayerMaxHistory()),
		BallMaxHistory:        ptrInt(c.GetBallMaxHistory()),
		ExactIdentityBackfill: ptrBool(c.GetExactIdentityBackfill()),
		Verbose:               ptrBool(c.GetVerbose()),
	}
}

// LoadPerceptionConfig loads a PerceptionConfig from a JSON file.
// The file must have a .json extension and be under 1MB. Unknown keys are
// rejected so typos do not silently fall back to defaults.
func LoadPerceptionConfig(path string) (*PerceptionConfig, error) {
	cleanPath := filepath.Clean(path)
	if ext := filepath.Ext(cleanPath); ext != ".json" {
		return nil, fmt.Errorf("config file must have .json extension, got %q", ext)
	}

	fileInfo, err := os.Stat(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to stat config file: %w", err)
	}
	const maxFileSize = 1 * 1024 * 1024 // 1MB
	if fileInfo.Size() > maxFileSize {
		return nil, fmt.Errorf("config file too large: %d bytes (max %d)", fileInfo.Size(), maxFileSize)
	}

	data, err := os.ReadFile(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := EmptyPerceptionConfig()
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	if err := dec.Decode(cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config JSON: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// MustLoadDefaultConfig loads the canonical defaults from DefaultConfigPath,
// searching the current directory and its parents. Panics if the file cannot
// be loaded, intended for test setup.
func MustLoadDefaultConfig() *PerceptionConfig {
	candidates := []string{
		DefaultConfigPath,
		"../../" + DefaultConfigPath,          // from internal/config/
		"../../../" + DefaultConfigPath,       // from internal/perception/demux/
		"../../../../" + DefaultConfigPath,    // deeper packages
		"../../../../../" + DefaultConfigPath, // even deeper
	}
	for _, path := range candidates {
		if cfg, err := LoadPerceptionConfig(path); err == nil {
			return cfg
		}
	}
	panic("cannot find " + DefaultConfigPath + " - run tests from repository root")
}

// Validate checks that the configuration values are valid.
func (c *PerceptionConfig) Validate() error {
	if c.CycleOffsetMs != nil && *c.CycleOffsetMs < 0 {
		return fmt.Errorf("cycle_offset_ms must be non-negative, got %d", *c.CycleOffsetMs)
	}
	if c.HistorySize != nil && *c.HistorySize < 2 {
		return fmt.Errorf("history_size must be at least 2, got %d", *c.HistorySize)
	}
	if c.Particles != nil && *c.Particles < 1 {
		return fmt.Errorf("particles must be positive, got %d", *c.Particles)
	}
	if c.TrackingThreshold != nil && *c.TrackingThreshold <= 0 {
		return fmt.Errorf("tracking_threshold must be positive, got %f", *c.TrackingThreshold)
	}
	if c.PlayerMaxHistory != nil && *c.PlayerMaxHistory < 0 {
		return fmt.Errorf("player_max_history must be non-negative, got %d", *c.PlayerMaxHistory)
	}
	if c.BallMaxHistory != nil && *c.BallMaxHistory < 0 {
		return fmt.Errorf("ball_max_history must be non-negative, got %d", *c.BallMaxHistory)
	}
	if c.Localization != nil {
		switch *c.Localization {
		case LocalizationLowPass, LocalizationTriangulation, LocalizationParticle:
		default:
			return fmt.Errorf("unknown localization %q", *c.Localization)
		}
	}
	if c.Tracking != nil {
		switch *c.Tracking {
		case TrackingQualifier, TrackingParticles:
		default:
			return fmt.Errorf("unknown tracking %q", *c.Tracking)
		}
	}
	if c.AgentKind != nil {
		switch *c.AgentKind {
		case AgentPlayer, AgentGoalie, AgentCoach, AgentTrainer:
		default:
			return fmt.Errorf("unknown agent_kind %q", *c.AgentKind)
		}
	}
	return nil
}

// GetTeamName returns the team_name value or the default.
func (c *PerceptionConfig) GetTeamName() string {
	if c.TeamName == nil || *c.TeamName == "" {
		return "Pitchside"
	}
	return *c.TeamName
}

// GetAgentKind returns the agent_kind value or the default.
func (c *PerceptionConfig) GetAgentKind() string {
	if c.AgentKind == nil || *c.AgentKind == "" {
		return AgentPlayer
	}
	return *c.AgentKind
}

// GetCycleOffsetMs returns the cycle_offset_ms value or the default.
func (c *PerceptionConfig) GetCycleOffsetMs() int {
	if c.CycleOffsetMs == nil {
		return 20
	}
	return *c.CycleOffsetMs
}

// GetHistorySize returns the history_size value or the default.
func (c *PerceptionConfig) GetHistorySize() int {
	if c.HistorySize == nil {
		return 8
	}
	return *c.HistorySize
}

// GetLocalization returns the localization value or the default.
func (c *PerceptionConfig) GetLocalization() string {
	if c.Localization == nil || *c.Localization == "" {
		return LocalizationLowPass
	}
	return *c.Localization
}

// GetParticles returns the particles value or the default.
func (c *PerceptionConfig) GetParticles() int {
	if c.Particles == nil {
		return 100
	}
	return *c.Particles
}

// GetRandomSeed returns the random_seed value. Zero means seed from time.
func (c *PerceptionConfig) GetRandomSeed() uint64 {
	if c.RandomSeed == nil {
		return 0
	}
	return *c.RandomSeed
}

// GetPlayerHistory returns the player_history value or the default.
func (c *PerceptionConfig) GetPlayerHistory() bool {
	if c.PlayerHistory == nil {
		return true
	}
	return *c.PlayerHistory
}

// GetPlayerTracking returns the player_tracking value or the default.
func (c *PerceptionConfig) GetPlayerTracking() bool {
	if c.PlayerTracking == nil {
		return true
	}
	return *c.PlayerTracking
}

// GetBallTracking returns the ball_tracking value or the default.
func (c *PerceptionConfig) GetBallTracking() bool {
	if c.BallTracking == nil {
		return true
	}
	return *c.BallTracking
}

// GetTracking returns the tracking value or the default.
func (c *PerceptionConfig) GetTracking() string {
	if c.Tracking == nil || *c.Tracking == "" {
		return TrackingQualifier
	}
	return *c.Tracking
}

// GetTrackingThreshold returns the tracking_threshold value or the default.
func (c *PerceptionConfig) GetTrackingThreshold() float64 {
	if c.TrackingThreshold == nil {
		return 1.5
	}
	return *c.TrackingThreshold
}

// GetPlayerMaxHistory returns the player_max_history value or the default.
func (c *PerceptionConfig) GetPlayerMaxHistory() int {
	if c.PlayerMaxHistory == nil {
		return 16
	}
	return *c.PlayerMaxHistory
}

// GetBallMaxHistory returns the ball_max_history value or the default.
func (c *PerceptionConfig) GetBallMaxHistory() int {
	if c.BallMaxHistory == nil {
		return 16
	}
	return *c.BallMaxHistory
}

// GetExactIdentityBackfill returns the exact_identity_backfill value or the default.
func (c *PerceptionConfig) GetExactIdentityBackfill() bool {
	if c.ExactIdentityBackfill == nil {
		return false
	}
	return *c.ExactIdentityBackfill
}

// GetVerbose returns the verbose value or the default.
func (c *PerceptionConfig) GetVerbose() bool {
	if c.Verbose == nil {
		return false
	}
	return *c.Verbose
}

// IsCoach reports whether the agent sees the whole pitch instead of an
// egocentric view.
func (c *PerceptionConfig) IsCoach() bool {
	k := c.GetAgentKind()
	return k == AgentCoach || k == AgentTrainer
}
