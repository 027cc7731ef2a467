package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/Joy52-cyber/schedulesync-web-sub001/internal/scheduler"
)

// Config captures the runtime configuration of the scheduling service.
// Values come from defaults, an optional YAML file and environment
// variables, in that order of precedence.
type Config struct {
	HTTPPort     int
	DatabasePath string

	// DefaultTimezone applies to participants without a policy of their own.
	DefaultTimezone string

	// WorkdayStart and WorkdayEnd are "HH:MM" bounds of the fallback
	// working-hours window; WorkingDays lists the enabled weekdays.
	WorkdayStart string
	WorkdayEnd   string
	WorkingDays  []time.Weekday

	BufferMinutes      int
	LeadTimeHours      int
	BookingHorizonDays int

	// StaleProposalAge is how old a session's proposals may grow before the
	// background sweep recomputes them.
	StaleProposalAge time.Duration
	// SessionIdleTimeout is how long an active session may sit untouched
	// before it expires.
	SessionIdleTimeout time.Duration

	ShutdownGrace time.Duration
}

// Default returns the documented fallback configuration.
func Default() Config {
	return Config{
		HTTPPort:           8080,
		DatabasePath:       "scheduler.db",
		DefaultTimezone:    "UTC",
		WorkdayStart:       "09:00",
		WorkdayEnd:         "17:00",
		WorkingDays:        []time.Weekday{time.Monday, time.Tuesday, time.Wednesday, time.Thursday, time.Friday},
		BufferMinutes:      0,
		LeadTimeHours:      0,
		BookingHorizonDays: 14,
		StaleProposalAge:   24 * time.Hour,
		SessionIdleTimeout: 7 * 24 * time.Hour,
		ShutdownGrace:      10 * time.Second,
	}
}

// Load assembles the configuration. When SCHEDSYNC_CONFIG_FILE names a YAML
// file its values override the defaults, and environment variables override
// both.
func Load() (Config, error) {
	cfg := Default()

	if path := strings.TrimSpace(os.Getenv("SCHEDSYNC_CONFIG_FILE")); path != "" {
		if err := applyFile(&cfg, path); err != nil {
			return Config{}, err
		}
	}

	if err := applyEnv(&cfg); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

// DefaultProfile converts the configured working hours into the engine's
// profile form.
func (c Config) DefaultProfile() (scheduler.WorkingHoursProfile, error) {
	start, err := scheduler.ParseTimeOfDay(c.WorkdayStart)
	if err != nil {
		return scheduler.WorkingHoursProfile{}, fmt.Errorf("config: workday start: %w", err)
	}
	end, err := scheduler.ParseTimeOfDay(c.WorkdayEnd)
	if err != nil {
		return scheduler.WorkingHoursProfile{}, fmt.Errorf("config: workday end: %w", err)
	}
	if !start.Before(end) {
		return scheduler.WorkingHoursProfile{}, fmt.Errorf("config: workday start %s is not before end %s", c.WorkdayStart, c.WorkdayEnd)
	}

	profile := scheduler.WorkingHoursProfile{
		BufferMinutes:      c.BufferMinutes,
		LeadTimeHours:      c.LeadTimeHours,
		BookingHorizonDays: c.BookingHorizonDays,
		Timezone:           c.DefaultTimezone,
	}
	for _, day := range c.WorkingDays {
		profile.Days[day] = scheduler.DayWindow{Enabled: true, Start: start, End: end}
	}
	return profile, nil
}

type fileConfig struct {
	HTTPPort        *int    `yaml:"http_port"`
	DatabasePath    *string `yaml:"database_path"`
	DefaultTimezone *string `yaml:"default_timezone"`
	WorkingHours    *struct {
		Start string   `yaml:"start"`
		End   string   `yaml:"end"`
		Days  []string `yaml:"days"`
	} `yaml:"working_hours"`
	BufferMinutes      *int    `yaml:"buffer_minutes"`
	LeadTimeHours      *int    `yaml:"lead_time_hours"`
	BookingHorizonDays *int    `yaml:"booking_horizon_days"`
	StaleProposalAge   *string `yaml:"stale_proposal_age"`
	SessionIdleTimeout *string `yaml:"session_idle_timeout"`
	ShutdownGrace      *string `yaml:"shutdown_grace"`
}

func applyFile(cfg *Config, path string) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("config: read %s: %w", path, err)
	}

	var file fileConfig
	if err := yaml.Unmarshal(raw, &file); err != nil {
		return fmt.Errorf("config: parse %s: %w", path, err)
	}

	if file.HTTPPort != nil {
		cfg.HTTPPort = *file.HTTPPort
	}
	if file.DatabasePath != nil {
		cfg.DatabasePath = *file.DatabasePath
	}
	if file.DefaultTimezone != nil {
		cfg.DefaultTimezone = *file.DefaultTimezone
	}
	if file.WorkingHours != nil {
		if file.WorkingHours.Start != "" {
			cfg.WorkdayStart = file.WorkingHours.Start
		}
		if file.WorkingHours.End != "" {
			cfg.WorkdayEnd = file.WorkingHours.End
		}
		if len(file.WorkingHours.Days) > 0 {
			days, err := parseWeekdayNames(file.WorkingHours.Days)
			if err != nil {
				return fmt.Errorf("config: parse %s: %w", path, err)
			}
			cfg.WorkingDays = days
		}
	}
	if file.BufferMinutes != nil {
		cfg.BufferMinutes = *file.BufferMinutes
	}
	if file.LeadTimeHours != nil {
		cfg.LeadTimeHours = *file.LeadTimeHours
	}
	if file.BookingHorizonDays != nil {
		cfg.BookingHorizonDays = *file.BookingHorizonDays
	}

	for _, entry := range []struct {
		value  *string
		target *time.Duration
		key    string
	}{
		{file.StaleProposalAge, &cfg.StaleProposalAge, "stale_proposal_age"},
		{file.SessionIdleTimeout, &cfg.SessionIdleTimeout, "session_idle_timeout"},
		{file.ShutdownGrace, &cfg.ShutdownGrace, "shutdown_grace"},
	} {
		if entry.value == nil {
			continue
		}
		parsed, err := time.ParseDuration(*entry.value)
		if err != nil || parsed <= 0 {
			return fmt.Errorf("config: parse %s: %s must be a positive duration", path, entry.key)
		}
		*entry.target = parsed
	}

	return nil
}

func applyEnv(cfg *Config) error {
	invalid := make([]string, 0, 2)

	if value := strings.TrimSpace(os.Getenv("SCHEDSYNC_HTTP_PORT")); value != "" {
		port, err := strconv.Atoi(value)
		if err != nil || port <= 0 {
			invalid = append(invalid, "SCHEDSYNC_HTTP_PORT")
		} else {
			cfg.HTTPPort = port
		}
	}

	if value := strings.TrimSpace(os.Getenv("SCHEDSYNC_DB_PATH")); value != "" {
		cfg.DatabasePath = value
	}

	if value := strings.TrimSpace(os.Getenv("SCHEDSYNC_DEFAULT_TIMEZONE")); value != "" {
		cfg.DefaultTimezone = value
	}

	for _, entry := range []struct {
		key    string
		target *int
	}{
		{"SCHEDSYNC_BUFFER_MINUTES", &cfg.BufferMinutes},
		{"SCHEDSYNC_LEAD_TIME_HOURS", &cfg.LeadTimeHours},
		{"SCHEDSYNC_BOOKING_HORIZON_DAYS", &cfg.BookingHorizonDays},
	} {
		value := strings.TrimSpace(os.Getenv(entry.key))
		if value == "" {
			continue
		}
		parsed, err := strconv.Atoi(value)
		if err != nil || parsed < 0 {
			invalid = append(invalid, entry.key)
			continue
		}
		*entry.target = parsed
	}

	for _, entry := range []struct {
		key    string
		target *time.Duration
	}{
		{"SCHEDSYNC_STALE_PROPOSAL_AGE", &cfg.StaleProposalAge},
		{"SCHEDSYNC_SESSION_IDLE_TIMEOUT", &cfg.SessionIdleTimeout},
		{"SCHEDSYNC_SHUTDOWN_GRACE", &cfg.ShutdownGrace},
	} {
		value := strings.TrimSpace(os.Getenv(entry.key))
		if value == "" {
			continue
		}
		parsed, err := time.ParseDuration(value)
		if err != nil || parsed <= 0 {
			invalid = append(invalid, entry.key)
			continue
		}
		*entry.target = parsed
	}

	if len(invalid) > 0 {
		return fmt.Errorf("config: invalid environment values: %s", strings.Join(invalid, ", "))
	}
	return nil
}

var weekdaysByName = map[string]time.Weekday{
	"sunday":    time.Sunday,
	"monday":    time.Monday,
	"tuesday":   time.Tuesday,
	"wednesday": time.Wednesday,
	"thursday":  time.Thursday,
	"friday":    time.Friday,
	"saturday":  time.Saturday,
}

func parseWeekdayNames(names []string) ([]time.Weekday, error) {
	out := make([]time.Weekday, 0, len(names))
	for _, name := range names {
		day, ok := weekdaysByName[strings.ToLower(strings.TrimSpace(name))]
		if !ok {
			return nil, fmt.Errorf("unknown weekday %q", name)
		}
		out = append(out, day)
	}
	return out, nil
}
