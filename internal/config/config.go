// Package config holds the explicit runtime configuration for crmsync.
//
// Values come from the environment (a .env file is loaded best-effort by
// main). Components receive the parts of Config they need at construction
// time; nothing reads process-wide state ad hoc.
package config

import (
	"fmt"
	"os"
	"time"

	"github.com/caarlos0/env/v11"
	"gopkg.in/yaml.v3"
)

// DefaultMaxChunkDays is the widest date window the upstream sales API
// accepts per request.
const DefaultMaxChunkDays = 730

// defaultAestheticProductIDs is the built-in reference set of product IDs
// classified as ESTETICA. Overridable via SEGMENT_FILE.
var defaultAestheticProductIDs = []string{
	"5587176",
	"5554091",
	"5587203",
	"5560445",
	"5588268",
	"5716749",
	"6289449",
	"6289465",
}

// Config is the full runtime configuration.
type Config struct {
	Environment string `env:"ENVIRONMENT" envDefault:"dev"`

	// DBPath overrides the environment-derived database path when set.
	DBPath string `env:"CRM_DB_PATH"`

	// Initial sync bounds (YYYY-MM-DD). Only required when the sale log
	// is empty; validated at that point, not at load time.
	HotmartStartDate string `env:"HOTMART_START_DATE"`
	HotmartEndDate   string `env:"HOTMART_END_DATE"`

	MaxChunkDays int `env:"HOTMART_MAX_CHUNK_DAYS" envDefault:"730"`

	// Hotmart API credentials, consumed by the HTTP client only.
	HotmartClientID     string `env:"HOTMART_CLIENT_ID"`
	HotmartClientSecret string `env:"HOTMART_CLIENT_SECRET"`
	HotmartBasicToken   string `env:"HOTMART_BASIC_TOKEN"`

	// SegmentFile optionally points at a YAML file replacing the built-in
	// aesthetic product-id reference set.
	SegmentFile string `env:"SEGMENT_FILE"`

	// ContactInputDir is where the daily job looks for chat CSV exports.
	ContactInputDir string `env:"MANYCHAT_INPUT_DIR" envDefault:"data/input/manychat"`

	// OutputDir is the root for audience and remarketing CSV exports.
	OutputDir string `env:"CRM_OUTPUT_DIR" envDefault:"data/output"`

	RemarketingLimit    int `env:"REMARKETING_LIMIT" envDefault:"50"`
	RemarketingCooldown int `env:"REMARKETING_COOLDOWN_DAYS" envDefault:"30"`

	// AestheticProductIDs is resolved by Load from the default set or
	// SegmentFile; it has no env binding of its own.
	AestheticProductIDs []string `env:"-"`
}

// Load parses the environment into a Config and resolves the aesthetic
// product-id reference set.
func Load() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse environment: %w", err)
	}

	cfg.AestheticProductIDs = defaultAestheticProductIDs
	if cfg.SegmentFile != "" {
		ids, err := loadSegmentFile(cfg.SegmentFile)
		if err != nil {
			return Config{}, err
		}
		cfg.AestheticProductIDs = ids
	}

	return cfg, nil
}

// DatabasePath returns the configured database path, falling back to the
// environment-derived default (crm_prd.sqlite in prd, crm_dev.sqlite
// otherwise).
func (c Config) DatabasePath() string {
	if c.DBPath != "" {
		return c.DBPath
	}
	if c.IsPrd() {
		return "crm_prd.sqlite"
	}
	return "crm_dev.sqlite"
}

// IsPrd reports whether the environment is production.
func (c Config) IsPrd() bool {
	return c.Environment == "prd"
}

// InitialSyncWindow parses the configured initial-sync bounds. Both bounds
// must be present and well-formed; the caller treats a failure here as
// fatal (the alternative would be silently fetching an unbounded range).
func (c Config) InitialSyncWindow() (start, end time.Time, err error) {
	if c.HotmartStartDate == "" || c.HotmartEndDate == "" {
		return time.Time{}, time.Time{}, fmt.Errorf(
			"HOTMART_START_DATE and HOTMART_END_DATE must be set for the initial sync")
	}

	start, err = time.Parse("2006-01-02", c.HotmartStartDate)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("parse HOTMART_START_DATE: %w", err)
	}
	end, err = time.Parse("2006-01-02", c.HotmartEndDate)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("parse HOTMART_END_DATE: %w", err)
	}
	if end.Before(start) {
		return time.Time{}, time.Time{}, fmt.Errorf(
			"HOTMART_END_DATE %s is before HOTMART_START_DATE %s",
			c.HotmartEndDate, c.HotmartStartDate)
	}
	return start, end, nil
}

// segmentFile is the YAML shape of a reference-set override file.
type segmentFile struct {
	AestheticProductIDs []string `yaml:"aesthetic_product_ids"`
}

func loadSegmentFile(path string) ([]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read segment file: %w", err)
	}

	var sf segmentFile
	if err := yaml.Unmarshal(data, &sf); err != nil {
		return nil, fmt.Errorf("parse segment file %s: %w", path, err)
	}
	if len(sf.AestheticProductIDs) == 0 {
		return nil, fmt.Errorf("segment file %s defines no aesthetic_product_ids", path)
	}
	return sf.AestheticProductIDs, nil
}
