package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"fieldreport/internal/classify"
	"fieldreport/internal/ingest"
	"fieldreport/internal/report"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
	"gopkg.in/yaml.v3"
)

const defaultExternalHTTPTimeout = 90 * time.Second
const defaultExternalHTTPTimeoutSeconds = int(defaultExternalHTTPTimeout / time.Second)

type Config struct {
	SlackToken       string   `yaml:"slack_token"`
	ReportChannelID  string   `yaml:"report_channel_id"`
	NotifyUsers      []string `yaml:"notify_users"`
	SlackChannels    []string `yaml:"slack_channels"`
	SlackMaxRetries  int      `yaml:"slack_max_retries"`
	SlackConcurrency int      `yaml:"slack_concurrency"`

	OutputDir     string   `yaml:"output_dir"`
	ReportFormats []string `yaml:"report_formats"`
	DBPath        string   `yaml:"db_path"`
	LogDir        string   `yaml:"log_dir"`

	ExternalHTTPTimeoutSeconds int `yaml:"external_http_timeout_seconds"`
	HTTPMaxRetries             int `yaml:"http_max_retries"`

	SourceURL         string `yaml:"source_url"`
	SourceFile        string `yaml:"source_file"`
	TerritorySchedule string `yaml:"territory_schedule"`
	WatchSourceFile   bool   `yaml:"watch_source_file"`
	SynonymsPath      string `yaml:"synonyms_path"`

	POIIDColumn        string  `yaml:"poi_id_column"`
	POISurveyorColumn  string  `yaml:"poi_surveyor_column"`
	POITimestampColumn string  `yaml:"poi_timestamp_column"`
	POIQualityColumn   string  `yaml:"poi_quality_column"`
	TierSilverMin      float64 `yaml:"tier_silver_min"`
	TierGoldMin        float64 `yaml:"tier_gold_min"`

	Timezone string         `yaml:"timezone"`
	Location *time.Location `yaml:"-"`
}

// Load reads .env, then the YAML file named by CONFIG_PATH (default
// config.yaml, optional), then environment overrides, and validates the result.
func Load() (Config, error) {
	return LoadPath("")
}

// LoadPath is Load with an explicit YAML path. An explicit path must exist.
func LoadPath(path string) (Config, error) {
	if err := godotenv.Load(); err == nil {
		log.Debug().Msg("loaded .env from working directory")
	}

	var cfg Config
	configPath, explicit := path, path != ""
	if !explicit {
		configPath = "config.yaml"
		if envPath := os.Getenv("CONFIG_PATH"); envPath != "" {
			configPath = envPath
		}
	}
	if data, err := os.ReadFile(configPath); err == nil {
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("parse %s: %w", configPath, err)
		}
		log.Debug().Str("path", configPath).Msg("loaded config")
	} else if explicit || !errors.Is(err, os.ErrNotExist) {
		return Config{}, fmt.Errorf("read %s: %w", configPath, err)
	}

	var errs []error
	envOverride(&cfg.SlackToken, "SLACK_TOKEN")
	envOverride(&cfg.ReportChannelID, "REPORT_CHANNEL_ID")
	envOverrideList(&cfg.NotifyUsers, "NOTIFY_USERS")
	envOverrideList(&cfg.SlackChannels, "SLACK_CHANNELS")
	errs = append(errs, envOverrideInt(&cfg.SlackMaxRetries, "SLACK_MAX_RETRIES"))
	errs = append(errs, envOverrideInt(&cfg.SlackConcurrency, "SLACK_CONCURRENCY"))
	envOverride(&cfg.OutputDir, "OUTPUT_DIR")
	envOverrideList(&cfg.ReportFormats, "REPORT_FORMATS")
	envOverride(&cfg.DBPath, "DB_PATH")
	envOverrideAllowEmpty(&cfg.LogDir, "LOG_DIR")
	errs = append(errs, envOverrideInt(&cfg.ExternalHTTPTimeoutSeconds, "EXTERNAL_HTTP_TIMEOUT_SECONDS"))
	errs = append(errs, envOverrideInt(&cfg.HTTPMaxRetries, "HTTP_MAX_RETRIES"))
	envOverride(&cfg.SourceURL, "SOURCE_URL")
	envOverride(&cfg.SourceFile, "SOURCE_FILE")
	envOverride(&cfg.TerritorySchedule, "TERRITORY_SCHEDULE")
	envOverrideBool(&cfg.WatchSourceFile, "WATCH_SOURCE_FILE")
	envOverride(&cfg.SynonymsPath, "SYNONYMS_PATH")
	envOverride(&cfg.POIIDColumn, "POI_ID_COLUMN")
	envOverride(&cfg.POISurveyorColumn, "POI_SURVEYOR_COLUMN")
	envOverride(&cfg.POITimestampColumn, "POI_TIMESTAMP_COLUMN")
	envOverride(&cfg.POIQualityColumn, "POI_QUALITY_COLUMN")
	errs = append(errs, envOverrideFloat(&cfg.TierSilverMin, "TIER_SILVER_MIN"))
	errs = append(errs, envOverrideFloat(&cfg.TierGoldMin, "TIER_GOLD_MIN"))
	envOverride(&cfg.Timezone, "TIMEZONE")
	if err := errors.Join(errs...); err != nil {
		return Config{}, err
	}

	applyDefaults(&cfg)
	if err := cfg.validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func applyDefaults(cfg *Config) {
	if cfg.OutputDir == "" {
		cfg.OutputDir = "./reports"
	}
	if cfg.DBPath == "" {
		cfg.DBPath = "./fieldreport.db"
	}
	if cfg.ExternalHTTPTimeoutSeconds <= 0 {
		cfg.ExternalHTTPTimeoutSeconds = defaultExternalHTTPTimeoutSeconds
	}
	if cfg.HTTPMaxRetries <= 0 {
		cfg.HTTPMaxRetries = 3
	}
	if cfg.SlackMaxRetries <= 0 {
		cfg.SlackMaxRetries = 3
	}
	if cfg.SlackConcurrency <= 0 {
		cfg.SlackConcurrency = 4
	}
	if cfg.TierSilverMin == 0 && cfg.TierGoldMin == 0 {
		cfg.TierSilverMin = classify.DefaultSilverMin
		cfg.TierGoldMin = classify.DefaultGoldMin
	}
	if cfg.Timezone == "" {
		cfg.Timezone = "Local"
	}
}

func (c *Config) validate() error {
	if strings.EqualFold(c.Timezone, "Local") {
		c.Location = time.Local
	} else {
		loc, err := time.LoadLocation(c.Timezone)
		if err != nil {
			return fmt.Errorf("invalid timezone '%s': %w", c.Timezone, err)
		}
		c.Location = loc
	}

	if c.TierSilverMin < 0 || c.TierGoldMin > 1 || c.TierSilverMin >= c.TierGoldMin {
		return fmt.Errorf("invalid tier thresholds silver=%v gold=%v: need 0 <= silver < gold <= 1", c.TierSilverMin, c.TierGoldMin)
	}

	formats, err := report.ParseFormats(c.ReportFormats)
	if err != nil {
		return err
	}
	c.ReportFormats = formats

	if c.SynonymsPath != "" {
		if _, err := ingest.LoadSynonymFile(c.SynonymsPath); err != nil {
			return fmt.Errorf("invalid synonyms_path '%s': %w", c.SynonymsPath, err)
		}
	}
	return nil
}

// RequireSlack reports a missing token for commands that talk to Slack.
func (c Config) RequireSlack() error {
	if c.SlackToken == "" {
		return errors.New("slack_token is not set (via config.yaml or SLACK_TOKEN)")
	}
	return nil
}

func (c Config) POIColumns() ingest.Columns {
	return ingest.Columns{
		ID:        c.POIIDColumn,
		Surveyor:  c.POISurveyorColumn,
		Timestamp: c.POITimestampColumn,
		Quality:   c.POIQualityColumn,
	}
}

// Synonyms returns the default synonym table extended by synonyms_path.
func (c Config) Synonyms() (ingest.Synonyms, error) {
	syn := ingest.DefaultSynonyms()
	if c.SynonymsPath == "" {
		return syn, nil
	}
	extra, err := ingest.LoadSynonymFile(c.SynonymsPath)
	if err != nil {
		return ingest.Synonyms{}, err
	}
	return syn.WithExtra(extra), nil
}

func envOverride(field *string, envKey string) {
	if val := os.Getenv(envKey); val != "" {
		*field = val
	}
}

func envOverrideAllowEmpty(field *string, envKey string) {
	if val, ok := os.LookupEnv(envKey); ok {
		*field = val
	}
}

func envOverrideList(field *[]string, envKey string) {
	val := os.Getenv(envKey)
	if val == "" {
		return
	}
	*field = nil
	for _, item := range strings.Split(val, ",") {
		if item = strings.TrimSpace(item); item != "" {
			*field = append(*field, item)
		}
	}
}

func envOverrideInt(field *int, envKey string) error {
	if val := os.Getenv(envKey); val != "" {
		parsed, err := strconv.Atoi(val)
		if err != nil {
			return fmt.Errorf("invalid %s '%s': %w", envKey, val, err)
		}
		*field = parsed
	}
	return nil
}

func envOverrideBool(field *bool, envKey string) {
	if val := os.Getenv(envKey); val != "" {
		*field = strings.EqualFold(val, "true") || val == "1"
	}
}

func envOverrideFloat(field *float64, envKey string) error {
	if val := os.Getenv(envKey); val != "" {
		parsed, err := strconv.ParseFloat(val, 64)
		if err != nil {
			return fmt.Errorf("invalid %s '%s': %w", envKey, val, err)
		}
		*field = parsed
	}
	return nil
}
