package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"dario.cat/mergo"
	"github.com/joho/godotenv"
	"github.com/robfig/cron/v3"
	"gopkg.in/yaml.v3"

	"PublicationsMonitor/internal/domain"
)

// ErrInvalid marks configuration problems that prevent the monitor from starting.
var ErrInvalid = errors.New("invalid configuration")

const (
	defaultTimezone = "Europe/Paris"
	defaultEnvFile  = "credentials/.env"

	configPathEnv      = "PUBLICATIONS_MONITOR_CONFIG"
	emailToEnv         = "EMAIL_TO"
	gmailToEnv         = "GMAIL_TO"
	emailFromEnv       = "EMAIL_FROM"
	smtpHostEnv        = "SMTP_HOST"
	smtpPortEnv        = "SMTP_PORT"
	smtpUsernameEnv    = "SMTP_USERNAME"
	smtpPasswordEnv    = "SMTP_PASSWORD"
	telegramTokenEnv   = "TELEGRAM_BOT_TOKEN"
	telegramChatIDEnv  = "TELEGRAM_CHAT_ID"
	publicationsURLEnv = "PUBLICATIONS_URL"
	statePathEnv       = "STATE_PATH"
	logLevelEnv        = "LOG_LEVEL"
)

// Storage backends.
const (
	BackendJSON   = "json"
	BackendSQLite = "sqlite"
)

// Config holds high-level settings required across the application.
type Config struct {
	Source        SourceConfig       `yaml:"source"`
	Scheduler     SchedulerConfig    `yaml:"scheduler"`
	Storage       StorageConfig      `yaml:"storage"`
	Dedupe        DedupeConfig       `yaml:"dedupe"`
	Notifications NotificationConfig `yaml:"notifications"`
	Logging       LoggingConfig      `yaml:"logging"`
	Prompt        PromptConfig       `yaml:"prompt"`

	// EnvFile is an optional dotenv file holding credentials.
	EnvFile string `yaml:"envFile"`
}

// SourceConfig describes the monitored page.
type SourceConfig struct {
	Name      string        `yaml:"name"`
	URL       string        `yaml:"url"`
	UserAgent string        `yaml:"userAgent"`
	Timeout   time.Duration `yaml:"timeout"`
}

// SchedulerConfig defines when the check should run.
type SchedulerConfig struct {
	CronExpression string         `yaml:"cronExpression"`
	Timezone       string         `yaml:"timezone"`
	location       *time.Location `yaml:"-"`
}

// Location resolves the scheduler timezone string to a time.Location.
func (s SchedulerConfig) Location() *time.Location {
	if s.location != nil {
		return s.location
	}
	if loc, err := time.LoadLocation(s.Timezone); err == nil && s.Timezone != "" {
		return loc
	}
	return time.UTC
}

// StorageConfig selects the known-publications backend.
type StorageConfig struct {
	Backend string `yaml:"backend"`
	Path    string `yaml:"path"`
}

// DedupeConfig controls filtering against the known publications.
type DedupeConfig struct {
	Mode domain.DedupeMode `yaml:"mode"`
}

// NotificationConfig encapsulates outbound channels.
type NotificationConfig struct {
	Email    EmailConfig    `yaml:"email"`
	Telegram TelegramConfig `yaml:"telegram"`
}

// EmailConfig wires the SMTP relay.
type EmailConfig struct {
	To       Recipients `yaml:"to"`
	From     string     `yaml:"from"`
	SMTPHost string     `yaml:"smtpHost"`
	SMTPPort int        `yaml:"smtpPort"`
	Username string     `yaml:"username"`
	Password string     `yaml:"password"`
}

// Enabled reports whether the operator set up the mail channel at all.
func (e EmailConfig) Enabled() bool {
	return len(e.To) > 0 || e.Password != ""
}

// TelegramConfig wires all data required to send messages.
type TelegramConfig struct {
	BotToken string `yaml:"botToken"`
	ChatID   string `yaml:"chatId"`
}

// Enabled reports whether the operator set up the Telegram channel at all.
func (t TelegramConfig) Enabled() bool {
	return t.BotToken != "" || t.ChatID != ""
}

// ChatIDValue parses the numeric chat identifier.
func (t TelegramConfig) ChatIDValue() (int64, error) {
	id, err := strconv.ParseInt(strings.TrimSpace(t.ChatID), 10, 64)
	if err != nil {
		return 0, fmt.Errorf("telegram chatId %q: %w", t.ChatID, err)
	}
	return id, nil
}

// LoggingConfig controls the process logger.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// PromptConfig controls the interactive operator prompt.
type PromptConfig struct {
	Disabled bool `yaml:"disabled"`
}

// Recipients accepts either a YAML list or a comma-separated string.
type Recipients []string

// UnmarshalYAML implements yaml.Unmarshaler.
func (r *Recipients) UnmarshalYAML(node *yaml.Node) error {
	switch node.Kind {
	case yaml.ScalarNode:
		*r = splitRecipients(node.Value)
		return nil
	case yaml.SequenceNode:
		var list []string
		if err := node.Decode(&list); err != nil {
			return err
		}
		*r = splitRecipients(strings.Join(list, ","))
		return nil
	default:
		return fmt.Errorf("recipients: unsupported yaml node at line %d", node.Line)
	}
}

func splitRecipients(raw string) Recipients {
	var out Recipients
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// Load builds the configuration: defaults, then the YAML file at path (or
// $PUBLICATIONS_MONITOR_CONFIG), then the dotenv file, then the process
// environment. The result is not validated.
func Load(path string) (Config, error) {
	cfg := defaultConfig()

	if path == "" {
		path = os.Getenv(configPathEnv)
	}
	if path != "" {
		raw, err := os.ReadFile(path)
		if err != nil {
			return cfg, fmt.Errorf("read config %s: %w", path, err)
		}
		var fileCfg Config
		if err := yaml.Unmarshal(raw, &fileCfg); err != nil {
			return cfg, fmt.Errorf("parse config %s: %w", path, err)
		}
		if err := mergo.Merge(&cfg, fileCfg, mergo.WithOverride); err != nil {
			return cfg, fmt.Errorf("merge config %s: %w", path, err)
		}
	}

	dotenv, err := readEnvFile(cfg.EnvFile)
	if err != nil {
		return cfg, err
	}

	cfg.applyEnvOverrides(func(key string) (string, bool) {
		if v, ok := os.LookupEnv(key); ok && v != "" {
			return v, true
		}
		v, ok := dotenv[key]
		return v, ok && v != ""
	})
	cfg.bindTimezone()

	return cfg, nil
}

func readEnvFile(path string) (map[string]string, error) {
	if path == "" {
		return nil, nil
	}
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	values, err := godotenv.Read(path)
	if err != nil {
		return nil, fmt.Errorf("read env file %s: %w", path, err)
	}
	return values, nil
}

func (c *Config) applyEnvOverrides(lookup func(string) (string, bool)) {
	if v, ok := lookup(gmailToEnv); ok {
		c.Notifications.Email.To = splitRecipients(v)
	}
	if v, ok := lookup(emailToEnv); ok {
		c.Notifications.Email.To = splitRecipients(v)
	}
	if v, ok := lookup(emailFromEnv); ok {
		c.Notifications.Email.From = v
	}
	if v, ok := lookup(smtpHostEnv); ok {
		c.Notifications.Email.SMTPHost = v
	}
	if v, ok := lookup(smtpPortEnv); ok {
		if port, err := strconv.Atoi(v); err == nil {
			c.Notifications.Email.SMTPPort = port
		}
	}
	if v, ok := lookup(smtpUsernameEnv); ok {
		c.Notifications.Email.Username = v
	}
	if v, ok := lookup(smtpPasswordEnv); ok {
		c.Notifications.Email.Password = v
	}

	if v, ok := lookup(telegramTokenEnv); ok {
		c.Notifications.Telegram.BotToken = v
	}
	if v, ok := lookup(telegramChatIDEnv); ok {
		c.Notifications.Telegram.ChatID = v
	}

	if v, ok := lookup(publicationsURLEnv); ok {
		c.Source.URL = v
	}
	if v, ok := lookup(statePathEnv); ok {
		c.Storage.Path = v
	}
	if v, ok := lookup(logLevelEnv); ok {
		c.Logging.Level = v
	}
}

func (c *Config) bindTimezone() {
	if loc, err := time.LoadLocation(c.Scheduler.Timezone); err == nil && c.Scheduler.Timezone != "" {
		c.Scheduler.location = loc
	}
}

// Validate reports every problem found, each wrapping ErrInvalid.
func (c Config) Validate() error {
	var errs []error
	invalid := func(format string, args ...any) {
		errs = append(errs, fmt.Errorf("%w: %s", ErrInvalid, fmt.Sprintf(format, args...)))
	}

	if strings.TrimSpace(c.Source.URL) == "" {
		invalid("source.url is empty")
	}
	if c.Source.Timeout < 0 {
		invalid("source.timeout must not be negative")
	}
	if c.Scheduler.Timezone == "" {
		invalid("scheduler.timezone is empty")
	} else if _, err := time.LoadLocation(c.Scheduler.Timezone); err != nil {
		invalid("scheduler.timezone %q: %v", c.Scheduler.Timezone, err)
	}
	if _, err := cron.ParseStandard(c.Scheduler.CronExpression); err != nil {
		invalid("scheduler.cronExpression %q: %v", c.Scheduler.CronExpression, err)
	}
	if err := c.validateStorage(); err != nil {
		errs = append(errs, err)
	}
	if !c.Dedupe.Mode.Valid() {
		invalid("dedupe.mode %q is not one of %s, %s", c.Dedupe.Mode, domain.DedupeFilterSeen, domain.DedupeNeverFilter)
	}

	email, telegram := c.Notifications.Email, c.Notifications.Telegram
	if !email.Enabled() && !telegram.Enabled() {
		invalid("no notification channel configured (email or telegram)")
	}
	if email.Enabled() {
		if len(email.To) == 0 {
			invalid("notifications.email.to is empty")
		}
		if email.SMTPHost == "" {
			invalid("notifications.email.smtpHost is empty")
		}
		if email.Password == "" {
			invalid("notifications.email.password is empty")
		}
	}
	if telegram.Enabled() {
		if telegram.BotToken == "" {
			invalid("notifications.telegram.botToken is empty")
		}
		if _, err := telegram.ChatIDValue(); err != nil {
			invalid("notifications.telegram.chatId must be numeric")
		}
	}

	return errors.Join(errs...)
}

// ValidateStorage checks only the settings needed to open the known store.
func (c Config) ValidateStorage() error {
	return c.validateStorage()
}

func (c Config) validateStorage() error {
	switch c.Storage.Backend {
	case BackendJSON, BackendSQLite:
	default:
		return fmt.Errorf("%w: storage.backend %q is not one of %s, %s", ErrInvalid, c.Storage.Backend, BackendJSON, BackendSQLite)
	}
	if c.Storage.Path == "" {
		return fmt.Errorf("%w: storage.path is empty", ErrInvalid)
	}
	return nil
}

func defaultConfig() Config {
	tz, _ := time.LoadLocation(defaultTimezone)
	return Config{
		Source: SourceConfig{
			Name:    "Banque de France",
			URL:     "https://www.banque-france.fr/en/publications-and-statistics/publications",
			Timeout: 30 * time.Second,
		},
		Scheduler: SchedulerConfig{CronExpression: "0 7 * * *", Timezone: defaultTimezone, location: tz},
		Storage:   StorageConfig{Backend: BackendJSON, Path: "bdf_known_publications.json"},
		Dedupe:    DedupeConfig{Mode: domain.DedupeFilterSeen},
		Notifications: NotificationConfig{
			Email: EmailConfig{SMTPHost: "smtp.gmail.com", SMTPPort: 587},
		},
		Logging: LoggingConfig{Level: "info", Format: "text"},
		EnvFile: defaultEnvFile,
	}
}
