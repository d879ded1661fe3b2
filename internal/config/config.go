package config

import (
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config holds the full application configuration.
type Config struct {
	State     StateConfig      `yaml:"state" mapstructure:"state"`
	Store     StoreConfig      `yaml:"store" mapstructure:"store"`
	Jina      JinaConfig       `yaml:"jina" mapstructure:"jina"`
	Anthropic AnthropicConfig  `yaml:"anthropic" mapstructure:"anthropic"`
	Research  ResearchConfig   `yaml:"research" mapstructure:"research"`
	Pipeline  PipelineConfig   `yaml:"pipeline" mapstructure:"pipeline"`
	Outreach  OutreachConfig   `yaml:"outreach" mapstructure:"outreach"`
	Mail      MailConfig       `yaml:"mail" mapstructure:"mail"`
	Sender    SenderConfig     `yaml:"sender" mapstructure:"sender"`
	Followup  FollowupConfig   `yaml:"followup" mapstructure:"followup"`
	Replies   RepliesConfig    `yaml:"replies" mapstructure:"replies"`
	Telegram  TelegramConfig   `yaml:"telegram" mapstructure:"telegram"`
	Notion    NotionConfig     `yaml:"notion" mapstructure:"notion"`
	Server    ServerConfig     `yaml:"server" mapstructure:"server"`
	Monitor   MonitoringConfig `yaml:"monitor" mapstructure:"monitor"`
	Log       LogConfig        `yaml:"log" mapstructure:"log"`
}

// StateConfig locates the pipeline's on-disk state files.
type StateConfig struct {
	Dir string `yaml:"dir" mapstructure:"dir"`
}

// StoreConfig configures the optional research cache database. An empty
// driver disables caching.
type StoreConfig struct {
	Driver      string `yaml:"driver" mapstructure:"driver"`
	DatabaseURL string `yaml:"database_url" mapstructure:"database_url"`
	TTLHours    int    `yaml:"ttl_hours" mapstructure:"ttl_hours"`
}

// JinaConfig holds Jina AI search settings.
type JinaConfig struct {
	Key           string `yaml:"key" mapstructure:"key"`
	SearchBaseURL string `yaml:"search_base_url" mapstructure:"search_base_url"`
}

// AnthropicConfig holds Anthropic API settings.
type AnthropicConfig struct {
	Key   string `yaml:"key" mapstructure:"key"`
	Model string `yaml:"model" mapstructure:"model"`
}

// ResearchConfig configures the contact research phase.
type ResearchConfig struct {
	MaxCompanies       int `yaml:"max_companies" mapstructure:"max_companies"`
	MaxContactsPerFirm int `yaml:"max_contacts_per_firm" mapstructure:"max_contacts_per_firm"`
	SearchRPS          int `yaml:"search_rps" mapstructure:"search_rps"`
}

// PipelineConfig configures lead ingest and ranking.
type PipelineConfig struct {
	Input    string `yaml:"input" mapstructure:"input"`
	MaxLeads int    `yaml:"max_leads" mapstructure:"max_leads"`
	TopN     int    `yaml:"top_n" mapstructure:"top_n"`
}

// OutreachConfig configures draft generation.
type OutreachConfig struct {
	DraftDir              string `yaml:"draft_dir" mapstructure:"draft_dir"`
	SuppressionWindowDays int    `yaml:"suppression_window_days" mapstructure:"suppression_window_days"`
}

// MailConfig holds the shared SMTP and IMAP endpoints plus the sending
// identities.
type MailConfig struct {
	SMTPHost   string           `yaml:"smtp_host" mapstructure:"smtp_host"`
	SMTPPort   int              `yaml:"smtp_port" mapstructure:"smtp_port"`
	IMAPHost   string           `yaml:"imap_host" mapstructure:"imap_host"`
	IMAPPort   int              `yaml:"imap_port" mapstructure:"imap_port"`
	CC         []string         `yaml:"cc" mapstructure:"cc"`
	Identities []IdentityConfig `yaml:"identities" mapstructure:"identities"`
}

// IdentityConfig is one sending account.
type IdentityConfig struct {
	Name     string `yaml:"name" mapstructure:"name"`
	From     string `yaml:"from" mapstructure:"from"`
	Username string `yaml:"username" mapstructure:"username"`
	Password string `yaml:"password" mapstructure:"password"`
}

// SenderConfig configures daily send behavior.
type SenderConfig struct {
	DailyCap   int    `yaml:"daily_cap" mapstructure:"daily_cap"`
	LedgerPath string `yaml:"ledger_path" mapstructure:"ledger_path"`
	Attachment string `yaml:"attachment" mapstructure:"attachment"`
}

// FollowupConfig configures the single follow-up nudge.
type FollowupConfig struct {
	WaitDays int `yaml:"wait_days" mapstructure:"wait_days"`
}

// RepliesConfig configures inbox scanning.
type RepliesConfig struct {
	LookbackDays int `yaml:"lookback_days" mapstructure:"lookback_days"`
}

// TelegramConfig holds the notifier bot credentials. Empty values
// disable notifications.
type TelegramConfig struct {
	Token  string `yaml:"token" mapstructure:"token"`
	ChatID string `yaml:"chat_id" mapstructure:"chat_id"`
}

// NotionConfig holds Notion API credentials for the lead export.
type NotionConfig struct {
	Token  string `yaml:"token" mapstructure:"token"`
	LeadDB string `yaml:"lead_db" mapstructure:"lead_db"`
}

// MonitoringConfig configures outreach health checks and alert
// delivery. A zero threshold disables the corresponding alert.
type MonitoringConfig struct {
	WebhookURL         string  `yaml:"webhook_url" mapstructure:"webhook_url"`
	CheckIntervalSecs  int     `yaml:"check_interval_secs" mapstructure:"check_interval_secs"`
	FollowupBacklogMax int     `yaml:"followup_backlog_max" mapstructure:"followup_backlog_max"`
	MinReplyRate       float64 `yaml:"min_reply_rate" mapstructure:"min_reply_rate"`
	DraftBacklogMax    int     `yaml:"draft_backlog_max" mapstructure:"draft_backlog_max"`
}

// ServerConfig configures the status dashboard server.
type ServerConfig struct {
	Port int `yaml:"port" mapstructure:"port"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// SuppressionWindow returns the configured suppression window.
func (c OutreachConfig) SuppressionWindow() time.Duration {
	return time.Duration(c.SuppressionWindowDays) * 24 * time.Hour
}

// FollowupWait returns how long to wait before the follow-up nudge.
func (c FollowupConfig) FollowupWait() time.Duration {
	return time.Duration(c.WaitDays) * 24 * time.Hour
}

// Load reads configuration from file and environment.
func Load() (*Config, error) {
	v := viper.New()

	// Config file
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	// Environment
	v.SetEnvPrefix("OUTREACH")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("state.dir", "state")
	v.SetDefault("store.driver", "")
	v.SetDefault("store.ttl_hours", 7*24)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
	v.SetDefault("server.port", 8080)
	v.SetDefault("jina.search_base_url", "https://s.jina.ai")
	v.SetDefault("anthropic.model", "claude-haiku-4-5-20251001")
	v.SetDefault("research.max_companies", 150)
	v.SetDefault("research.max_contacts_per_firm", 3)
	v.SetDefault("research.search_rps", 2)
	v.SetDefault("pipeline.input", "leads.json")
	v.SetDefault("pipeline.max_leads", 500)
	v.SetDefault("pipeline.top_n", 100)
	v.SetDefault("outreach.draft_dir", "outbound")
	v.SetDefault("outreach.suppression_window_days", 60)
	v.SetDefault("mail.smtp_port", 587)
	v.SetDefault("mail.imap_port", 993)
	v.SetDefault("sender.daily_cap", 40)
	v.SetDefault("sender.ledger_path", "state/sent_log.csv")
	v.SetDefault("followup.wait_days", 4)
	v.SetDefault("replies.lookback_days", 7)
	v.SetDefault("monitor.check_interval_secs", 300)
	v.SetDefault("monitor.followup_backlog_max", 25)
	v.SetDefault("monitor.min_reply_rate", 0.02)
	v.SetDefault("monitor.draft_backlog_max", 200)

	// Read config file (optional)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, eris.Wrap(err, "config: read file")
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, eris.Wrap(err, "config: unmarshal")
	}

	return &cfg, nil
}

// InitLogger initializes the global zap logger.
func InitLogger(cfg LogConfig) error {
	var zapCfg zap.Config
	if cfg.Format == "console" {
		zapCfg = zap.NewDevelopmentConfig()
	} else {
		zapCfg = zap.NewProductionConfig()
	}

	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return eris.Wrap(err, "config: parse log level")
	}
	zapCfg.Level.SetLevel(level)

	logger, err := zapCfg.Build()
	if err != nil {
		return eris.Wrap(err, "config: build logger")
	}
	zap.ReplaceGlobals(logger)

	return nil
}
