package config

import (
	"time"
)

// Version is set at build time via ldflags.
var Version = "dev"

// Config is the root configuration for cafepulse.
type Config struct {
	Disabled  bool            `mapstructure:"disabled"  yaml:"disabled"`
	Portal    PortalConfig    `mapstructure:"portal"    yaml:"portal"`
	Remote    RemoteConfig    `mapstructure:"remote"    yaml:"remote"`
	Browser   BrowserConfig   `mapstructure:"browser"   yaml:"browser"`
	Auth      AuthConfig      `mapstructure:"auth"      yaml:"auth"`
	Ranking   RankingConfig   `mapstructure:"ranking"   yaml:"ranking"`
	Collector CollectorConfig `mapstructure:"collector" yaml:"collector"`
	Server    ServerConfig    `mapstructure:"server"    yaml:"server"`
	Logging   LoggingConfig   `mapstructure:"logging"   yaml:"logging"`
	Metrics   MetricsConfig   `mapstructure:"metrics"   yaml:"metrics"`
}

// PortalConfig describes the community being watched and its public listing.
type PortalConfig struct {
	CafeID        string        `mapstructure:"cafe_id"        yaml:"cafe_id"`
	ListURL       string        `mapstructure:"list_url"       yaml:"list_url"`
	PageSize      int           `mapstructure:"page_size"      yaml:"page_size"`
	NicknameLimit int           `mapstructure:"nickname_limit" yaml:"nickname_limit"`
	Timeout       time.Duration `mapstructure:"timeout"        yaml:"timeout"`
	MaxBodySize   int64         `mapstructure:"max_body_size"  yaml:"max_body_size"`
	UserAgent     string        `mapstructure:"user_agent"     yaml:"user_agent"`
}

// RemoteConfig points at a hosted browser service reachable over CDP.
// An empty Domain disables the remote path.
type RemoteConfig struct {
	Domain         string        `mapstructure:"domain"          yaml:"domain"`
	Token          string        `mapstructure:"token"           yaml:"token"`
	WSPath         string        `mapstructure:"ws_path"         yaml:"ws_path"`
	CreateSession  bool          `mapstructure:"create_session"  yaml:"create_session"`
	SessionTTL     time.Duration `mapstructure:"session_ttl"     yaml:"session_ttl"`
	ConnectTimeout time.Duration `mapstructure:"connect_timeout" yaml:"connect_timeout"`
	Insecure       bool          `mapstructure:"insecure"        yaml:"insecure"`
}

// Configured reports whether a remote endpoint has been set.
func (r RemoteConfig) Configured() bool { return r.Domain != "" }

// BrowserConfig controls the browsing context opened for each session.
type BrowserConfig struct {
	Headless          bool          `mapstructure:"headless"           yaml:"headless"`
	Stealth           bool          `mapstructure:"stealth"            yaml:"stealth"`
	Bin               string        `mapstructure:"bin"                yaml:"bin"`
	ViewportWidth     int           `mapstructure:"viewport_width"     yaml:"viewport_width"`
	ViewportHeight    int           `mapstructure:"viewport_height"    yaml:"viewport_height"`
	UserAgent         string        `mapstructure:"user_agent"         yaml:"user_agent"`
	NavigationTimeout time.Duration `mapstructure:"navigation_timeout" yaml:"navigation_timeout"`
}

// AuthConfig controls the login handshake.
type AuthConfig struct {
	Username       string        `mapstructure:"username"        yaml:"username"`
	Password       string        `mapstructure:"password"        yaml:"password"`
	LoginURL       string        `mapstructure:"login_url"       yaml:"login_url"`
	IDSelector     string        `mapstructure:"id_selector"     yaml:"id_selector"`
	PWSelector     string        `mapstructure:"pw_selector"     yaml:"pw_selector"`
	SubmitSelector string        `mapstructure:"submit_selector" yaml:"submit_selector"`
	TargetDomain   string        `mapstructure:"target_domain"   yaml:"target_domain"`
	Markers        []string      `mapstructure:"markers"         yaml:"markers"`
	FormTimeout    time.Duration `mapstructure:"form_timeout"    yaml:"form_timeout"`
	TypePause      time.Duration `mapstructure:"type_pause"      yaml:"type_pause"`
	SubmitPause    time.Duration `mapstructure:"submit_pause"    yaml:"submit_pause"`
	PollInterval   time.Duration `mapstructure:"poll_interval"   yaml:"poll_interval"`
	PollLimit      int           `mapstructure:"poll_limit"      yaml:"poll_limit"`
}

// Configured reports whether both login secrets are present.
func (a AuthConfig) Configured() bool { return a.Username != "" && a.Password != "" }

// RankingConfig controls statistics extraction and row filtering.
type RankingConfig struct {
	StatBaseURL     string        `mapstructure:"stat_base_url"    yaml:"stat_base_url"`
	SettleDelay     time.Duration `mapstructure:"settle_delay"     yaml:"settle_delay"`
	PayloadSelector string        `mapstructure:"payload_selector" yaml:"payload_selector"`
	SelectorType    string        `mapstructure:"selector_type"    yaml:"selector_type"` // css, xpath
	BlockedNames    []string      `mapstructure:"blocked_names"    yaml:"blocked_names"`
	BlockedLevels   []string      `mapstructure:"blocked_levels"   yaml:"blocked_levels"`
	PostLimit       int           `mapstructure:"post_limit"       yaml:"post_limit"`
	CommentLimit    int           `mapstructure:"comment_limit"    yaml:"comment_limit"`
}

// CollectorConfig controls the periodic nickname harvest.
type CollectorConfig struct {
	Interval   time.Duration `mapstructure:"interval"     yaml:"interval"`
	RunOnStart bool          `mapstructure:"run_on_start" yaml:"run_on_start"`
	History    int           `mapstructure:"history"      yaml:"history"`
}

// ServerConfig controls the HTTP control surface.
type ServerConfig struct {
	Port         int           `mapstructure:"port"          yaml:"port"`
	Dashboard    bool          `mapstructure:"dashboard"     yaml:"dashboard"`
	WriteTimeout time.Duration `mapstructure:"write_timeout" yaml:"write_timeout"`
}

// LoggingConfig controls logging behavior.
type LoggingConfig struct {
	Level      string `mapstructure:"level"       yaml:"level"`
	Format     string `mapstructure:"format"      yaml:"format"`
	Output     string `mapstructure:"output"      yaml:"output"` // stderr, stdout or a file path
	MaxSizeMB  int    `mapstructure:"max_size_mb" yaml:"max_size_mb"`
	MaxBackups int    `mapstructure:"max_backups" yaml:"max_backups"`
	MaxAgeDays int    `mapstructure:"max_age_days" yaml:"max_age_days"`
	Compress   bool   `mapstructure:"compress"    yaml:"compress"`
}

// MetricsConfig controls Prometheus metrics.
type MetricsConfig struct {
	Enabled bool   `mapstructure:"enabled" yaml:"enabled"`
	Path    string `mapstructure:"path"    yaml:"path"`
}

// DefaultUserAgent is a desktop Chrome user agent.
const DefaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		Portal: PortalConfig{
			CafeID:        "30169141",
			ListURL:       "https://apis.naver.com/cafe-web/cafe2/ArticleListV2dot1.json",
			PageSize:      50,
			NicknameLimit: 5,
			Timeout:       10 * time.Second,
			MaxBodySize:   5 * 1024 * 1024, // 5MB
			UserAgent:     DefaultUserAgent,
		},
		Remote: RemoteConfig{
			SessionTTL:     5 * time.Minute,
			ConnectTimeout: 30 * time.Second,
		},
		Browser: BrowserConfig{
			Headless:          true,
			Stealth:           true,
			ViewportWidth:     1024,
			ViewportHeight:    768,
			UserAgent:         DefaultUserAgent,
			NavigationTimeout: 30 * time.Second,
		},
		Auth: AuthConfig{
			LoginURL:       "https://nid.naver.com/nidlogin.login",
			IDSelector:     "#id",
			PWSelector:     "#pw",
			SubmitSelector: `#log\.login`,
			TargetDomain:   "naver.com",
			Markers:        []string{"auth", "login"},
			FormTimeout:    10 * time.Second,
			TypePause:      1 * time.Second,
			SubmitPause:    3 * time.Second,
			PollInterval:   2 * time.Second,
			PollLimit:      30,
		},
		Ranking: RankingConfig{
			StatBaseURL:     "https://cafe.stat.naver.com",
			SettleDelay:     2 * time.Second,
			PayloadSelector: "pre",
			SelectorType:    "css",
			BlockedNames:    []string{"수산나"},
			BlockedLevels:   []string{"제휴업체"},
			PostLimit:       5,
			CommentLimit:    3,
		},
		Collector: CollectorConfig{
			Interval:   time.Hour,
			RunOnStart: true,
			History:    10,
		},
		Server: ServerConfig{
			Port:         8080,
			Dashboard:    true,
			WriteTimeout: 5 * time.Minute,
		},
		Logging: LoggingConfig{
			Level:      "info",
			Format:     "text",
			Output:     "stderr",
			MaxSizeMB:  50,
			MaxBackups: 3,
			MaxAgeDays: 14,
		},
		Metrics: MetricsConfig{
			Enabled: true,
			Path:    "/metrics",
		},
	}
}
