package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

// legacyEnv maps config keys to the environment variable names the
// deployment platform already provides. They are consulted after the
// CAFEPULSE_-prefixed name.
var legacyEnv = map[string]string{
	"remote.domain":  "BROWSERLESS_PUBLIC_DOMAIN",
	"remote.token":   "BROWSERLESS_TOKEN",
	"auth.username":  "NAVER_ID",
	"auth.password":  "NAVER_PASSWORD",
	"portal.cafe_id": "CAFE_ID",
	"server.port":    "PORT",
}

// Load reads configuration from file, environment, and defaults.
// Priority (highest to lowest): env vars > config file > defaults.
func Load(configPath string) (*Config, error) {
	cfg := DefaultConfig()

	v := viper.New()
	v.SetConfigType("yaml")

	setDefaults(v, cfg)

	v.SetEnvPrefix("CAFEPULSE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	for key, legacy := range legacyEnv {
		prefixed := "CAFEPULSE_" + strings.ToUpper(strings.ReplaceAll(key, ".", "_"))
		if err := v.BindEnv(key, prefixed, legacy); err != nil {
			return nil, fmt.Errorf("bind env %s: %w", legacy, err)
		}
	}

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("cafepulse")
		v.AddConfigPath(".")
		v.AddConfigPath("./configs")
		home, err := os.UserHomeDir()
		if err == nil {
			v.AddConfigPath(filepath.Join(home, ".cafepulse"))
		}
	}

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok && configPath != "" {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		// Config file not found is okay if not explicitly specified
	}

	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	return cfg, nil
}

// setDefaults registers default values in viper so that every key is
// visible to AutomaticEnv.
func setDefaults(v *viper.Viper, cfg *Config) {
	v.SetDefault("disabled", cfg.Disabled)

	v.SetDefault("portal.cafe_id", cfg.Portal.CafeID)
	v.SetDefault("portal.list_url", cfg.Portal.ListURL)
	v.SetDefault("portal.page_size", cfg.Portal.PageSize)
	v.SetDefault("portal.nickname_limit", cfg.Portal.NicknameLimit)
	v.SetDefault("portal.timeout", cfg.Portal.Timeout)
	v.SetDefault("portal.max_body_size", cfg.Portal.MaxBodySize)
	v.SetDefault("portal.user_agent", cfg.Portal.UserAgent)

	v.SetDefault("remote.domain", cfg.Remote.Domain)
	v.SetDefault("remote.token", cfg.Remote.Token)
	v.SetDefault("remote.ws_path", cfg.Remote.WSPath)
	v.SetDefault("remote.create_session", cfg.Remote.CreateSession)
	v.SetDefault("remote.session_ttl", cfg.Remote.SessionTTL)
	v.SetDefault("remote.connect_timeout", cfg.Remote.ConnectTimeout)
	v.SetDefault("remote.insecure", cfg.Remote.Insecure)

	v.SetDefault("browser.headless", cfg.Browser.Headless)
	v.SetDefault("browser.stealth", cfg.Browser.Stealth)
	v.SetDefault("browser.bin", cfg.Browser.Bin)
	v.SetDefault("browser.viewport_width", cfg.Browser.ViewportWidth)
	v.SetDefault("browser.viewport_height", cfg.Browser.ViewportHeight)
	v.SetDefault("browser.user_agent", cfg.Browser.UserAgent)
	v.SetDefault("browser.navigation_timeout", cfg.Browser.NavigationTimeout)

	v.SetDefault("auth.username", cfg.Auth.Username)
	v.SetDefault("auth.password", cfg.Auth.Password)
	v.SetDefault("auth.login_url", cfg.Auth.LoginURL)
	v.SetDefault("auth.id_selector", cfg.Auth.IDSelector)
	v.SetDefault("auth.pw_selector", cfg.Auth.PWSelector)
	v.SetDefault("auth.submit_selector", cfg.Auth.SubmitSelector)
	v.SetDefault("auth.target_domain", cfg.Auth.TargetDomain)
	v.SetDefault("auth.markers", cfg.Auth.Markers)
	v.SetDefault("auth.form_timeout", cfg.Auth.FormTimeout)
	v.SetDefault("auth.type_pause", cfg.Auth.TypePause)
	v.SetDefault("auth.submit_pause", cfg.Auth.SubmitPause)
	v.SetDefault("auth.poll_interval", cfg.Auth.PollInterval)
	v.SetDefault("auth.poll_limit", cfg.Auth.PollLimit)

	v.SetDefault("ranking.stat_base_url", cfg.Ranking.StatBaseURL)
	v.SetDefault("ranking.settle_delay", cfg.Ranking.SettleDelay)
	v.SetDefault("ranking.payload_selector", cfg.Ranking.PayloadSelector)
	v.SetDefault("ranking.selector_type", cfg.Ranking.SelectorType)
	v.SetDefault("ranking.blocked_names", cfg.Ranking.BlockedNames)
	v.SetDefault("ranking.blocked_levels", cfg.Ranking.BlockedLevels)
	v.SetDefault("ranking.post_limit", cfg.Ranking.PostLimit)
	v.SetDefault("ranking.comment_limit", cfg.Ranking.CommentLimit)

	v.SetDefault("collector.interval", cfg.Collector.Interval)
	v.SetDefault("collector.run_on_start", cfg.Collector.RunOnStart)
	v.SetDefault("collector.history", cfg.Collector.History)

	v.SetDefault("server.port", cfg.Server.Port)
	v.SetDefault("server.dashboard", cfg.Server.Dashboard)
	v.SetDefault("server.write_timeout", cfg.Server.WriteTimeout)

	v.SetDefault("logging.level", cfg.Logging.Level)
	v.SetDefault("logging.format", cfg.Logging.Format)
	v.SetDefault("logging.output", cfg.Logging.Output)
	v.SetDefault("logging.max_size_mb", cfg.Logging.MaxSizeMB)
	v.SetDefault("logging.max_backups", cfg.Logging.MaxBackups)
	v.SetDefault("logging.max_age_days", cfg.Logging.MaxAgeDays)
	v.SetDefault("logging.compress", cfg.Logging.Compress)

	v.SetDefault("metrics.enabled", cfg.Metrics.Enabled)
	v.SetDefault("metrics.path", cfg.Metrics.Path)
}
