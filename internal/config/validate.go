package config

import (
	"fmt"
	"net/url"
	"strings"
)

// Validate checks the configuration for invalid values.
func Validate(cfg *Config) error {
	if cfg.Portal.CafeID == "" {
		return fmt.Errorf("portal.cafe_id must be set")
	}
	if err := ValidateURL(cfg.Portal.ListURL); err != nil {
		return fmt.Errorf("portal.list_url: %w", err)
	}
	if cfg.Portal.PageSize < 1 {
		return fmt.Errorf("portal.page_size must be >= 1, got %d", cfg.Portal.PageSize)
	}
	if cfg.Portal.NicknameLimit < 1 {
		return fmt.Errorf("portal.nickname_limit must be >= 1, got %d", cfg.Portal.NicknameLimit)
	}
	if cfg.Portal.Timeout <= 0 {
		return fmt.Errorf("portal.timeout must be > 0")
	}
	if cfg.Portal.MaxBodySize <= 0 {
		return fmt.Errorf("portal.max_body_size must be > 0")
	}

	if cfg.Remote.Configured() {
		if strings.Contains(cfg.Remote.Domain, "://") || strings.Contains(cfg.Remote.Domain, "/") {
			return fmt.Errorf("remote.domain must be a bare host[:port], got %q", cfg.Remote.Domain)
		}
		if cfg.Remote.ConnectTimeout <= 0 {
			return fmt.Errorf("remote.connect_timeout must be > 0")
		}
	}

	if cfg.Browser.ViewportWidth < 1 || cfg.Browser.ViewportHeight < 1 {
		return fmt.Errorf("browser viewport must be positive, got %dx%d",
			cfg.Browser.ViewportWidth, cfg.Browser.ViewportHeight)
	}
	if cfg.Browser.NavigationTimeout <= 0 {
		return fmt.Errorf("browser.navigation_timeout must be > 0")
	}

	if err := ValidateURL(cfg.Auth.LoginURL); err != nil {
		return fmt.Errorf("auth.login_url: %w", err)
	}
	if cfg.Auth.FormTimeout <= 0 {
		return fmt.Errorf("auth.form_timeout must be > 0")
	}
	if cfg.Auth.PollInterval <= 0 {
		return fmt.Errorf("auth.poll_interval must be > 0")
	}
	if cfg.Auth.PollLimit < 0 {
		return fmt.Errorf("auth.poll_limit must be >= 0, got %d", cfg.Auth.PollLimit)
	}
	if cfg.Auth.TargetDomain == "" {
		return fmt.Errorf("auth.target_domain must be set")
	}

	if err := ValidateURL(cfg.Ranking.StatBaseURL); err != nil {
		return fmt.Errorf("ranking.stat_base_url: %w", err)
	}
	if cfg.Ranking.SelectorType != "css" && cfg.Ranking.SelectorType != "xpath" {
		return fmt.Errorf("ranking.selector_type must be 'css' or 'xpath', got %q", cfg.Ranking.SelectorType)
	}
	if cfg.Ranking.PayloadSelector == "" {
		return fmt.Errorf("ranking.payload_selector must be set")
	}
	if cfg.Ranking.PostLimit < 1 || cfg.Ranking.CommentLimit < 1 {
		return fmt.Errorf("ranking limits must be >= 1")
	}

	if cfg.Collector.Interval <= 0 {
		return fmt.Errorf("collector.interval must be > 0")
	}
	if cfg.Collector.History < 1 {
		return fmt.Errorf("collector.history must be >= 1, got %d", cfg.Collector.History)
	}

	if cfg.Server.Port < 1 || cfg.Server.Port > 65535 {
		return fmt.Errorf("server.port must be 1-65535, got %d", cfg.Server.Port)
	}

	validLogLevels := map[string]bool{
		"debug": true, "info": true, "warn": true, "error": true,
	}
	if !validLogLevels[cfg.Logging.Level] {
		return fmt.Errorf("logging.level must be debug/info/warn/error, got %q", cfg.Logging.Level)
	}
	if cfg.Logging.Format != "text" && cfg.Logging.Format != "json" {
		return fmt.Errorf("logging.format must be 'text' or 'json', got %q", cfg.Logging.Format)
	}

	if cfg.Metrics.Enabled && !strings.HasPrefix(cfg.Metrics.Path, "/") {
		return fmt.Errorf("metrics.path must start with '/', got %q", cfg.Metrics.Path)
	}

	return nil
}

// ValidateURL checks that a URL is absolute http(s).
func ValidateURL(rawURL string) error {
	u, err := url.Parse(rawURL)
	if err != nil {
		return fmt.Errorf("invalid URL: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("URL scheme must be http or https, got %q", u.Scheme)
	}
	if u.Host == "" {
		return fmt.Errorf("URL must have a host")
	}
	return nil
}
