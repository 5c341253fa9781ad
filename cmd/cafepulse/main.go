package main

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/IshaanNene/cafepulse/internal/config"
	"github.com/IshaanNene/cafepulse/internal/observability"
)

var (
	cfgFile   string
	verbose   bool
	startDate string
	headful   bool
	port      int
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "cafepulse",
		Short: "cafepulse: community contribution rankings and recent-author tracking",
		Long: `cafepulse follows activity in a Naver cafe.

It collects recent-post author nicknames on an hourly schedule and, on
demand, logs in with a headless browser to read the monthly post and
comment rankings. Results are served as JSON and on a small dashboard.`,
		SilenceUsage: true,
	}

	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "config file path")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")

	rootCmd.AddCommand(serveCmd())
	rootCmd.AddCommand(harvestCmd())
	rootCmd.AddCommand(rankingsCmd())
	rootCmd.AddCommand(configCmd())
	rootCmd.AddCommand(versionCmd())

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// serveCmd creates the "serve" subcommand.
func serveCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the hourly collector and the HTTP API",
		RunE:  runServe,
	}
	cmd.Flags().IntVarP(&port, "port", "p", 0, "listen port (overrides config)")
	return cmd
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, logger, closeLog, err := setup()
	if err != nil {
		return err
	}
	defer closeLog()

	if port > 0 {
		cfg.Server.Port = port
	}

	a, err := newApp(cfg, logger, observability.NewMetrics())
	if err != nil {
		return err
	}
	defer a.close()

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	logger.Info("cafepulse starting",
		"version", config.Version,
		"port", cfg.Server.Port,
		"cafe", cfg.Portal.CafeID,
		"remote", cfg.Remote.Configured(),
		"credentials", cfg.Auth.Configured(),
		"disabled", cfg.Disabled,
	)

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error { return a.collector.Run(ctx) })
	g.Go(func() error { return a.server.ListenAndServe(ctx) })

	if err := g.Wait(); err != nil {
		return fmt.Errorf("serve: %w", err)
	}
	logger.Info("cafepulse stopped")
	return nil
}

// harvestCmd creates the "harvest" subcommand.
func harvestCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "harvest",
		Short: "Collect recent author nicknames once and print them",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, closeLog, err := setup()
			if err != nil {
				return err
			}
			defer closeLog()

			a, err := newApp(cfg, logger, observability.NewMetrics())
			if err != nil {
				return err
			}
			defer a.close()

			entry, err := a.collector.CollectOnce(cmd.Context())
			if err != nil {
				return err
			}
			return printJSON(entry)
		},
	}
}

// rankingsCmd creates the "rankings" subcommand.
func rankingsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "rankings",
		Short: "Log in and print the monthly post and comment rankings",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, closeLog, err := setup()
			if err != nil {
				return err
			}
			defer closeLog()

			if headful {
				cfg.Browser.Headless = false
			}

			var start *time.Time
			if startDate != "" {
				t, err := time.ParseInLocation("2006-01-02", startDate, time.Local)
				if err != nil {
					return fmt.Errorf("invalid --start %q: %w", startDate, err)
				}
				start = &t
			}

			a, err := newApp(cfg, logger, observability.NewMetrics())
			if err != nil {
				return err
			}
			defer a.close()

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			out := a.runner.RunFrom(ctx, start)
			if err := printJSON(out); err != nil {
				return err
			}
			if !out.OK() {
				return fmt.Errorf("ranking run %s: %s", out.Status, out.Cause)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&startDate, "start", "", "first day of the month to rank (YYYY-MM-DD, default previous month)")
	cmd.Flags().BoolVar(&headful, "headful", false, "show the local browser window (for completing verification by hand)")
	return cmd
}

// versionCmd creates the "version" subcommand.
func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("cafepulse %s\n", config.Version)
		},
	}
}

// configCmd creates the "config" subcommand for inspecting configuration.
func configCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "config",
		Short: "Show current configuration",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(cfgFile)
			if err != nil {
				return err
			}
			fmt.Printf("Portal:\n")
			fmt.Printf("  Cafe ID:           %s\n", cfg.Portal.CafeID)
			fmt.Printf("  List URL:          %s\n", cfg.Portal.ListURL)
			fmt.Printf("  Nickname Limit:    %d\n", cfg.Portal.NicknameLimit)
			fmt.Printf("\nRemote Browser:\n")
			fmt.Printf("  Domain:            %s\n", orNone(cfg.Remote.Domain))
			fmt.Printf("  Token:             %s\n", mask(cfg.Remote.Token))
			fmt.Printf("  Create Session:    %v\n", cfg.Remote.CreateSession)
			fmt.Printf("\nLocal Browser:\n")
			fmt.Printf("  Headless:          %v\n", cfg.Browser.Headless)
			fmt.Printf("  Stealth:           %v\n", cfg.Browser.Stealth)
			fmt.Printf("  Viewport:          %dx%d\n", cfg.Browser.ViewportWidth, cfg.Browser.ViewportHeight)
			fmt.Printf("\nLogin:\n")
			fmt.Printf("  Username:          %s\n", orNone(cfg.Auth.Username))
			fmt.Printf("  Password:          %s\n", mask(cfg.Auth.Password))
			fmt.Printf("  Poll:              %d x %s\n", cfg.Auth.PollLimit, cfg.Auth.PollInterval)
			fmt.Printf("\nRankings:\n")
			fmt.Printf("  Limits:            %d posts, %d comments\n", cfg.Ranking.PostLimit, cfg.Ranking.CommentLimit)
			fmt.Printf("  Blocked Names:     %v\n", cfg.Ranking.BlockedNames)
			fmt.Printf("  Blocked Levels:    %v\n", cfg.Ranking.BlockedLevels)
			fmt.Printf("\nCollector:\n")
			fmt.Printf("  Interval:          %s\n", cfg.Collector.Interval)
			fmt.Printf("  Disabled:          %v\n", cfg.Disabled)
			fmt.Printf("\nServer:\n")
			fmt.Printf("  Port:              %d\n", cfg.Server.Port)
			fmt.Printf("  Metrics:           %v (%s)\n", cfg.Metrics.Enabled, cfg.Metrics.Path)
			return nil
		},
	}
}

// setup loads and validates configuration and builds the logger.
func setup() (*config.Config, *slog.Logger, func(), error) {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("load config: %w", err)
	}
	if err := config.Validate(cfg); err != nil {
		return nil, nil, nil, fmt.Errorf("invalid config: %w", err)
	}

	logger, closer := observability.NewLogger(cfg.Logging, verbose)
	return cfg, logger, func() { _ = closer.Close() }, nil
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func mask(s string) string {
	if s == "" {
		return "(not set)"
	}
	return "********"
}

func orNone(s string) string {
	if s == "" {
		return "(not set)"
	}
	return s
}
