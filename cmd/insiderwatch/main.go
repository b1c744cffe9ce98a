// insiderwatch — SEC Form 4 insider filing activity scanner.
//
// Main CLI entrypoint using cobra command framework.
package main

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/marketwisdom/insiderwatch/internal/config"
	"github.com/marketwisdom/insiderwatch/internal/edgar"
	"github.com/marketwisdom/insiderwatch/internal/infra"
	"github.com/marketwisdom/insiderwatch/internal/pipeline"
	"github.com/marketwisdom/insiderwatch/internal/tools"
)

// Build-time variables (set via -ldflags).
var (
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
)

// Global config
var cfg *config.Config

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "insiderwatch",
	Short: "insiderwatch — SEC Form 4 insider filing activity scanner",
	Long: `insiderwatch scans SEC EDGAR daily indexes for insider filings
(Form 4), extracts transaction records, aggregates the last 24 hours
against a trailing 7-day daily average, and writes JSON and SVG report
artifacts.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		configFile, _ := cmd.Flags().GetString("config")
		if configFile != "" {
			cfg, err = config.LoadFromFile(configFile)
		} else {
			cfg, err = config.Load()
		}
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}
		if lvl, _ := cmd.Flags().GetString("log-level"); lvl != "" {
			cfg.Logging.Level = lvl
		}
		setupLogging(cfg.Logging)
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().String("config", "", "config file path (default: ./config/config.yaml)")
	rootCmd.PersistentFlags().String("log-level", "", "log level override (debug, info, warn, error)")

	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(toolsCmd)
}

// setupLogging configures the default slog logger from config.
func setupLogging(lc config.LoggingConfig) {
	var level slog.Level
	switch lc.Level {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}
	opts := &slog.HandlerOptions{Level: level}
	var handler slog.Handler
	if lc.Format == "json" {
		handler = slog.NewJSONHandler(os.Stderr, opts)
	} else {
		handler = slog.NewTextHandler(os.Stderr, opts)
	}
	slog.SetDefault(slog.New(handler))
}

// --- Version Command ---

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("insiderwatch %s\n", version)
		fmt.Printf("  commit:  %s\n", commit)
		fmt.Printf("  built:   %s\n", date)
	},
}

// --- Run Command ---

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run a full scan and write report artifacts",
	RunE: func(cmd *cobra.Command, args []string) error {
		target := time.Now().UTC()
		if dateStr, _ := cmd.Flags().GetString("date"); dateStr != "" {
			day, err := time.Parse("2006-01-02", dateStr)
			if err != nil {
				return fmt.Errorf("invalid --date: %w", err)
			}
			// Anchor at end of day so the whole day falls in the window.
			target = day.Add(24*time.Hour - time.Second)
		}
		if max, _ := cmd.Flags().GetInt("max-filings"); max > 0 {
			cfg.Scan.MaxFilings = max
		}
		if out, _ := cmd.Flags().GetString("out"); out != "" {
			applyOutDir(cfg, out)
		}

		runner := pipeline.NewRunner(cfg, slog.Default())
		rep, err := runner.Run(cmd.Context(), target)
		if err != nil {
			return err
		}

		fmt.Printf("Report generated at %s\n", rep.GeneratedAt.Format(time.RFC3339))
		fmt.Printf("  comparisons: %d\n", len(rep.Comparisons))
		fmt.Printf("  warnings:    %d\n", len(rep.Warnings))
		for i, c := range rep.Comparisons {
			if i >= 10 {
				fmt.Printf("  ... %d more\n", len(rep.Comparisons)-i)
				break
			}
			if c.NewActivity {
				fmt.Printf("  %-6s %-3s count=%d (new activity)\n", c.Ticker, c.Code, c.Last24hCount)
			} else {
				fmt.Printf("  %-6s %-3s count=%d ratio=%.2f\n", c.Ticker, c.Code, c.Last24hCount, c.Ratio)
			}
		}
		return nil
	},
}

func init() {
	runCmd.Flags().String("date", "", "scan anchor date YYYY-MM-DD (default: now)")
	runCmd.Flags().Int("max-filings", 0, "override filing cap for this run")
	runCmd.Flags().String("out", "", "write all artifacts (JSON and charts) under this directory")
}

// applyOutDir redirects every artifact of a run under one directory:
// JSON at its root, the chart under charts/.
func applyOutDir(c *config.Config, out string) {
	c.Output.DataDir = out
	c.Output.ChartsDir = filepath.Join(out, "charts")
}

// --- Tools Command ---

var toolsCmd = &cobra.Command{
	Use:   "tools [name] [json-args]",
	Short: "List scan tools, or execute one with JSON arguments",
	Args:  cobra.MaximumNArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		registry := tools.NewInsiderRegistry(newEdgarClient())

		if len(args) == 0 {
			for _, t := range registry.List() {
				fmt.Printf("%-22s %s\n", t.Name, t.Description)
			}
			return nil
		}

		raw := json.RawMessage(`{}`)
		if len(args) == 2 {
			if !json.Valid([]byte(args[1])) {
				return fmt.Errorf("arguments are not valid JSON")
			}
			raw = json.RawMessage(args[1])
		}
		out, err := registry.Execute(cmd.Context(), args[0], raw)
		if err != nil {
			return err
		}
		fmt.Println(out)
		return nil
	},
}

// newEdgarClient builds the gated EDGAR client from the loaded config.
func newEdgarClient() *edgar.Client {
	gate := infra.NewGate(cfg.Edgar.RateLimit)
	httpClient := infra.NewClient(infra.ClientConfig{
		UserAgent:      cfg.Edgar.UserAgent,
		RequestTimeout: cfg.Edgar.RequestTimeout,
		RetryAttempts:  cfg.Edgar.RetryAttempts,
		RetryBaseDelay: cfg.Edgar.RetryBaseDelay,
	}, gate)
	return edgar.NewClient(cfg.Edgar.BaseURL, httpClient, slog.Default())
}
