package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/spf13/cobra"

	"memorialcrawl/lib/browser"
	"memorialcrawl/lib/configutil"
	"memorialcrawl/lib/restyutil"
	"memorialcrawl/lib/scrapers/memorial"
	"memorialcrawl/lib/serviceutil"
	"memorialcrawl/lib/sqliteutil"
	"memorialcrawl/lib/telemetry"
	"memorialcrawl/services/crawler"
	"memorialcrawl/services/crawler/db"
)

type Config struct {
	SearchUrl           string   `json:"search_url"`
	Proxies             []string `json:"proxies"`
	Workers             int      `json:"workers"`
	MaxScrollSteps      int      `json:"max_scroll_steps"`
	MaxAttempts         int      `json:"max_attempts"`
	FetchTimeoutSeconds int      `json:"fetch_timeout_seconds"`
	Database            string   `json:"database"`
	OutputCsv           string   `json:"output_csv"`
	Headful             bool     `json:"headful"`
}

var verbose bool
var configPath string
var searchUrl string

var rootCmd = &cobra.Command{
	Use:   "crawler",
	Short: "Crawls a memorial directory listing and extracts genealogical records.",
	Run: func(cmd *cobra.Command, args []string) {
		ctx := serviceutil.SignalContext()
		initTelemetry(ctx)

		cfg, err := configutil.ReadConfig[Config](configPath)
		if err != nil {
			serviceutil.Fatal("read config", err)
		}
		if searchUrl != "" {
			cfg.SearchUrl = searchUrl
		}
		if cfg.SearchUrl == "" {
			serviceutil.Fatal("no search url", fmt.Errorf("set search_url in %s or pass --search-url", configPath))
		}
		if cfg.OutputCsv == "" {
			cfg.OutputCsv = "memorials.csv"
		}

		run(ctx, cfg)
	},
}

func initTelemetry(ctx context.Context) {
	telemetry.InitSlog(verbose)

	err := telemetry.SetupFromEnv(ctx, "crawler")
	if errors.Is(err, os.ErrNotExist) {
		slog.DebugContext(ctx, "no telemetry.json5 found, otlp export disabled")
	} else if err != nil {
		serviceutil.Fatal("setup telemetry", err)
	} else {
		go func() {
			<-ctx.Done()
			telemetry.Shutdown(context.Background())
		}()
		telemetry.InstrumentPerfStats(ctx)
	}

	if verbose {
		memorial.SetRestyInstrumentOutput(
			restyutil.NewFilesystemOutput(".dev/resty/memorial"),
		)
	}
}

func run(ctx context.Context, cfg Config) {
	csvSink, err := crawler.NewCsvSink(cfg.OutputCsv)
	if err != nil {
		serviceutil.Fatal("open output csv", err)
	}
	sinks := crawler.MultiSink{csvSink}

	var store *db.Store
	if cfg.Database != "" {
		sqlite, err := sqliteutil.OpenDB(db.Schema, cfg.Database)
		if err != nil {
			serviceutil.Fatal("open crawl database", err)
		}
		defer sqlite.Close()

		s := db.NewStore(sqlite)
		store = &s
		sinks = append(sinks, crawler.NewSqliteSink(s))
	}
	defer sinks.Close()

	discoverer := memorial.Discoverer{
		NewSession: func() (browser.Session, error) {
			return browser.NewChrome(ctx, browser.ChromeOptions{Headful: cfg.Headful})
		},
	}
	client := memorial.NewClient(memorial.ClientOptions{
		Proxies:     cfg.Proxies,
		MaxAttempts: cfg.MaxAttempts,
		Timeout:     time.Duration(cfg.FetchTimeoutSeconds) * time.Second,
	})

	service := crawler.NewService(discoverer, client, sinks, store, crawler.Options{
		Workers:        cfg.Workers,
		MaxScrollSteps: cfg.MaxScrollSteps,
	})

	t1 := time.Now()
	summary, err := service.Run(ctx, cfg.SearchUrl)
	if err != nil {
		serviceutil.Fatal("crawl failed", err)
	}

	slog.Info("crawling time", "seconds", time.Since(t1).Seconds())
	fmt.Println(crawler.RenderSummary(summary))
}

func main() {
	rootCmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose logging/instrumentation.")
	rootCmd.Flags().StringVarP(&configPath, "config", "c", "config.json5", "Path to the config file.")
	rootCmd.Flags().StringVarP(&searchUrl, "search-url", "u", "", "Listing url to crawl, overrides the config.")

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
