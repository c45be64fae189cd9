package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/lotoarchive/zabava-archive/internal/browser"
	"github.com/lotoarchive/zabava-archive/internal/config"
	"github.com/lotoarchive/zabava-archive/internal/datespec"
	"github.com/lotoarchive/zabava-archive/internal/discovery"
	"github.com/lotoarchive/zabava-archive/internal/draw"
	"github.com/lotoarchive/zabava-archive/internal/export"
	"github.com/lotoarchive/zabava-archive/internal/logger"
	"github.com/lotoarchive/zabava-archive/internal/page"
	"github.com/lotoarchive/zabava-archive/internal/storage"
)

const (
	ExitSuccess  = 0
	ExitError    = 1
	ExitNotFound = 2
)

var (
	flagConfig         string
	flagUntil          string
	flagOutput         string
	flagFormat         string
	flagSummary        string
	flagDataDir        string
	flagBrowserDir     string
	flagHeadless       bool
	flagNoHistory      bool
	flagInstallBrowser bool
	flagVerbose        bool
)

// NewRootCmd creates the root command
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "zabava-archive",
		Short: "Export Zabava lottery draws down to a given date",
		Long: `A CLI tool that opens the Zabava draw archive, scrolls until the requested
date is rendered and saves every draw above it to CSV (with BOM) or XLSX.`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE:          runArchive,
	}

	pf := cmd.PersistentFlags()
	pf.StringVar(&flagConfig, "config", "", "Path to YAML config (or env: "+config.EnvConfig+")")
	pf.StringVar(&flagOutput, "output", "", "Output file (default from config: draws_full.csv)")
	pf.StringVar(&flagFormat, "format", "", "Output format: csv or xlsx (default: from file extension)")
	pf.StringVar(&flagSummary, "summary", "text", "Summary format: text or json")
	pf.BoolVar(&flagVerbose, "verbose", false, "Enable verbose logging")

	cmd.Flags().StringVar(&flagUntil, "until", "", `Cut-off date, e.g. "2 августа 2025" (prompted when empty)`)
	cmd.Flags().StringVar(&flagDataDir, "data-dir", "", "Data directory for run history")
	cmd.Flags().StringVar(&flagBrowserDir, "browser-dir", "./browser", "Where --install-browser puts Chromium")
	cmd.Flags().BoolVar(&flagHeadless, "headless", false, "Run Chromium without a window")
	cmd.Flags().BoolVar(&flagNoHistory, "no-history", false, "Do not read or update run history")
	cmd.Flags().BoolVar(&flagInstallBrowser, "install-browser", false, "Download Chromium before the run")

	cmd.AddCommand(newExtractCmd(), newValidateCmd(), newInstallBrowserCmd())

	return cmd
}

// loadConfig reads the config file and applies flag overrides.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	path, explicit := config.GetConfigPath()
	if flagConfig != "" {
		path, explicit = flagConfig, true
	}

	cfg, err := config.LoadOrDefault(path, explicit)
	if err != nil {
		return nil, err
	}

	flags := cmd.Flags()
	if flags.Changed("output") {
		cfg.Output.Path = flagOutput
		if !flags.Changed("format") {
			cfg.Output.Format = string(export.FormatForPath(flagOutput))
		}
	}
	if flags.Changed("format") {
		cfg.Output.Format = flagFormat
	}
	if flags.Lookup("headless") != nil && flags.Changed("headless") {
		cfg.Browser.Headless = flagHeadless
	}
	if flags.Lookup("data-dir") != nil && flags.Changed("data-dir") {
		cfg.DataDir = flagDataDir
	}
	if flagVerbose {
		cfg.LogLevel = "debug"
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}

	logger.SetDefault(logger.New(logger.ParseLevel(cfg.LogLevel), cmd.ErrOrStderr()))
	return cfg, nil
}

func summaryFormat() (OutputFormat, error) {
	format := OutputFormat(strings.ToLower(flagSummary))
	if format != FormatText && format != FormatJSON {
		return "", fmt.Errorf("invalid summary format: %s (must be 'text' or 'json')", flagSummary)
	}
	return format, nil
}

// runArchive is the main command logic
func runArchive(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	format, err := summaryFormat()
	if err != nil {
		return err
	}
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	spec, err := resolveTarget(ctx, cmd, datespec.New(cfg.Vocabulary()))
	if err != nil {
		return err
	}
	logger.Info("Target date accepted", logger.Fields{"date": spec.Raw, "day_month": spec.DayMonth})
	fmt.Fprintf(cmd.ErrOrStderr(), "📌 Запрошенная дата: %s (ищем на сайте по: %q)\n", spec.Raw, spec.DayMonth)

	if flagInstallBrowser {
		path, err := browser.InstallChromium(flagBrowserDir)
		if err != nil {
			return err
		}
		cfg.Browser.ExecPath = path
	}

	session, err := browser.Launch(ctx, browser.Options{
		Headless:     cfg.Browser.Headless,
		ExecPath:     cfg.Browser.ExecPath,
		UserAgent:    cfg.Browser.UserAgent,
		WindowWidth:  cfg.Browser.WindowWidth,
		WindowHeight: cfg.Browser.WindowHeight,
	})
	if err != nil {
		return err
	}
	defer session.Close()

	if err := session.Navigate(ctx, cfg.URL, time.Duration(cfg.Browser.NavigateTimeout)); err != nil {
		return err
	}

	res, err := collect(ctx, session, cfg, cfg.DiscoveryOptions(), spec.DayMonth)
	if err != nil {
		return err
	}

	return finish(cmd, cfg, res, spec.Raw, format)
}

// resolveTarget validates --until or prompts for a date.
func resolveTarget(ctx context.Context, cmd *cobra.Command, v *datespec.Validator) (datespec.DateSpec, error) {
	if flagUntil == "" {
		return PromptDate(ctx, cmd.InOrStdin(), cmd.ErrOrStderr(), v)
	}
	spec, err := v.Validate(flagUntil)
	if err != nil {
		return datespec.DateSpec{}, fmt.Errorf("--until: %s: %w", datespec.Message(err), err)
	}
	return spec, nil
}

// runResult is what one pass over a page produced.
type runResult struct {
	Records   []draw.Record
	Stats     draw.Stats
	Discovery discovery.Result
}

// collect waits for the table, scrolls to target and extracts the records.
func collect(ctx context.Context, p page.Accessor, cfg *config.Config, opts discovery.Options, target string) (*runResult, error) {
	if err := p.WaitForSelector(ctx, cfg.Selectors.Wait, time.Duration(cfg.Browser.WaitTimeout)); err != nil {
		return nil, fmt.Errorf("archive table did not render: %w", err)
	}

	res, err := discovery.New(p, opts).Discover(ctx, target)
	if err != nil {
		return nil, err
	}

	records, stats, err := draw.NewExtractor(p, cfg.DrawSelectors()).Extract(ctx)
	if err != nil {
		return nil, fmt.Errorf("extracting records: %w", err)
	}

	return &runResult{Records: records, Stats: stats, Discovery: res}, nil
}

// finish saves the records, updates history and prints the summary.
func finish(cmd *cobra.Command, cfg *config.Config, run *runResult, target string, format OutputFormat) error {
	outFormat, err := export.ParseFormat(cfg.Output.Format)
	if err != nil {
		return err
	}
	if err := export.Save(cfg.Output.Path, outFormat, run.Records); err != nil {
		return fmt.Errorf("saving records: %w", err)
	}
	logger.Info("Records saved", logger.Fields{"path": cfg.Output.Path, "format": outFormat, "records": len(run.Records)})

	result := &OutputResult{
		CheckedAt:    time.Now().UTC(),
		Target:       target,
		OutputPath:   cfg.Output.Path,
		RecordCount:  len(run.Records),
		SkippedRows:  run.Stats.Skipped,
		Scrolls:      run.Discovery.Scrolls,
		SettleCycles: run.Discovery.SettleCycles,
		Records:      run.Records,
	}

	if !flagNoHistory {
		store, err := storage.New(cfg.DataDir)
		if err != nil {
			return fmt.Errorf("initializing storage: %w", err)
		}
		diff, err := store.UpdateFromRecords(run.Records, cfg.Game, target)
		if err != nil {
			return fmt.Errorf("updating history: %w", err)
		}
		result.HistoryKept = true
		result.HistoryDir = store.Dir()
		result.NewCount = len(diff.NewRecords)
		logger.Info("History updated", logger.Fields{"dir": store.Dir(), "new_records": len(diff.NewRecords)})
	}

	if flagVerbose {
		result.Metrics = logger.GetMetricsSnapshot()
	}
	if format == FormatJSON && !flagVerbose {
		// keep JSON summaries small; the file has everything
		if len(result.Records) > previewSize {
			result.Records = result.Records[:previewSize]
		}
	}

	if err := WriteOutput(cmd.OutOrStdout(), result, format, flagVerbose); err != nil {
		return fmt.Errorf("writing output: %w", err)
	}
	return nil
}

// exitCode maps an error from a command to the process exit status.
func exitCode(err error) int {
	switch {
	case err == nil:
		return ExitSuccess
	case errors.Is(err, discovery.ErrNotFound):
		return ExitNotFound
	default:
		return ExitError
	}
}

// Execute runs the CLI
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := run(ctx, NewRootCmd(), os.Args[1:], os.Stdin, os.Stdout, os.Stderr)
	stop()
	os.Exit(exitCode(err))
}

func run(ctx context.Context, cmd *cobra.Command, args []string, in io.Reader, out, errOut io.Writer) error {
	cmd.SetArgs(args)
	cmd.SetIn(in)
	cmd.SetOut(out)
	cmd.SetErr(errOut)

	err := cmd.ExecuteContext(ctx)
	if err != nil {
		fmt.Fprintf(errOut, "❌ Error: %v\n", err)
	}
	return err
}
