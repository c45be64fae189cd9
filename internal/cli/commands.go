package cli

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/lotoarchive/zabava-archive/internal/browser"
	"github.com/lotoarchive/zabava-archive/internal/datespec"
	"github.com/lotoarchive/zabava-archive/internal/draw"
	"github.com/lotoarchive/zabava-archive/internal/logger"
	"github.com/lotoarchive/zabava-archive/internal/page"
)

var flagHTML string

// newExtractCmd extracts records from a page saved to disk.
func newExtractCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "extract",
		Short: "Extract draws from a saved archive page",
		Long: `Extract draw records from an archive page saved from the browser
(File → Save page as). No browser is started; every row in the file is read.
With --until the run fails unless the saved page reaches that date.`,
		Args: cobra.NoArgs,
		RunE: runExtract,
	}

	cmd.Flags().StringVar(&flagHTML, "html", "", "Saved archive page: file path or http(s) URL (required)")
	cmd.Flags().StringVar(&flagUntil, "until", "", "Require this date to be present in the page")
	cmd.Flags().StringVar(&flagDataDir, "data-dir", "", "Data directory for run history")
	cmd.Flags().BoolVar(&flagNoHistory, "no-history", false, "Do not read or update run history")
	cmd.MarkFlagRequired("html") // nolint:errcheck

	return cmd
}

func runExtract(cmd *cobra.Command, args []string) error {
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

	doc, err := loadSavedPage(ctx, flagHTML, cfg.Browser.WindowHeight)
	if err != nil {
		return err
	}
	logger.Info("Loaded saved page", logger.Fields{"source": flagHTML})

	if flagUntil == "" {
		records, stats, err := draw.NewExtractor(doc, cfg.DrawSelectors()).Extract(ctx)
		if err != nil {
			return fmt.Errorf("extracting records: %w", err)
		}
		return finish(cmd, cfg, &runResult{Records: records, Stats: stats}, "", format)
	}

	spec, err := datespec.New(cfg.Vocabulary()).Validate(flagUntil)
	if err != nil {
		return fmt.Errorf("--until: %s: %w", datespec.Message(err), err)
	}
	// A saved page cannot grow, so a single pass decides.
	opts := cfg.DiscoveryOptions()
	opts.MaxIterations = 1
	res, err := collect(ctx, doc, cfg, opts, spec.DayMonth)
	if err != nil {
		return err
	}
	return finish(cmd, cfg, res, spec.Raw, format)
}

// loadSavedPage reads a saved page from a file or an http(s) URL. The synthetic
// viewport takes the configured browser window height so the end marker is judged
// the same way as in a live run.
func loadSavedPage(ctx context.Context, source string, windowHeight int) (*page.Document, error) {
	var doc *page.Document
	if strings.HasPrefix(source, "http://") || strings.HasPrefix(source, "https://") {
		d, err := page.Fetch(ctx, source)
		if err != nil {
			return nil, err
		}
		doc = d
	} else {
		f, err := os.Open(source)
		if err != nil {
			return nil, fmt.Errorf("opening saved page: %w", err)
		}
		defer f.Close()

		d, err := page.NewDocument(f)
		if err != nil {
			return nil, err
		}
		doc = d
	}

	if windowHeight > 0 {
		doc.SetViewport(float64(windowHeight), page.DefaultLineHeight)
	}
	return doc, nil
}

// newValidateCmd checks a date expression without scraping.
func newValidateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "validate <day> <month> <year>",
		Short: "Check a cut-off date expression",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			format, err := summaryFormat()
			if err != nil {
				return err
			}
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}

			spec, err := datespec.New(cfg.Vocabulary()).Validate(strings.Join(args, " "))
			if err != nil {
				return fmt.Errorf("%s: %w", datespec.Message(err), err)
			}

			if format == FormatJSON {
				return writeJSON(cmd.OutOrStdout(), map[string]interface{}{
					"day_month": spec.DayMonth,
					"year":      spec.Year,
					"raw":       spec.Raw,
				})
			}
			fmt.Fprintf(cmd.OutOrStdout(), "✅ %s (ищем на сайте по: %q)\n", spec.Raw, spec.DayMonth)
			return nil
		},
	}
}

// newInstallBrowserCmd downloads Chromium through playwright.
func newInstallBrowserCmd() *cobra.Command {
	var dir string
	cmd := &cobra.Command{
		Use:   "install-browser",
		Short: "Download Chromium for the scraper",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, err := loadConfig(cmd); err != nil {
				return err
			}
			path, err := browser.InstallChromium(dir)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), path)
			return nil
		},
	}
	cmd.Flags().StringVar(&dir, "dir", "./browser", "Download directory")
	return cmd
}
