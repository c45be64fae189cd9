package browser

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/playwright-community/playwright-go"

	"github.com/lotoarchive/zabava-archive/internal/logger"
)

// InstallChromium downloads Chromium into dir (if not already present) and returns
// the path of its executable.
func InstallChromium(dir string) (string, error) {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return "", fmt.Errorf("resolving browser directory: %w", err)
	}
	if err := os.MkdirAll(abs, 0755); err != nil {
		return "", fmt.Errorf("creating browser directory: %w", err)
	}

	// The playwright driver reads the download location from the environment.
	if err := os.Setenv("PLAYWRIGHT_BROWSERS_PATH", abs); err != nil {
		return "", fmt.Errorf("setting PLAYWRIGHT_BROWSERS_PATH: %w", err)
	}

	logger.Info("Installing Chromium", logger.Fields{"dir": abs})
	if err := playwright.Install(&playwright.RunOptions{Browsers: []string{"chromium"}}); err != nil {
		return "", fmt.Errorf("installing chromium: %w", err)
	}

	pw, err := playwright.Run()
	if err != nil {
		return "", fmt.Errorf("starting playwright driver: %w", err)
	}
	defer pw.Stop() // nolint:errcheck

	path := pw.Chromium.ExecutablePath()
	if path == "" {
		return "", fmt.Errorf("chromium executable not found in %s", abs)
	}
	logger.Info("Chromium ready", logger.Fields{"exec_path": path})
	return path, nil
}
