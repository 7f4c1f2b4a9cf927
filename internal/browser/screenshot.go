package browser

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"regexp"
	"time"

	"github.com/playwright-community/playwright-go"
)

var reUnsafe = regexp.MustCompile(`[^a-zA-Z0-9_-]+`)

// ScreenshotDebugger saves full-page screenshots for failed applications.
type ScreenshotDebugger struct {
	outputDir string
}

func NewScreenshotDebugger(dir string) *ScreenshotDebugger {
	if dir == "" {
		dir = filepath.Join(".", "logs", "screenshots")
	}
	return &ScreenshotDebugger{outputDir: dir}
}

func (s *ScreenshotDebugger) Capture(page playwright.Page, name string) (string, error) {
	if err := os.MkdirAll(s.outputDir, 0755); err != nil {
		return "", fmt.Errorf("failed to create screenshot dir: %w", err)
	}
	timestamp := time.Now().Format("2006-01-02_15-04-05")
	filename := fmt.Sprintf("%s_%s.png", reUnsafe.ReplaceAllString(name, "_"), timestamp)
	path := filepath.Join(s.outputDir, filename)

	if _, err := page.Screenshot(playwright.PageScreenshotOptions{
		Path:     playwright.String(path),
		FullPage: playwright.Bool(true),
	}); err != nil {
		log.Printf("⚠️ Failed to capture screenshot: %v", err)
		return "", err
	}
	return path, nil
}
