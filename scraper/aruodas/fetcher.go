package aruodas

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"time"

	"github.com/chromedp/chromedp"

	"aruodas-scraper/config"
	"aruodas-scraper/storage"
	"aruodas-scraper/utils"
)

// HTMLFetcher renders a URL and returns the resulting markup.
type HTMLFetcher interface {
	Fetch(url string) (string, error)
}

// ChromeFetcher fetches pages through headless Chrome. Every Fetch call runs
// in its own browser context, so a crashed or blocked render cannot corrupt a
// shared session; the retry wrapper absorbs transient navigation and timeout
// faults before they escalate.
type ChromeFetcher struct {
	allocCtx    context.Context
	cancelAlloc context.CancelFunc
	retry       *utils.RetryConfig
	logger      *utils.Logger
	archive     *storage.HTMLArchive
}

// NewChromeFetcher builds the Chrome allocator and the fetch-level retry
// policy. The archive is optional; when non-nil every successfully rendered
// page is also written to disk.
func NewChromeFetcher(cfg *config.Config, logger *utils.Logger, archive *storage.HTMLArchive) *ChromeFetcher {
	chromeBin := findChromeBinary(cfg.ChromeBin)
	logger.Info("[fetcher] Using browser binary: %s", chromeBin)

	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", true),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("no-sandbox", true),
		chromedp.Flag("disable-dev-shm-usage", true),
		chromedp.Flag("disable-blink-features", "AutomationControlled"),
		chromedp.UserAgent("Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 "+
			"(KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"),
	)
	if chromeBin != "" {
		opts = append(opts, chromedp.ExecPath(chromeBin))
	}

	allocCtx, cancelAlloc := chromedp.NewExecAllocator(context.Background(), opts...)

	return &ChromeFetcher{
		allocCtx:    allocCtx,
		cancelAlloc: cancelAlloc,
		retry: &utils.RetryConfig{
			MaxAttempts: cfg.FetchRetries,
			BaseDelay:   time.Duration(cfg.FetchBackoffSec) * time.Second,
			MaxDelay:    2 * time.Minute,
			Jitter:      cfg.RetryJitter,
			Logger:      logger,
		},
		logger:  logger,
		archive: archive,
	}
}

// Fetch renders the URL and returns its markup, retrying on any rendering or
// network fault until the attempt budget is exhausted.
func (f *ChromeFetcher) Fetch(url string) (string, error) {
	var markup string

	err := f.retry.Do("fetch "+url, func() error {
		rendered, err := f.render(url)
		if err != nil {
			return err
		}
		markup = rendered
		return nil
	})
	if err != nil {
		return "", err
	}

	if f.archive != nil {
		if err := f.archive.Save(url, markup); err != nil {
			f.logger.Warn("[fetcher] Could not archive %s: %v", url, err)
		}
	}

	return markup, nil
}

func (f *ChromeFetcher) render(url string) (string, error) {
	ctx, cancel := chromedp.NewContext(f.allocCtx,
		chromedp.WithLogf(func(string, ...interface{}) {}))
	defer cancel()

	ctx, cancelTimeout := context.WithTimeout(ctx, 90*time.Second)
	defer cancelTimeout()

	var markup string
	err := chromedp.Run(ctx,
		chromedp.Navigate(url),
		chromedp.Sleep(5*time.Second),
		chromedp.OuterHTML("html", &markup),
	)
	if err != nil {
		return "", fmt.Errorf("chromedp render %s: %w", url, err)
	}
	return markup, nil
}

// Close releases the browser allocator.
func (f *ChromeFetcher) Close() {
	f.cancelAlloc()
}

// findChromeBinary locates the Chrome/Chromium binary.
func findChromeBinary(configured string) string {
	if configured != "" {
		return configured
	}

	names := []string{"google-chrome-stable", "google-chrome", "chromium", "chromium-browser"}
	for _, name := range names {
		if path, err := exec.LookPath(name); err == nil {
			return path
		}
	}

	paths := []string{
		"/usr/bin/google-chrome-stable",
		"/usr/bin/google-chrome",
		"/usr/bin/chromium-browser",
		"/usr/bin/chromium",
		"/snap/bin/chromium",
		"/opt/google/chrome/google-chrome",
	}
	for _, p := range paths {
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}

	return ""
}
