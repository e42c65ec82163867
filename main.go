package main

import (
	"os"

	"aruodas-scraper/config"
	"aruodas-scraper/models"
	"aruodas-scraper/scraper/aruodas"
	"aruodas-scraper/services"
	"aruodas-scraper/storage"
	"aruodas-scraper/utils"
)

func main() {
	logger := utils.NewLogger()
	cfg := config.Load()

	logger.Info("=== aruodas.lt scraper starting ===")
	logger.Info("Config — base: %s | fetch retries: %d | crawl retries: %d | backoff: %ds/%ds",
		cfg.BaseURL, cfg.FetchRetries, cfg.CrawlRetries, cfg.FetchBackoffSec, cfg.CrawlBackoffSec)

	store, err := storage.NewPostgresStore(cfg.DSN())
	if err != nil {
		logger.Error("Failed to connect to PostgreSQL: %v", err)
		os.Exit(1)
	}
	defer store.Close()

	var archive *storage.HTMLArchive
	if cfg.SaveHTML {
		archive, err = storage.NewHTMLArchive(cfg.HTMLDir)
		if err != nil {
			logger.Error("Failed to create HTML archive: %v", err)
			os.Exit(1)
		}
		logger.Info("Archiving raw markup to %s", cfg.HTMLDir)
	}

	fetcher := aruodas.NewChromeFetcher(cfg, logger, archive)
	defer fetcher.Close()

	// one category at a time; a fatal category fault never stops the rest
	for _, category := range models.Categories {
		crawler, err := aruodas.NewCrawler(cfg, category, fetcher, store, logger)
		if err != nil {
			logger.Error("Could not initialize crawl of %s: %v", category, err)
			continue
		}

		if err := crawler.Run(); err != nil {
			logger.Error("Crawl of %s aborted: %v", category, err)
		}
	}

	listings, err := store.FetchAll()
	if err != nil {
		logger.Error("Failed to fetch listings for insights: %v", err)
		return
	}

	insightSvc := services.NewInsightService(logger)
	insightSvc.Print(insightSvc.Generate(listings))
}
