package aruodas

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"aruodas-scraper/config"
	"aruodas-scraper/models"
	"aruodas-scraper/services"
	"aruodas-scraper/storage"
	"aruodas-scraper/utils"
)

// Crawler drives one category's full crawl: enumerate index pages, visit each
// unseen listing, extract, normalize and persist. A fault that escapes the
// listing-level retries trips the outer retry, which re-enters the paging
// loop at the page that was in progress, so completed pages are never redone.
type Crawler struct {
	cfg      *config.Config
	category models.Category
	logger   *utils.Logger

	fetch HTMLFetcher
	enum  *Enumerator
	ex    *Extractor
	norm  *services.Normalizer
	store storage.ListingStore

	listingRetry *utils.RetryConfig
	outerRetry   *utils.RetryConfig

	maxPage int
	pageOn  int
	seen    *utils.SeenSet
}

// NewCrawler initializes a category crawler: it determines the category's
// page count and loads the already-persisted identifiers from the store.
func NewCrawler(cfg *config.Config, category models.Category, fetch HTMLFetcher,
	store storage.ListingStore, logger *utils.Logger) (*Crawler, error) {

	enum := NewEnumerator(fetch, cfg.BaseURL, logger)

	maxPage, err := enum.MaxPage(category)
	if err != nil {
		return nil, fmt.Errorf("max page for %s: %w", category, err)
	}

	known, err := store.ListIdentifiers(category)
	if err != nil {
		return nil, fmt.Errorf("load identifiers for %s: %w", category, err)
	}

	logger.Info("[%s] %d pages, %d listings already stored", category, maxPage, len(known))

	return &Crawler{
		cfg:      cfg,
		category: category,
		logger:   logger,
		fetch:    fetch,
		enum:     enum,
		ex:       NewExtractor(logger),
		norm:     services.NewNormalizer(logger),
		store:    store,
		listingRetry: &utils.RetryConfig{
			MaxAttempts: cfg.ListingRetries,
			BaseDelay:   time.Duration(cfg.FetchBackoffSec) * time.Second,
			Jitter:      cfg.RetryJitter,
			Logger:      logger,
		},
		outerRetry: &utils.RetryConfig{
			MaxAttempts: cfg.CrawlRetries,
			BaseDelay:   time.Duration(cfg.CrawlBackoffSec) * time.Second,
			MaxDelay:    10 * time.Minute,
			Jitter:      cfg.RetryJitter,
			Logger:      logger,
		},
		maxPage: maxPage,
		pageOn:  1,
		seen:    utils.NewSeenSet(known),
	}, nil
}

// Run crawls the category to completion, re-entering the paging loop on every
// escalated fault until the outer retry budget is spent. Exhausting it is
// fatal for this category only.
func (c *Crawler) Run() error {
	return c.outerRetry.Do(fmt.Sprintf("crawl %s", c.category), c.crawl)
}

func (c *Crawler) crawl() error {
	for page := c.pageOn; page <= c.maxPage; page++ {
		c.pageOn = page // a retry resumes here, not at page 1
		c.logger.Info("[%s] Page %d/%d", c.category, page, c.maxPage)

		ids, thumbs, err := c.enum.ListPage(c.category, page)
		if err != nil {
			return err
		}

		thumbsMatch := len(thumbs) == len(ids)
		if !thumbsMatch {
			c.logger.Info("[%s] Page %d: %d thumbnails vs %d listings, pairing disabled",
				c.category, page, len(thumbs), len(ids))
		}

		for i, id := range ids {
			if c.seen.Contains(id) {
				c.logger.Debug("[%s] Listing %s already scraped", c.category, id)
				continue
			}

			thumb := ""
			if thumbsMatch {
				thumb = thumbs[i]
			}

			err := c.scrapeListing(id, thumb)
			if errors.Is(err, services.ErrMissingIdentifier) {
				// data-quality issue, not transient: skip without marking seen
				c.logger.Error("[%s] Listing %s dropped: %v", c.category, id, err)
				continue
			}
			if err != nil {
				return err
			}

			c.seen.Add(id)
		}
	}

	c.logger.Info("[%s] Crawl complete, %d listings stored in total", c.category, c.seen.Size())
	return nil
}

// scrapeListing fetches one listing page, extracts and normalizes it, and
// persists the record.
func (c *Crawler) scrapeListing(id, thumbnail string) error {
	url := c.enum.ListingURL(id)
	c.logger.Info("[%s] Scraping %s", c.category, url)

	var raw *models.RawListing
	err := c.listingRetry.Do("listing "+id, func() error {
		markup, err := c.fetch.Fetch(url)
		if err != nil {
			return err
		}
		raw, err = c.extractListing(markup, url, thumbnail)
		return err
	})
	if err != nil {
		return err
	}

	listing, err := c.norm.Normalize(raw)
	if err != nil {
		return err
	}

	if err := c.store.Insert(listing); err != nil {
		return fmt.Errorf("persist %s: %w", listing.ID, err)
	}

	c.logger.Info("[%s] Stored listing %s", c.category, listing.ID)
	return nil
}

// extractListing runs every field extractor over the rendered markup and
// assembles the raw record: scalar fields, the details table and the stats
// block merged into one mapping under cleaned keys.
func (c *Crawler) extractListing(markup, url, thumbnail string) (*models.RawListing, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(markup))
	if err != nil {
		return nil, fmt.Errorf("parse listing markup: %w", err)
	}

	phone, broker := c.ex.Phone(doc)

	fields := map[string]string{
		"Price":        c.ex.Price(doc),
		"Address":      c.ex.Address(doc),
		"Phone":        phone,
		"Reserved":     c.ex.Element(doc, ".reservation-strip__text", 0),
		"Description":  c.ex.ElementByID(doc, "collapsedText"),
		"Date_scraped": time.Now().Format("02/01/2006 15:04:05"),
	}

	for key, value := range c.ex.DetailsTable(doc) {
		fields[key] = value
	}
	for key, value := range c.ex.Stats(doc) {
		fields[key] = value
	}

	for _, key := range droppedTableKeys {
		delete(fields, key)
	}

	cleaned := make(map[string]string, len(fields))
	for key, value := range fields {
		cleaned[cleanFieldKey(key)] = value
	}

	return &models.RawListing{
		Category:    c.category,
		URL:         url,
		Fields:      cleaned,
		Broker:      broker,
		Coordinates: c.ex.Coordinates(doc),
		Photos:      c.ex.Photos(doc),
		Misc:        c.ex.TextList(doc, ".special-comma"),
		Thumbnail:   thumbnail,
	}, nil
}
