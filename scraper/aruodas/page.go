package aruodas

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"aruodas-scraper/models"
	"aruodas-scraper/utils"
)

// Enumerator walks a category's paginated index: total page count plus the
// listing identifiers and card thumbnails of each page.
type Enumerator struct {
	fetch   HTMLFetcher
	baseURL string
	logger  *utils.Logger
}

// NewEnumerator creates an Enumerator over the given site base URL.
func NewEnumerator(fetch HTMLFetcher, baseURL string, logger *utils.Logger) *Enumerator {
	return &Enumerator{fetch: fetch, baseURL: strings.TrimRight(baseURL, "/"), logger: logger}
}

// IndexURL returns the first index page of a category.
func (en *Enumerator) IndexURL(category models.Category) string {
	return fmt.Sprintf("%s/%s/", en.baseURL, category)
}

// PageURL returns the index URL of the given result page.
func (en *Enumerator) PageURL(category models.Category, page int) string {
	return fmt.Sprintf("%s/%s/puslapis/%d/", en.baseURL, category, page)
}

// ListingURL returns the canonical URL of a listing identifier.
func (en *Enumerator) ListingURL(id string) string {
	return fmt.Sprintf("%s/%s/", en.baseURL, id)
}

// MaxPage fetches a category's first index page and returns the highest page
// number its pagination controls advertise.
func (en *Enumerator) MaxPage(category models.Category) (int, error) {
	markup, err := en.fetch.Fetch(en.IndexURL(category))
	if err != nil {
		return 0, err
	}
	return parseMaxPage(markup)
}

// ListPage fetches one index page and returns the listing identifiers found
// on it together with the card thumbnails in document order. The two slices
// line up positionally only when their lengths match; the caller checks.
func (en *Enumerator) ListPage(category models.Category, page int) ([]string, []string, error) {
	markup, err := en.fetch.Fetch(en.PageURL(category, page))
	if err != nil {
		return nil, nil, err
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(markup))
	if err != nil {
		return nil, nil, fmt.Errorf("parse page %d of %s: %w", page, category, err)
	}

	return parseListingIDs(doc), parseThumbnails(doc), nil
}

// parseMaxPage collects the pagination button labels, keeps the numeric ones
// and returns the maximum.
func parseMaxPage(markup string) (int, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(markup))
	if err != nil {
		return 0, fmt.Errorf("parse index page: %w", err)
	}

	maxPage := 0
	doc.Find("a.page-bt").Each(func(_ int, s *goquery.Selection) {
		n, err := strconv.Atoi(strings.TrimSpace(s.Text()))
		if err != nil {
			return // arrow buttons and ellipses
		}
		if n > maxPage {
			maxPage = n
		}
	})

	if maxPage == 0 {
		return 0, fmt.Errorf("no numeric pagination controls found")
	}
	return maxPage, nil
}

// parseListingIDs collects every anchor pointing at a listing and returns the
// deduplicated set of ad identifiers in document order.
func parseListingIDs(doc *goquery.Document) []string {
	seen := make(map[string]struct{})
	var ids []string

	doc.Find("a").Each(func(_ int, s *goquery.Selection) {
		href, ok := s.Attr("href")
		if !ok || !strings.Contains(href, "aruodas.lt") {
			return
		}
		id := models.ExtractAdID(href)
		if id == "" {
			return
		}
		if _, dup := seen[id]; dup {
			return
		}
		seen[id] = struct{}{}
		ids = append(ids, id)
	})
	return ids
}

// parseThumbnails collects the listing-card thumbnail srcs in document order.
func parseThumbnails(doc *goquery.Document) []string {
	var srcs []string
	doc.Find("div.list-photo-v2 img").Each(func(_ int, s *goquery.Selection) {
		if src, ok := s.Attr("src"); ok && src != "" {
			srcs = append(srcs, src)
		}
	})
	return srcs
}
