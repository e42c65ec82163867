package aruodas

import (
	"fmt"
	"strings"
	"testing"

	"aruodas-scraper/config"
	"aruodas-scraper/models"
	"aruodas-scraper/utils"
)

// fakeFetcher serves canned markup per URL and can be told to fail a URL a
// number of times before succeeding.
type fakeFetcher struct {
	pages    map[string]string
	failures map[string]int
	fetched  []string
}

func (f *fakeFetcher) Fetch(url string) (string, error) {
	f.fetched = append(f.fetched, url)
	if n := f.failures[url]; n > 0 {
		f.failures[url] = n - 1
		return "", fmt.Errorf("simulated render fault for %s", url)
	}
	markup, ok := f.pages[url]
	if !ok {
		return "", fmt.Errorf("no fixture for %s", url)
	}
	return markup, nil
}

func (f *fakeFetcher) fetchCount(url string) int {
	n := 0
	for _, u := range f.fetched {
		if u == url {
			n++
		}
	}
	return n
}

// memStore is an in-memory ListingStore recording every insert.
type memStore struct {
	records     map[models.Category]map[string]*models.Listing
	insertCalls int
}

func newMemStore() *memStore {
	return &memStore{records: make(map[models.Category]map[string]*models.Listing)}
}

func (m *memStore) Insert(listing *models.Listing) error {
	m.insertCalls++
	part := m.records[listing.Category]
	if part == nil {
		part = make(map[string]*models.Listing)
		m.records[listing.Category] = part
	}
	if _, exists := part[listing.ID]; exists {
		return fmt.Errorf("duplicate identifier %s", listing.ID)
	}
	part[listing.ID] = listing
	return nil
}

func (m *memStore) ListIdentifiers(category models.Category) (map[string]struct{}, error) {
	ids := make(map[string]struct{})
	for id := range m.records[category] {
		ids[id] = struct{}{}
	}
	return ids, nil
}

func (m *memStore) Has(category models.Category, id string) (bool, error) {
	_, ok := m.records[category][id]
	return ok, nil
}

func (m *memStore) FetchAll() ([]*models.Listing, error) {
	var out []*models.Listing
	for _, part := range m.records {
		for _, l := range part {
			out = append(out, l)
		}
	}
	return out, nil
}

func (m *memStore) Close() error { return nil }

func testConfig() *config.Config {
	return &config.Config{
		BaseURL:         "https://www.aruodas.lt",
		FetchRetries:    1,
		ListingRetries:  1,
		FetchBackoffSec: 0,
		CrawlRetries:    3,
		CrawlBackoffSec: 0,
	}
}

func indexMarkup(pages int, ids ...string) string {
	var b strings.Builder
	b.WriteString(`<div class="pagination">`)
	for p := 1; p <= pages; p++ {
		fmt.Fprintf(&b, `<a class="page-bt">%d</a>`, p)
	}
	b.WriteString(`</div>`)
	for _, id := range ids {
		fmt.Fprintf(&b, `<a href="https://www.aruodas.lt/butai-vilniuje-%s/">ad</a>`, id)
		fmt.Fprintf(&b, `<div class="list-photo-v2"><img src="https://img.dgn.lt/%s.jpg"></div>`, id)
	}
	return b.String()
}

func listingMarkup(id string) string {
	return fmt.Sprintf(`
		<div class="obj-header-text">Vilnius, Žirmūnai</div>
		<span class="price-eur">85 000 €</span>
		<div class="phone">+370 600 00000</div>
		<div class="obj-details">
			<dt>Plotas:</dt><dd>45,5 m²</dd>
		</div>
		<div class="obj-stats simple"><dl>
			<dt>Nuoroda</dt><dd>https://www.aruodas.lt/%s/</dd>
		</dl></div>`, id)
}

// newTestCrawler wires a crawler over fixtures for a two-page category with
// two listings per page.
func newTestCrawler(t *testing.T, store *memStore, fetcher *fakeFetcher) *Crawler {
	t.Helper()
	crawler, err := NewCrawler(testConfig(), models.ApartmentsForSale, fetcher, store, utils.NewLogger())
	if err != nil {
		t.Fatalf("NewCrawler: %v", err)
	}
	return crawler
}

func twoPageFixtures(ids1, ids2 []string) map[string]string {
	pages := map[string]string{
		"https://www.aruodas.lt/butai/":            indexMarkup(2, ids1...),
		"https://www.aruodas.lt/butai/puslapis/1/": indexMarkup(2, ids1...),
		"https://www.aruodas.lt/butai/puslapis/2/": indexMarkup(2, ids2...),
	}
	for _, id := range append(append([]string{}, ids1...), ids2...) {
		pages["https://www.aruodas.lt/"+id+"/"] = listingMarkup(id)
	}
	return pages
}

func TestCrawlSkipsSeenIdentifiers(t *testing.T) {
	store := newMemStore()
	store.records[models.ApartmentsForSale] = map[string]*models.Listing{
		"4-1111111": {ID: "4-1111111", Category: models.ApartmentsForSale},
	}

	fetcher := &fakeFetcher{
		pages: twoPageFixtures([]string{"4-1111111", "4-2222222"}, []string{"4-3333333", "4-4444444"}),
	}
	crawler := newTestCrawler(t, store, fetcher)

	if err := crawler.Run(); err != nil {
		t.Fatalf("Run: %v", err)
	}

	// exactly the three unseen identifiers get inserted
	if store.insertCalls != 3 {
		t.Errorf("insertCalls = %d; want 3", store.insertCalls)
	}
	if crawler.seen.Size() != 4 {
		t.Errorf("seen size = %d; want 4", crawler.seen.Size())
	}
	if n := fetcher.fetchCount("https://www.aruodas.lt/4-1111111/"); n != 0 {
		t.Errorf("seen listing fetched %d times; want 0", n)
	}
}

func TestCrawlResumesAtFaultedPage(t *testing.T) {
	store := newMemStore()
	fetcher := &fakeFetcher{
		pages: twoPageFixtures([]string{"4-1111111"}, []string{"4-2222222"}),
		// first attempt at the page-2 listing faults past the listing retry
		failures: map[string]int{"https://www.aruodas.lt/4-2222222/": 1},
	}
	crawler := newTestCrawler(t, store, fetcher)

	if err := crawler.Run(); err != nil {
		t.Fatalf("Run: %v", err)
	}

	// the outer retry re-entered at page 2, not page 1
	if n := fetcher.fetchCount("https://www.aruodas.lt/butai/puslapis/1/"); n != 1 {
		t.Errorf("page 1 enumerated %d times; want 1", n)
	}
	if n := fetcher.fetchCount("https://www.aruodas.lt/butai/puslapis/2/"); n != 2 {
		t.Errorf("page 2 enumerated %d times; want 2", n)
	}

	// the page-1 listing persisted before the fault is not re-persisted
	if store.insertCalls != 2 {
		t.Errorf("insertCalls = %d; want 2", store.insertCalls)
	}
	if n := fetcher.fetchCount("https://www.aruodas.lt/4-1111111/"); n != 1 {
		t.Errorf("page-1 listing fetched %d times; want 1", n)
	}
}

func TestCrawlExhaustedRetriesIsFatal(t *testing.T) {
	store := newMemStore()
	fetcher := &fakeFetcher{
		pages:    twoPageFixtures([]string{"4-1111111"}, []string{"4-2222222"}),
		failures: map[string]int{"https://www.aruodas.lt/4-2222222/": 100},
	}
	crawler := newTestCrawler(t, store, fetcher)

	if err := crawler.Run(); err == nil {
		t.Fatal("expected fatal error after exhausting outer retries")
	}

	// progress made before the fault sticks
	if _, ok := store.records[models.ApartmentsForSale]["4-1111111"]; !ok {
		t.Error("page-1 listing should have been persisted")
	}
}

func TestCrawlDropsListingWithoutIdentifier(t *testing.T) {
	store := newMemStore()
	pages := twoPageFixtures([]string{"4-1111111"}, []string{"4-2222222"})
	// stats carry no usable link: no identifier can be derived
	pages["https://www.aruodas.lt/4-2222222/"] = `
		<span class="price-eur">10 000 €</span>
		<div class="obj-stats simple"><dl>
			<dt>Nuoroda</dt><dd>not-a-listing-link</dd>
		</dl></div>`

	fetcher := &fakeFetcher{pages: pages}
	crawler := newTestCrawler(t, store, fetcher)

	if err := crawler.Run(); err != nil {
		t.Fatalf("Run: %v", err)
	}

	if store.insertCalls != 1 {
		t.Errorf("insertCalls = %d; want 1", store.insertCalls)
	}
	if crawler.seen.Contains("4-2222222") {
		t.Error("identifier-less listing must not join the seen-set")
	}
}

func TestCrawlThumbnailPairing(t *testing.T) {
	store := newMemStore()
	pages := twoPageFixtures([]string{"4-1111111"}, []string{"4-2222222"})
	// page 2: two listings but three thumbnails — pairing must be disabled
	pages["https://www.aruodas.lt/butai/puslapis/2/"] = indexMarkup(2, "4-2222222", "4-3333333") +
		`<div class="list-photo-v2"><img src="https://img.dgn.lt/extra.jpg"></div>`
	pages["https://www.aruodas.lt/4-3333333/"] = listingMarkup("4-3333333")

	fetcher := &fakeFetcher{pages: pages}
	crawler := newTestCrawler(t, store, fetcher)

	if err := crawler.Run(); err != nil {
		t.Fatalf("Run: %v", err)
	}

	part := store.records[models.ApartmentsForSale]
	if len(part) != 3 {
		t.Fatalf("stored %d listings; want 3", len(part))
	}
	if part["4-1111111"].Thumbnail != "https://img.dgn.lt/4-1111111.jpg" {
		t.Errorf("page-1 thumbnail hint missing: %q", part["4-1111111"].Thumbnail)
	}
	if part["4-2222222"].Thumbnail != "" || part["4-3333333"].Thumbnail != "" {
		t.Error("mismatched page must scrape without thumbnail hints")
	}
}
