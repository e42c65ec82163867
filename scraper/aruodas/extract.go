package aruodas

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"aruodas-scraper/models"
	"aruodas-scraper/utils"
)

var (
	// coordRe matches the decimal numbers a map link embeds, e.g. 54.687157.
	coordRe = regexp.MustCompile(`\d{2}\.\d+`)
	// roomSuffixRe matches the room-count tail sometimes glued onto the
	// header address, e.g. "Vilnius, Žirmūnai, ..., 2 kamb. butas".
	roomSuffixRe = regexp.MustCompile(`, \d+ kamb`)
)

// droppedTableKeys are amenity checkbox groups whose values are empty
// decoration rows; they carry no data and are removed before normalization.
var droppedTableKeys = []string{
	"Ypatybės:",
	"Papildomos patalpos:",
	"Papildoma įranga:",
	"Apsauga:",
}

// Extractor pulls individual fields out of a parsed listing page. Every
// method tolerates absent or malformed markup by returning its empty value;
// anomalies are logged, never propagated, so one missing field cannot take
// down the rest of the record.
type Extractor struct {
	logger *utils.Logger
}

// NewExtractor creates an Extractor with the given logger.
func NewExtractor(logger *utils.Logger) *Extractor {
	return &Extractor{logger: logger}
}

// Element returns the trimmed text of the index-th element matching selector,
// or "" when there is no such element.
func (e *Extractor) Element(doc *goquery.Document, selector string, index int) string {
	sel := doc.Find(selector)
	if index >= sel.Length() {
		e.logger.Debug("[extract] No element for %q[%d]", selector, index)
		return ""
	}
	return strings.TrimSpace(sel.Eq(index).Text())
}

// ElementByID returns the trimmed text content of the element with the given
// id, or "".
func (e *Extractor) ElementByID(doc *goquery.Document, id string) string {
	return strings.TrimSpace(doc.Find("#" + id).Text())
}

// TextList returns the trimmed text of every element matching selector.
func (e *Extractor) TextList(doc *goquery.Document, selector string) []string {
	var out []string
	doc.Find(selector).Each(func(_ int, s *goquery.Selection) {
		out = append(out, strings.TrimSpace(s.Text()))
	})
	return out
}

// DetailsTable extracts the label/value pairs of the listing's details block.
// Labels that are empty after trimming are formatting-only rows; they are
// filtered out first so the i-th surviving label pairs with the i-th value.
func (e *Extractor) DetailsTable(doc *goquery.Document) map[string]string {
	table := make(map[string]string)

	container := doc.Find(".obj-details").First()
	if container.Length() == 0 {
		e.logger.Debug("[extract] No details table")
		return table
	}

	var labels []string
	container.Find("dt").Each(func(_ int, s *goquery.Selection) {
		if label := strings.TrimSpace(s.Text()); label != "" {
			labels = append(labels, label)
		}
	})

	values := container.Find("dd")
	for i, label := range labels {
		if i >= values.Length() {
			e.logger.Debug("[extract] Details table ran out of values at %q", label)
			break
		}
		table[label] = strings.TrimSpace(values.Eq(i).Text())
	}
	return table
}

// Stats extracts the advert statistics block. The site ships it in two
// variants; when neither is present (project-style adverts) a single record
// carrying only the advert link survives as the fallback.
func (e *Extractor) Stats(doc *goquery.Document) map[string]string {
	if stats, ok := e.statsFrom(doc, ".obj-stats.simple dl"); ok {
		return stats
	}
	if stats, ok := e.statsFrom(doc, ".obj-stats dl"); ok {
		return stats
	}

	e.logger.Debug("[extract] No stats block, using advert-info fallback")
	return map[string]string{
		"Nuoroda": e.Element(doc, ".project__advert-info__value", 0),
	}
}

func (e *Extractor) statsFrom(doc *goquery.Document, selector string) (map[string]string, bool) {
	dl := doc.Find(selector).First()
	if dl.Length() == 0 {
		return nil, false
	}

	names := dl.Find("dt")
	values := dl.Find("dd")

	stats := make(map[string]string)
	names.Each(func(i int, s *goquery.Selection) {
		if i >= values.Length() {
			return
		}
		stats[strings.TrimSpace(s.Text())] = strings.TrimSpace(values.Eq(i).Text())
	})
	return stats, true
}

// Thumbs returns the deduplicated href targets of the listing's thumbnail
// links.
func (e *Extractor) Thumbs(doc *goquery.Document) []string {
	seen := make(map[string]struct{})
	var thumbs []string

	doc.Find("a.link-obj-thumb").Each(func(_ int, s *goquery.Selection) {
		href, ok := s.Attr("href")
		if !ok || href == "" {
			return
		}
		if _, dup := seen[href]; dup {
			return
		}
		seen[href] = struct{}{}
		thumbs = append(thumbs, href)
	})
	return thumbs
}

// Photos returns the thumbnail targets that point at the image CDN.
func (e *Extractor) Photos(doc *goquery.Document) []string {
	var photos []string
	for _, url := range e.Thumbs(doc) {
		if strings.Contains(url, "img.dgn") {
			photos = append(photos, url)
		}
	}
	return photos
}

// Coordinates scans the thumbnail links for a map link and pulls the first
// two decimal numbers out of it as (latitude, longitude). A listing without
// a map link yields nil.
func (e *Extractor) Coordinates(doc *goquery.Document) *models.Coordinates {
	for _, url := range e.Thumbs(doc) {
		if !strings.Contains(url, "maps") {
			continue
		}
		matches := coordRe.FindAllString(url, -1)
		if len(matches) < 2 {
			e.logger.Debug("[extract] Map link without coordinate pair: %s", url)
			continue
		}
		lat, errLat := strconv.ParseFloat(matches[0], 64)
		lng, errLng := strconv.ParseFloat(matches[1], 64)
		if errLat != nil || errLng != nil {
			continue
		}
		return &models.Coordinates{Latitude: lat, Longitude: lng}
	}
	return nil
}

// Phone extracts the contact number. Broker adverts carry a dedicated phone
// element; the generic element is the fallback, and which path succeeded is
// exactly what decides the broker flag.
func (e *Extractor) Phone(doc *goquery.Document) (string, bool) {
	if phone := e.Element(doc, ".phone_item_0", 0); phone != "" {
		return phone, true
	}
	return e.Element(doc, ".phone", 0), false
}

// Address extracts the header address, truncated at the room-count suffix the
// site sometimes appends to it.
func (e *Extractor) Address(doc *goquery.Document) string {
	address := strings.TrimSpace(doc.Find(".obj-header-text").First().Text())
	if address == "" {
		e.logger.Debug("[extract] No header address")
		return ""
	}
	return strings.TrimSpace(roomSuffixRe.Split(address, 2)[0])
}

// Price returns the raw price text, e.g. "85 000 €".
func (e *Extractor) Price(doc *goquery.Document) string {
	return e.Element(doc, ".price-eur", 0)
}

// cleanFieldKey turns a site field label into a stable map key: the trailing
// colon goes, spaces become underscores.
func cleanFieldKey(key string) string {
	return strings.ReplaceAll(strings.ReplaceAll(key, ":", ""), " ", "_")
}
