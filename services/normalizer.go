package services

import (
	"errors"
	"regexp"
	"strconv"
	"strings"
	"time"

	"aruodas-scraper/models"
	"aruodas-scraper/utils"
)

// ErrMissingIdentifier marks a listing whose link field carried no derivable
// ad identifier. Such a record cannot be deduplicated and must not be
// persisted; re-parsing the same markup would reproduce the same absence, so
// the caller drops it instead of retrying.
var ErrMissingIdentifier = errors.New("no ad identifier derivable from listing link")

const (
	dateLayout    = "2006-01-02"
	scrapedLayout = "02/01/2006 15:04:05"
)

var yearRe = regexp.MustCompile(`\d{4}`)

// renameTable maps the site's Lithuanian field names (post key cleanup) to
// canonical English ones. Fields not listed keep their cleaned key and land
// in the record's Extra map.
var renameTable = map[string]string{
	"Namo_numeris":                         "House_number",
	"Plotas":                               "Area",
	"Kambarių_sk.":                         "Number_of_rooms",
	"Aukštas":                              "Floor",
	"Aukštų_sk.":                           "Number_of_floors",
	"Metai":                                "Year",
	"Pastato_tipas":                        "Building_type",
	"Šildymas":                             "Heating",
	"Įrengimas":                            "Furnishing",
	"Pastato_energijos_suvartojimo_klasė":  "Energy_consumption_class",
	"Nuoroda":                              "Link",
	"Įdėtas":                               "Uploaded",
	"Redaguotas":                           "Edited",
	"Aktyvus_iki":                          "Active_until",
	"Įsiminė":                              "Saved",
	"Peržiūrėjo":                           "Viewed",
	"Sklypo_plotas":                        "Plot_area",
	"Namo_tipas":                           "House_type",
	"Artimiausias_vandens_telkinys":        "Nearest_water_reservoir",
	"Iki_vandens_telkinio_(m)":             "Distance_to_water_reservoir",
}

// Normalizer coerces a RawListing into the canonical Listing. Every coercion
// is independent: a field that refuses to parse is logged and parked in its
// raw textual form, never aborting the rest of the record. Only a missing
// identifier is a hard failure.
type Normalizer struct {
	logger *utils.Logger
}

// NewNormalizer creates a Normalizer with the given logger.
func NewNormalizer(logger *utils.Logger) *Normalizer {
	return &Normalizer{logger: logger}
}

// Normalize renames, coerces and keys the raw listing. The returned error is
// non-nil only for ErrMissingIdentifier.
func (n *Normalizer) Normalize(raw *models.RawListing) (*models.Listing, error) {
	fields := make(map[string]string, len(raw.Fields))
	for key, value := range raw.Fields {
		if canonical, ok := renameTable[key]; ok {
			fields[canonical] = value
		} else {
			fields[key] = value
		}
	}

	listing := &models.Listing{
		Category:    raw.Category,
		Broker:      raw.Broker,
		Coordinates: raw.Coordinates,
		Photos:      raw.Photos,
		Misc:        raw.Misc,
		Thumbnail:   raw.Thumbnail,
		Extra:       make(map[string]string),
	}

	take := func(key string) (string, bool) {
		value, ok := fields[key]
		if ok {
			delete(fields, key)
		}
		return value, ok && value != ""
	}

	if v, ok := take("Price"); ok {
		if price, err := strconv.Atoi(stripSpaces(strings.ReplaceAll(v, "€", ""))); err == nil {
			listing.Price = price
		} else {
			n.keepRaw(listing, "Price", v, err)
		}
	}

	if v, ok := take("Area"); ok {
		cleaned := strings.ReplaceAll(strings.TrimSpace(strings.ReplaceAll(v, "m²", "")), ",", ".")
		if area, err := strconv.ParseFloat(strings.TrimSpace(cleaned), 64); err == nil {
			listing.Area = area
		} else {
			n.keepRaw(listing, "Area", v, err)
		}
	}

	if v, ok := take("Address"); ok {
		listing.Address = v
		listing.City = strings.TrimSpace(strings.SplitN(v, ",", 2)[0])
	}

	if v, ok := take("Number_of_rooms"); ok {
		n.coerceInt(listing, "Number_of_rooms", v, &listing.NumberOfRooms)
	}
	if v, ok := take("Number_of_floors"); ok {
		n.coerceInt(listing, "Number_of_floors", v, &listing.NumberOfFloors)
	}
	if v, ok := take("Saved"); ok {
		n.coerceInt(listing, "Saved", v, &listing.Saved)
	}

	if v, ok := take("Viewed"); ok {
		// rendered as "total/today", only the total matters
		n.coerceInt(listing, "Viewed", strings.TrimSpace(strings.SplitN(v, "/", 2)[0]), &listing.Viewed)
	}

	if v, ok := take("Floor"); ok {
		if floor, err := strconv.Atoi(v); err == nil {
			listing.Floor = floor
		} else {
			// mezzanine and attic labels are not numbers, keep the text
			n.logger.Warn("[normalizer] Floor %q is not numeric, keeping raw", v)
			listing.FloorRaw = v
		}
	}

	if v, ok := take("Year"); ok {
		if year, err := strconv.Atoi(v); err == nil {
			listing.Year = year
		} else {
			// e.g. "1998-2015" means built plus renovated
			years := yearRe.FindAllString(v, 2)
			switch {
			case len(years) >= 2:
				listing.Year, _ = strconv.Atoi(years[0])
				listing.RenovationYear, _ = strconv.Atoi(years[1])
			case len(years) == 1:
				listing.Year, _ = strconv.Atoi(years[0])
			default:
				n.keepRaw(listing, "Year", v, err)
			}
		}
	}

	if v, ok := take("Uploaded"); ok {
		n.coerceDate(listing, "Uploaded", v, dateLayout, &listing.Uploaded)
	}
	if v, ok := take("Edited"); ok {
		n.coerceDate(listing, "Edited", v, dateLayout, &listing.Edited)
	}
	if v, ok := take("Active_until"); ok {
		n.coerceDate(listing, "Active_until", v, dateLayout, &listing.ActiveUntil)
	}
	if v, ok := take("Date_scraped"); ok {
		n.coerceDate(listing, "Date_scraped", v, scrapedLayout, &listing.DateScraped)
	}

	if v, ok := take("Reserved"); ok {
		listing.Reserved = v != ""
	}
	if v, ok := take("Phone"); ok {
		listing.Phone = v
	}
	if v, ok := take("Description"); ok {
		listing.Description = v
	}

	if v, ok := take("Distance_to_water_reservoir"); ok {
		cleaned := stripSpaces(v)
		if _, err := strconv.Atoi(cleaned); err == nil {
			listing.Extra["Distance_to_water_reservoir"] = cleaned
		} else {
			n.keepRaw(listing, "Distance_to_water_reservoir", v, err)
		}
	}

	// identifier derivation runs last and is the only hard requirement
	if v, ok := take("Link"); ok {
		listing.Link = v
		listing.ID = models.ExtractAdID(v)
	}

	// everything left is a category- or sub-type-specific field
	for key, value := range fields {
		if value == "" {
			continue
		}
		listing.Extra[key] = value
	}

	if listing.ID == "" {
		return nil, ErrMissingIdentifier
	}

	return listing, nil
}

func (n *Normalizer) coerceInt(listing *models.Listing, key, value string, dst *int) {
	parsed, err := strconv.Atoi(strings.TrimSpace(value))
	if err != nil {
		n.keepRaw(listing, key, value, err)
		return
	}
	*dst = parsed
}

func (n *Normalizer) coerceDate(listing *models.Listing, key, value, layout string, dst *time.Time) {
	parsed, err := time.Parse(layout, strings.TrimSpace(value))
	if err != nil {
		n.keepRaw(listing, key, value, err)
		return
	}
	*dst = parsed
}

// keepRaw logs a coercion failure and parks the raw value so the record keeps
// the field in textual form.
func (n *Normalizer) keepRaw(listing *models.Listing, key, value string, err error) {
	n.logger.Warn("[normalizer] Could not coerce %s=%q: %v", key, value, err)
	listing.Extra[key] = value
}

// stripSpaces drops regular and non-breaking spaces, the site's thousands
// separators.
func stripSpaces(s string) string {
	return strings.Map(func(r rune) rune {
		if r == ' ' || r == ' ' {
			return -1
		}
		return r
	}, s)
}
