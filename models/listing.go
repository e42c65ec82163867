package models

import "time"

// Category is one of the fixed aruodas.lt sub-markets the scraper covers.
type Category string

const (
	ApartmentsForSale Category = "butai"
	ApartmentsForRent Category = "butu-nuoma"
	HousesForSale     Category = "namai"
	HousesForRent     Category = "namu-nuoma"
	PremisesForSale   Category = "patalpos"
	PremisesForRent   Category = "patalpu-nuoma"
)

// Categories lists every sub-market in crawl order.
var Categories = []Category{
	ApartmentsForSale,
	ApartmentsForRent,
	HousesForSale,
	HousesForRent,
	PremisesForSale,
	PremisesForRent,
}

// Coordinates is a latitude/longitude pair extracted from a map link.
type Coordinates struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// RawListing holds everything extracted from one rendered listing page before
// normalization. Fields carries the stringly-typed values keyed by the site's
// own (cleaned) field names: the scalar page fields plus the details table and
// the stats block merged together. Absent fields are empty strings, never an
// error.
type RawListing struct {
	Category    Category
	URL         string
	Fields      map[string]string
	Broker      bool
	Coordinates *Coordinates
	Photos      []string
	Misc        []string
	Thumbnail   string
}

// Listing is the normalized record persisted per advertisement. ID is derived
// from the listing URL and is the primary key inside a category's partition.
// Extra holds table- and stats-sourced fields that have no canonical column;
// a field whose coercion failed keeps its raw text there too.
type Listing struct {
	ID       string   `json:"_id"`
	Category Category `json:"category"`

	Price   int     `json:"price,omitempty"`
	Area    float64 `json:"area,omitempty"`
	Address string  `json:"address,omitempty"`
	City    string  `json:"city,omitempty"`

	NumberOfRooms  int    `json:"number_of_rooms,omitempty"`
	NumberOfFloors int    `json:"number_of_floors,omitempty"`
	Floor          int    `json:"floor,omitempty"`
	FloorRaw       string `json:"floor_raw,omitempty"`

	Year           int `json:"year,omitempty"`
	RenovationYear int `json:"renovation_year,omitempty"`

	Uploaded    time.Time `json:"uploaded,omitempty"`
	Edited      time.Time `json:"edited,omitempty"`
	ActiveUntil time.Time `json:"active_until,omitempty"`
	DateScraped time.Time `json:"date_scraped,omitempty"`

	Viewed   int  `json:"viewed,omitempty"`
	Saved    int  `json:"saved,omitempty"`
	Reserved bool `json:"reserved,omitempty"`

	Coordinates *Coordinates `json:"coordinates,omitempty"`
	Phone       string       `json:"phone,omitempty"`
	Broker      bool         `json:"broker"`

	Description string   `json:"description,omitempty"`
	Link        string   `json:"link,omitempty"`
	Thumbnail   string   `json:"thumbnail,omitempty"`
	Photos      []string `json:"photos,omitempty"`
	Misc        []string `json:"misc,omitempty"`

	Extra map[string]string `json:"extra,omitempty"`
}

// InsightReport holds the analytics computed over the stored dataset after a
// full run.
type InsightReport struct {
	TotalListings  int
	AveragePrice   float64
	MinPrice       int
	MaxPrice       int
	MostExpensive  *Listing
	BrokerListings int
	ReservedCount  int
	ByCategory     map[Category]int
	ByCity         map[string]int
}
