package storage

import "aruodas-scraper/models"

// ListingStore is the persistence gateway the crawler writes through. Records
// are partitioned per category and keyed by the ad identifier; Insert fails
// when the key already exists, the seen-set is responsible for pre-checking.
type ListingStore interface {
	Insert(listing *models.Listing) error
	ListIdentifiers(category models.Category) (map[string]struct{}, error)
	Has(category models.Category, id string) (bool, error)
	FetchAll() ([]*models.Listing, error)
	Close() error
}
