package storage

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	_ "github.com/lib/pq"

	"aruodas-scraper/models"
)

// PostgresStore keeps listings as JSONB documents in PostgreSQL, one row per
// (category, ad id) pair. The composite primary key makes Insert fail on a
// duplicate identifier instead of silently overwriting.
type PostgresStore struct {
	db *sql.DB
}

// NewPostgresStore opens a connection to PostgreSQL, runs schema migrations,
// and returns a ready-to-use store.
func NewPostgresStore(dsn string) (*PostgresStore, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("postgres: open: %w", err)
	}

	for i := 0; i < 10; i++ {
		if err = db.Ping(); err == nil {
			break
		}
		time.Sleep(2 * time.Second)
	}
	if err != nil {
		return nil, fmt.Errorf("postgres: ping failed after retries: %w", err)
	}

	store := &PostgresStore{db: db}
	if err := store.migrate(); err != nil {
		return nil, fmt.Errorf("postgres: migrate: %w", err)
	}

	return store, nil
}

func (s *PostgresStore) migrate() error {
	_, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS listings (
			category   VARCHAR(32) NOT NULL,
			ad_id      VARCHAR(16) NOT NULL,
			data       JSONB       NOT NULL,
			scraped_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			PRIMARY KEY (category, ad_id)
		);

		CREATE INDEX IF NOT EXISTS idx_listings_scraped_at ON listings(scraped_at);
	`)
	return err
}

// Insert stores one normalized listing. It returns an error when a record
// with the same identifier already exists in the category's partition.
func (s *PostgresStore) Insert(listing *models.Listing) error {
	if listing.ID == "" {
		return fmt.Errorf("postgres: refusing to insert listing without identifier")
	}

	data, err := json.Marshal(listing)
	if err != nil {
		return fmt.Errorf("postgres: marshal %s: %w", listing.ID, err)
	}

	_, err = s.db.Exec(`
		INSERT INTO listings (category, ad_id, data)
		VALUES ($1, $2, $3)
	`, string(listing.Category), listing.ID, data)
	if err != nil {
		return fmt.Errorf("postgres: insert %s/%s: %w", listing.Category, listing.ID, err)
	}
	return nil
}

// ListIdentifiers returns every ad identifier stored for the category.
func (s *PostgresStore) ListIdentifiers(category models.Category) (map[string]struct{}, error) {
	rows, err := s.db.Query(`
		SELECT ad_id FROM listings WHERE category = $1
	`, string(category))
	if err != nil {
		return nil, fmt.Errorf("postgres: list identifiers for %s: %w", category, err)
	}
	defer rows.Close()

	ids := make(map[string]struct{})
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("postgres: scan identifier: %w", err)
		}
		ids[id] = struct{}{}
	}
	return ids, rows.Err()
}

// Has reports whether the identifier exists in the category's partition.
func (s *PostgresStore) Has(category models.Category, id string) (bool, error) {
	var exists bool
	err := s.db.QueryRow(`
		SELECT EXISTS (SELECT 1 FROM listings WHERE category = $1 AND ad_id = $2)
	`, string(category), id).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("postgres: has %s/%s: %w", category, id, err)
	}
	return exists, nil
}

// FetchAll retrieves every stored listing — used by the insight service.
func (s *PostgresStore) FetchAll() ([]*models.Listing, error) {
	rows, err := s.db.Query(`
		SELECT data FROM listings ORDER BY category, ad_id
	`)
	if err != nil {
		return nil, fmt.Errorf("postgres: fetch all: %w", err)
	}
	defer rows.Close()

	var listings []*models.Listing
	for rows.Next() {
		var data []byte
		if err := rows.Scan(&data); err != nil {
			return nil, fmt.Errorf("postgres: scan row: %w", err)
		}
		listing := &models.Listing{}
		if err := json.Unmarshal(data, listing); err != nil {
			return nil, fmt.Errorf("postgres: unmarshal listing: %w", err)
		}
		listings = append(listings, listing)
	}
	return listings, rows.Err()
}

func (s *PostgresStore) Close() error {
	return s.db.Close()
}
