package services

import (
	"fmt"
	"sort"

	"aruodas-scraper/models"
	"aruodas-scraper/utils"
)

// InsightService computes summary analytics over the stored dataset after a
// full run.
type InsightService struct {
	logger *utils.Logger
}

// NewInsightService creates an InsightService with the given logger.
func NewInsightService(logger *utils.Logger) *InsightService {
	return &InsightService{logger: logger}
}

// Generate computes the report. Listings without a price (rentals list it in
// a different field, some records simply lack it) are excluded from the price
// statistics but still counted everywhere else.
func (s *InsightService) Generate(listings []*models.Listing) *models.InsightReport {
	report := &models.InsightReport{
		TotalListings: len(listings),
		ByCategory:    make(map[models.Category]int),
		ByCity:        make(map[string]int),
	}

	priced := 0
	priceSum := 0

	for _, l := range listings {
		report.ByCategory[l.Category]++
		if l.City != "" {
			report.ByCity[l.City]++
		}
		if l.Broker {
			report.BrokerListings++
		}
		if l.Reserved {
			report.ReservedCount++
		}

		if l.Price <= 0 {
			continue
		}
		priced++
		priceSum += l.Price
		if report.MinPrice == 0 || l.Price < report.MinPrice {
			report.MinPrice = l.Price
		}
		if l.Price > report.MaxPrice {
			report.MaxPrice = l.Price
			report.MostExpensive = l
		}
	}

	if priced > 0 {
		report.AveragePrice = float64(priceSum) / float64(priced)
	}

	s.logger.Info("[insights] Report generated over %d listings (%d priced)",
		report.TotalListings, priced)
	return report
}

// Print writes a human-readable report to stdout.
func (s *InsightService) Print(report *models.InsightReport) {
	fmt.Println()
	fmt.Println("===== Dataset insights =====")
	fmt.Printf("Total listings:    %d\n", report.TotalListings)
	fmt.Printf("Broker listings:   %d\n", report.BrokerListings)
	fmt.Printf("Reserved listings: %d\n", report.ReservedCount)

	if report.MinPrice > 0 {
		fmt.Printf("Price range:       %d — %d € (avg %.0f €)\n",
			report.MinPrice, report.MaxPrice, report.AveragePrice)
	}
	if report.MostExpensive != nil {
		fmt.Printf("Most expensive:    %s (%d €) — %s\n",
			report.MostExpensive.ID, report.MostExpensive.Price, report.MostExpensive.Address)
	}

	fmt.Println("Listings per category:")
	for _, category := range models.Categories {
		if n := report.ByCategory[category]; n > 0 {
			fmt.Printf("  %-14s %d\n", category, n)
		}
	}

	if len(report.ByCity) > 0 {
		cities := make([]string, 0, len(report.ByCity))
		for city := range report.ByCity {
			cities = append(cities, city)
		}
		sort.Slice(cities, func(i, j int) bool {
			return report.ByCity[cities[i]] > report.ByCity[cities[j]]
		})
		if len(cities) > 10 {
			cities = cities[:10]
		}
		fmt.Println("Top cities:")
		for _, city := range cities {
			fmt.Printf("  %-20s %d\n", city, report.ByCity[city])
		}
	}
	fmt.Println()
}
