package services

import (
	"testing"

	"aruodas-scraper/models"
)

func TestInsightsGenerate(t *testing.T) {
	s := NewInsightService(newTestLogger())

	listings := []*models.Listing{
		{ID: "4-0000001", Category: models.ApartmentsForSale, Price: 100000, City: "Vilnius", Broker: true},
		{ID: "4-0000002", Category: models.ApartmentsForSale, Price: 200000, City: "Vilnius"},
		{ID: "4-0000003", Category: models.HousesForSale, Price: 300000, City: "Kaunas", Reserved: true},
		{ID: "4-0000004", Category: models.ApartmentsForRent, City: "Vilnius"}, // no price
	}

	report := s.Generate(listings)

	if report.TotalListings != 4 {
		t.Errorf("TotalListings = %d; want 4", report.TotalListings)
	}
	if report.MinPrice != 100000 || report.MaxPrice != 300000 {
		t.Errorf("price range = %d—%d; want 100000—300000", report.MinPrice, report.MaxPrice)
	}
	if report.AveragePrice != 200000 {
		t.Errorf("AveragePrice = %v; want 200000 (unpriced listing excluded)", report.AveragePrice)
	}
	if report.MostExpensive == nil || report.MostExpensive.ID != "4-0000003" {
		t.Errorf("MostExpensive = %+v", report.MostExpensive)
	}
	if report.BrokerListings != 1 || report.ReservedCount != 1 {
		t.Errorf("broker = %d, reserved = %d; want 1, 1", report.BrokerListings, report.ReservedCount)
	}
	if report.ByCity["Vilnius"] != 3 {
		t.Errorf("ByCity[Vilnius] = %d; want 3", report.ByCity["Vilnius"])
	}
	if report.ByCategory[models.ApartmentsForSale] != 2 {
		t.Errorf("ByCategory[butai] = %d; want 2", report.ByCategory[models.ApartmentsForSale])
	}
}

func TestInsightsEmptyDataset(t *testing.T) {
	s := NewInsightService(newTestLogger())
	report := s.Generate(nil)

	if report.TotalListings != 0 || report.AveragePrice != 0 || report.MostExpensive != nil {
		t.Errorf("empty dataset report = %+v", report)
	}
}
