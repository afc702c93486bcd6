package scraper

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"FlightFare/pkg/config"
	"FlightFare/pkg/logger"
)

const searchPage = `<html><body>
<div class="listing">
  <span class="actual-price">₹ 1,111</span>
  <div class="fli-list priceSection"><p class="actual-price">₹ 5,400</p></div>
  <div class="priceSection"><p class="actual-price"><span>₹</span> 6,125</p></div>
  <div class="priceSection"><p class="actual-price">Sold out</p></div>
  <div class="priceSection"><p class="actual-price">₹ 7,010</p></div>
  <div class="priceSection"><p class="actual-price">₹ 8,000</p></div>
  <div class="priceSection"><p class="actual-price">₹ 9,999</p></div>
</div>
</body></html>`

func TestExtractPricesFirstFiveElements(t *testing.T) {
	prices, err := ExtractPrices(strings.NewReader(searchPage), 5)
	if err != nil {
		t.Fatalf("extract: %v", err)
	}
	// "Sold out" consumes one of the five slots and is skipped; the price outside
	// a priceSection is ignored.
	want := []int{5400, 6125, 7010, 8000}
	if len(prices) != len(want) {
		t.Fatalf("expected %v, got %v", want, prices)
	}
	for i := range want {
		if prices[i] != want[i] {
			t.Fatalf("expected %v, got %v", want, prices)
		}
	}
}

func TestExtractPricesEmptyPage(t *testing.T) {
	prices, err := ExtractPrices(strings.NewReader("<html></html>"), 5)
	if err != nil || len(prices) != 0 {
		t.Fatalf("expected no prices, got %v %v", prices, err)
	}
}

func newTestScraper(baseURL string) *MMTScraper {
	return NewMMTScraper(config.ScraperConfig{
		BaseURL:   baseURL,
		UserAgent: "flightfare-test",
		Timeout:   time.Second,
		MaxPrices: 5,
	}, logger.Nop())
}

func TestScrapeComparisonPrices(t *testing.T) {
	var gotItinerary, gotUA string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotItinerary = r.URL.Query().Get("itinerary")
		gotUA = r.UserAgent()
		_, _ = w.Write([]byte(searchPage))
	}))
	defer srv.Close()

	prices := newTestScraper(srv.URL).ScrapeComparisonPrices(context.Background(), "DEL", "BOM", "15/10/2025")
	if len(prices) != 4 || prices[0] != 5400 {
		t.Fatalf("unexpected prices %v", prices)
	}
	if gotItinerary != "DEL-BOM-15-10-2025" {
		t.Fatalf("unexpected itinerary %q", gotItinerary)
	}
	if gotUA != "flightfare-test" {
		t.Fatalf("unexpected user agent %q", gotUA)
	}
}

func TestScrapeComparisonPricesFailureIsEmpty(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "blocked", http.StatusForbidden)
	}))
	defer srv.Close()

	prices := newTestScraper(srv.URL).ScrapeComparisonPrices(context.Background(), "DEL", "BOM", "15/10/2025")
	if prices == nil || len(prices) != 0 {
		t.Fatalf("expected empty non-nil slice, got %#v", prices)
	}

	prices = newTestScraper("http://127.0.0.1:1").ScrapeComparisonPrices(context.Background(), "DEL", "BOM", "15/10/2025")
	if len(prices) != 0 {
		t.Fatalf("expected empty result for unreachable host, got %v", prices)
	}
}

func TestSearchURL(t *testing.T) {
	s := newTestScraper("https://www.makemytrip.com/")
	got := s.SearchURL("DEL", "BOM", "15/10/2025")
	if got != "https://www.makemytrip.com/flight/search?itinerary=DEL-BOM-15-10-2025" {
		t.Fatalf("unexpected url %s", got)
	}
}
