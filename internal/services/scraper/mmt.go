package scraper

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/url"
	"strconv"
	"strings"

	"golang.org/x/net/html"

	domsvc "FlightFare/internal/domain/service"
	"FlightFare/pkg/config"
	xhttp "FlightFare/pkg/http"
	"FlightFare/pkg/logger"
)

const (
	priceContainerClass = "priceSection"
	priceClass          = "actual-price"
)

// MMTScraper reads comparison prices from a MakeMyTrip flight search page.
type MMTScraper struct {
	client    *xhttp.Client
	baseURL   string
	maxPrices int
	log       *logger.Logger
}

// NewMMTScraper creates a scraper from configuration.
func NewMMTScraper(cfg config.ScraperConfig, log *logger.Logger) *MMTScraper {
	maxPrices := cfg.MaxPrices
	if maxPrices <= 0 {
		maxPrices = 5
	}
	return &MMTScraper{
		client: xhttp.NewClient(
			xhttp.WithTimeout(cfg.Timeout),
			xhttp.WithUserAgent(cfg.UserAgent),
			xhttp.WithHeader("Accept", "text/html,application/xhtml+xml"),
		),
		baseURL:   strings.TrimRight(cfg.BaseURL, "/"),
		maxPrices: maxPrices,
		log:       log.With("scraper"),
	}
}

// SearchURL builds the search page URL. date is DD/MM/YYYY and is sent as DD-MM-YYYY.
func (s *MMTScraper) SearchURL(origin, destination, date string) string {
	itinerary := fmt.Sprintf("%s-%s-%s", origin, destination, strings.ReplaceAll(date, "/", "-"))
	return s.baseURL + "/flight/search?itinerary=" + url.QueryEscape(itinerary)
}

// ScrapeComparisonPrices returns up to maxPrices prices in page order, or an empty slice on any failure.
func (s *MMTScraper) ScrapeComparisonPrices(ctx context.Context, origin, destination, date string) []int {
	u := s.SearchURL(origin, destination, date)

	var body []byte
	if err := s.client.SendAndParse(ctx, &xhttp.RequestOptions{Method: xhttp.MethodGet, URL: u}, &body); err != nil {
		s.log.Warn("comparison scrape failed", logger.String("url", u), logger.Error(err))
		return []int{}
	}

	prices, err := ExtractPrices(bytes.NewReader(body), s.maxPrices)
	if err != nil {
		s.log.Warn("comparison page unparsable", logger.String("url", u), logger.Error(err))
		return []int{}
	}
	s.log.Debug("comparison prices scraped", logger.String("url", u), logger.Int("count", len(prices)))
	return prices
}

// ExtractPrices finds ".priceSection .actual-price" elements, looks at the first max of them and
// keeps those whose text parses as an integer once "₹", "," and spaces are removed.
func ExtractPrices(r io.Reader, max int) ([]int, error) {
	doc, err := html.Parse(r)
	if err != nil {
		return nil, fmt.Errorf("parse html: %w", err)
	}

	var texts []string
	var walk func(n *html.Node, inSection bool)
	walk = func(n *html.Node, inSection bool) {
		if len(texts) >= max {
			return
		}
		if n.Type == html.ElementNode {
			if inSection && hasClass(n, priceClass) {
				texts = append(texts, textContent(n))
				return
			}
			if hasClass(n, priceContainerClass) {
				inSection = true
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c, inSection)
		}
	}
	walk(doc, false)

	prices := make([]int, 0, len(texts))
	for _, t := range texts {
		if p, ok := parsePrice(t); ok {
			prices = append(prices, p)
		}
	}
	return prices, nil
}

func parsePrice(s string) (int, bool) {
	s = strings.NewReplacer("₹", "", ",", "").Replace(s)
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, false
	}
	p, err := strconv.Atoi(s)
	if err != nil {
		return 0, false
	}
	return p, true
}

func hasClass(n *html.Node, class string) bool {
	for _, a := range n.Attr {
		if a.Key != "class" {
			continue
		}
		for _, c := range strings.Fields(a.Val) {
			if c == class {
				return true
			}
		}
	}
	return false
}

func textContent(n *html.Node) string {
	var b strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.TextNode {
			b.WriteString(n.Data)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return b.String()
}

// Disabled is the scraper used when comparison scraping is switched off.
type Disabled struct{}

func (Disabled) ScrapeComparisonPrices(context.Context, string, string, string) []int { return []int{} }

var (
	_ domsvc.ComparisonScraper = (*MMTScraper)(nil)
	_ domsvc.ComparisonScraper = Disabled{}
)
