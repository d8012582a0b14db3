package collector

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"flightdash/internal/db"
)

// Scraper reads route pairs from a flight comparison page. Each route is
// marked up as <div class="route"><span class="origin">..</span><span class="dest">..</span></div>.
type Scraper struct {
	fetcher *Fetcher
	gen     *Generator
	url     string
}

func NewScraper(f *Fetcher, gen *Generator, pageURL string) *Scraper {
	return &Scraper{fetcher: f, gen: gen, url: pageURL}
}

func (s *Scraper) Name() string { return "scrape" }

func (s *Scraper) Fetch(ctx context.Context) ([]db.Flight, error) {
	body, err := s.fetcher.Get(ctx, s.url)
	if err != nil {
		return nil, err
	}
	pairs, err := ParseRoutes(bytes.NewReader(body))
	if err != nil {
		return nil, err
	}

	out := make([]db.Flight, 0, len(pairs))
	for _, p := range pairs {
		f := db.Flight{
			Origin:       p.Origin,
			Destination:  p.Destination,
			Airline:      s.gen.RandomAirline(),
			AircraftType: "Boeing 737",
			Source:       "scrape",
		}
		s.gen.Price(&f)
		out = append(out, f)
	}
	return out, nil
}

type RoutePair struct {
	Origin      string
	Destination string
}

// ParseRoutes extracts the route pairs of a comparison page. Blocks missing
// either city are ignored.
func ParseRoutes(r io.Reader) ([]RoutePair, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return nil, fmt.Errorf("parse html: %w", err)
	}

	var out []RoutePair
	doc.Find("div.route").Each(func(_ int, sel *goquery.Selection) {
		origin := strings.TrimSpace(sel.Find("span.origin").First().Text())
		dest := strings.TrimSpace(sel.Find("span.dest").First().Text())
		if origin != "" && dest != "" {
			out = append(out, RoutePair{Origin: origin, Destination: dest})
		}
	})
	return out, nil
}
