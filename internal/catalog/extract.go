package catalog

import (
	"fmt"
	"net/url"
	"regexp"
	"strconv"
	"strings"

	"github.com/FranksOps/forager/internal/product"
	"github.com/PuerkitoBio/goquery"
)

var (
	priceRe = regexp.MustCompile(`(\d+[,.]\d+)`)

	// Package sizes as they appear in store product names: "500 g", "1,5l",
	// "10 buc", and multipacks like "6 x 330 ml".
	sizeRes = []*regexp.Regexp{
		regexp.MustCompile(`(?i)(\d+\s*x\s*\d+(?:[,.]\d+)?\s*(?:g|ml))`),
		regexp.MustCompile(`(?i)(\d+(?:[,.]\d+)?\s*(?:kg|g|l|ml|buc|bucăți))`),
	}
)

// Extractor parses catalog search result pages into product candidates.
type Extractor struct {
	base        *url.URL
	maxProducts int
}

// NewExtractor builds an extractor resolving product links against baseURL
// and returning at most maxProducts candidates per page.
func NewExtractor(baseURL string, maxProducts int) (*Extractor, error) {
	base, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("extractor: parsing base URL: %w", err)
	}
	if maxProducts <= 0 {
		maxProducts = 8
	}
	return &Extractor{base: base, maxProducts: maxProducts}, nil
}

// Extract pulls product candidates out of a search result page. Entries
// missing a name or a parseable positive price are discarded; a page that
// parses to nothing simply yields zero candidates.
func (e *Extractor) Extract(html string) ([]product.Candidate, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, fmt.Errorf("extractor: %w", err)
	}

	var candidates []product.Candidate
	doc.Find("div.box-product").EachWithBreak(func(_ int, sel *goquery.Selection) bool {
		if c, ok := e.extractOne(sel); ok {
			candidates = append(candidates, c)
		}
		return len(candidates) < e.maxProducts
	})

	return candidates, nil
}

func (e *Extractor) extractOne(sel *goquery.Selection) (product.Candidate, bool) {
	nameLink := sel.Find("a.bringo-product-name").First()
	name := strings.TrimSpace(nameLink.Text())
	if name == "" {
		return product.Candidate{}, false
	}

	price, ok := parsePrice(sel.Find("div.bringo-product-price").First().Text())
	if !ok {
		return product.Candidate{}, false
	}

	productURL := ""
	if href, exists := nameLink.Attr("href"); exists {
		if ref, err := url.Parse(href); err == nil {
			productURL = e.base.ResolveReference(ref).String()
		}
	}

	// The store marks unavailable items with an out-of-stock class somewhere
	// in the product block; absence means the item is purchasable.
	block, _ := goquery.OuterHtml(sel)
	available := !strings.Contains(strings.ToLower(block), "out-of-stock")

	return product.Candidate{
		Name:        name,
		Price:       price,
		URL:         productURL,
		Available:   available,
		PackageSize: extractPackageSize(name),
	}, true
}

// parsePrice pulls the first decimal number out of a price string like
// "24,99 Lei", tolerating thousands spacing and comma decimals. Prices that
// fail to parse or are not strictly positive are rejected.
func parsePrice(text string) (float64, bool) {
	m := priceRe.FindStringSubmatch(strings.ReplaceAll(text, " ", ""))
	if m == nil {
		return 0, false
	}

	price, err := strconv.ParseFloat(strings.ReplaceAll(m[1], ",", "."), 64)
	if err != nil || price <= 0 {
		return 0, false
	}
	return price, true
}

// extractPackageSize opportunistically pulls a weight/volume/count marker out
// of the product name. Absence is not an error.
func extractPackageSize(name string) string {
	for _, re := range sizeRes {
		if m := re.FindStringSubmatch(name); m != nil {
			return m[1]
		}
	}
	return ""
}
