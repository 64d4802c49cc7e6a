package scraper

import (
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/xhad/tendermatch/internal/models"
	"github.com/xhad/tendermatch/pkg/config"
)

// extractTender pulls tender fields out of one listing element. Each portal
// has its own markup; unknown portals and portals whose markup changed fall
// through to the generic extraction.
func extractTender(sel *goquery.Selection, src config.Source) models.Tender {
	var tender models.Tender

	switch src.Name {
	case "Tamil Nadu Tenders", "Maharashtra Tenders":
		// NIC eProcurement listing tables
		tender = extractTableRow(sel, src)
	case "Central Public Procurement Portal":
		tender.Title = strings.TrimSpace(sel.Find("h4").First().Text())
		tender.Description = strings.TrimSpace(sel.Find("p.description").First().Text())
		tender.Amount = ParseAmount(sel.Find("span.amount").First().Text())
		tender.Deadline = ParseDate(sel.Find("span.deadline").First().Text())
		tender.URL = resolveLink(sel.Find("a").First(), src.URL)
	case "Government e-Marketplace":
		tender.Title = strings.TrimSpace(sel.Find("h3.card-title").First().Text())
		tender.Description = strings.TrimSpace(sel.Find("div.card-text").First().Text())
		tender.Amount = ParseAmount(sel.Find("span.bid-amount").First().Text())
		tender.Deadline = ParseDate(sel.Find("span.deadline").First().Text())
		if href, ok := sel.Find("a.card-link").First().Attr("href"); ok {
			tender.URL = href
		} else {
			tender.URL = src.URL
		}
	default:
		tender = genericExtract(sel, src)
	}

	if tender.Title == "" || tender.Description == "" {
		tender = genericExtract(sel, src)
	}

	tender.RawText = strings.TrimSpace(sel.Text())
	return tender
}

func extractTableRow(sel *goquery.Selection, src config.Source) models.Tender {
	cells := sel.Find("td")
	var tender models.Tender

	tender.Title = strings.TrimSpace(cells.Eq(0).Text())
	tender.Description = strings.TrimSpace(cells.Eq(1).Text())
	tender.Amount = ParseAmount(cells.Eq(2).Text())
	tender.Deadline = ParseDate(cells.Eq(3).Text())
	tender.URL = resolveLink(sel.Find("a").First(), src.URL)

	return tender
}

// genericExtract is the fallback when source-specific selectors find
// nothing: first heading as title, all text as description, amount and date
// scanned from the text.
func genericExtract(sel *goquery.Selection, src config.Source) models.Tender {
	var tender models.Tender

	text := strings.TrimSpace(sel.Text())

	if heading := sel.Find("h1, h2, h3, h4, h5, h6").First(); heading.Length() > 0 {
		tender.Title = strings.TrimSpace(heading.Text())
	} else if len(text) > 100 {
		tender.Title = text[:100]
	} else {
		tender.Title = text
	}

	tender.Description = text
	tender.Amount = ParseAmount(text)
	tender.Deadline = ParseDate(text)
	tender.URL = resolveLink(sel.Find("a").First(), src.URL)

	return tender
}

func resolveLink(link *goquery.Selection, baseURL string) string {
	href, ok := link.Attr("href")
	if !ok || href == "" {
		return baseURL
	}
	if strings.HasPrefix(href, "http://") || strings.HasPrefix(href, "https://") {
		return href
	}
	return baseURL + href
}

// Patterns like "Rs. 1,000,000", "₹ 10.5 Lakhs" or "INR 5 Cr"
var amountPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)(?:Rs\.?|₹|INR)\s*([\d,]+(?:\.\d+)?)\s*(lakhs?|crores?|cr)?`),
	regexp.MustCompile(`(?i)([\d,]+(?:\.\d+)?)\s*(lakhs?|crores?|cr)`),
}

// ParseAmount extracts a monetary amount in rupees from text, converting
// lakh and crore notation.
func ParseAmount(text string) *float64 {
	for _, pattern := range amountPatterns {
		match := pattern.FindStringSubmatch(text)
		if match == nil {
			continue
		}

		raw := strings.ReplaceAll(match[1], ",", "")
		value, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			continue
		}

		unit := strings.ToLower(strings.TrimSpace(match[2]))
		switch {
		case strings.HasPrefix(unit, "lakh"):
			value *= 100_000
		case strings.HasPrefix(unit, "cr"):
			value *= 10_000_000
		}

		return &value
	}
	return nil
}

var datePatterns = []*regexp.Regexp{
	regexp.MustCompile(`\d{1,2}[/-]\d{1,2}[/-]\d{2,4}`), // DD/MM/YYYY or DD-MM-YYYY
	regexp.MustCompile(`(?i)\d{1,2}\s+(?:Jan|Feb|Mar|Apr|May|Jun|Jul|Aug|Sep|Oct|Nov|Dec)[a-z]*\s+\d{2,4}`), // DD Month YYYY
}

var dateLayouts = []string{
	"2/1/2006",
	"2/1/06",
	"2-1-2006",
	"2-1-06",
	"2 Jan 2006",
	"2 January 2006",
	"2 Jan 06",
}

// ParseDate extracts the first recognizable date from text. Portal dates are
// day-first.
func ParseDate(text string) *time.Time {
	for _, pattern := range datePatterns {
		match := pattern.FindString(text)
		if match == "" {
			continue
		}

		for _, layout := range dateLayouts {
			if parsed, err := time.Parse(layout, match); err == nil {
				return &parsed
			}
		}
	}
	return nil
}
