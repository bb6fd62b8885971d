package extract

import (
	"fmt"
	"strings"
	"unicode"

	"github.com/antchfx/htmlquery"
	"golang.org/x/net/html"

	"github.com/comtw/admscrape/internal/model"
)

const (
	navigationEntries = `//ul[contains(concat(' ', normalize-space(@class), ' '), ' navigation ')]/li`
	yearTokenLength   = 3
)

// Years discovers the academic years offered for each method on the landing
// page. Methods are returned in navigation order.
//
// After an entry carrying a method label, the next list entry in document
// order (nested under the label or following it) starts the year run, which
// continues through that entry's siblings until another method label appears.
func Years(markup string) ([]model.AvailableYears, error) {
	doc, err := htmlquery.Parse(strings.NewReader(markup))
	if err != nil {
		return nil, fmt.Errorf("failed to parse landing page: %w", err)
	}

	var result []model.AvailableYears
	for _, entry := range htmlquery.Find(doc, navigationEntries) {
		label := entryLabel(entry)
		method, ok := model.MethodByLabel(label)
		if !ok {
			continue
		}

		first := htmlquery.FindOne(entry, "descendant::li")
		if first == nil {
			first = htmlquery.FindOne(entry, "following::li")
		}
		result = append(result, model.AvailableYears{
			Method: method,
			Label:  label,
			Years:  collectYears(first),
		})
	}
	return result, nil
}

// collectYears walks li siblings starting at first until a method label.
func collectYears(first *html.Node) []string {
	years := []string{}
	for n := first; n != nil; n = n.NextSibling {
		if n.Type != html.ElementNode || n.Data != "li" {
			continue
		}
		text := entryLabel(n)
		if _, isLabel := model.MethodByLabel(text); isLabel {
			break
		}
		if year, ok := yearToken(text); ok {
			years = append(years, year)
		}
	}
	return years
}

// entryLabel is the cleaned text of the entry's first link, or of the entry
// itself when it has none.
func entryLabel(n *html.Node) string {
	if a := htmlquery.FindOne(n, ".//a"); a != nil {
		return CleanString(htmlquery.InnerText(a))
	}
	return CleanString(htmlquery.InnerText(n))
}

// yearToken returns the leading three-digit year of "111學年度".
func yearToken(text string) (string, bool) {
	runes := []rune(text)
	if len(runes) < yearTokenLength {
		return "", false
	}
	for _, r := range runes[:yearTokenLength] {
		if !unicode.IsDigit(r) {
			return "", false
		}
	}
	return string(runes[:yearTokenLength]), true
}
