// Package normalize cleans free-form catalog input before it is stored.
package normalize

import (
	"regexp"
	"strings"

	htmltomarkdown "github.com/JohannesKaufmann/html-to-markdown/v2"
	"golang.org/x/text/currency"
	"golang.org/x/text/language"
	"golang.org/x/text/unicode/norm"
)

// htmlTagPattern detects the tags editors paste from rich-text sources.
var htmlTagPattern = regexp.MustCompile(`<(p|br|div|span|b|i|strong|em|a|ul|ol|li|h[1-6]|blockquote)[\s>/]`)

var whitespace = regexp.MustCompile(`\s+`)

// ContainsHTML reports whether s appears to contain HTML markup.
func ContainsHTML(s string) bool {
	return htmlTagPattern.MatchString(strings.ToLower(s))
}

// Markdown converts an HTML bio or description to Markdown.
// Input without HTML is returned trimmed but otherwise unchanged, and so is
// input the converter rejects.
func Markdown(s string) string {
	s = strings.TrimSpace(s)
	if s == "" || !ContainsHTML(s) {
		return s
	}

	markdown, err := htmltomarkdown.ConvertString(s)
	if err != nil {
		return s
	}
	return strings.TrimSpace(markdown)
}

// Text drops NUL bytes, composes Unicode to NFC and collapses runs of whitespace.
// Names typed on different keyboards then compare and sort the same way.
func Text(s string) string {
	s = strings.ReplaceAll(s, "\x00", "")
	s = norm.NFC.String(s)
	return strings.TrimSpace(whitespace.ReplaceAllString(s, " "))
}

// CountryCode converts an ISO 3166-1 alpha-2 or alpha-3 code to alpha-2.
// "de", "DEU" -> "DE". Returns empty string for anything that is not a country.
func CountryCode(raw string) string {
	s := strings.ToUpper(strings.TrimSpace(raw))
	if s == "" {
		return ""
	}
	region, err := language.ParseRegion(s)
	if err != nil || !region.IsCountry() {
		return ""
	}
	return region.String()
}

// CurrencyCode upper-cases and checks an ISO 4217 code. "eur" -> "EUR".
// Returns empty string for unknown currencies.
func CurrencyCode(raw string) string {
	s := strings.ToUpper(strings.TrimSpace(raw))
	if s == "" {
		return ""
	}
	unit, err := currency.ParseISO(s)
	if err != nil {
		return ""
	}
	return unit.String()
}
