package catalog

import (
	"html"
	"net/url"
	"regexp"
	"strconv"
	"strings"
)

const DefaultImageQuality = 95

var sentenceBreak = regexp.MustCompile(`\.\s+`)

func sentences(description string) []string {
	parts := sentenceBreak.Split(strings.TrimSpace(description), -1)
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

// FormatDescription splits a description into one paragraph per sentence.
// Every paragraph but the last gets its period back.
func FormatDescription(description string) []string {
	parts := sentences(description)
	for i := 0; i < len(parts)-1; i++ {
		parts[i] += "."
	}
	return parts
}

// FormatDescriptionHTML wraps each sentence in an escaped <p> element.
func FormatDescriptionHTML(description string) string {
	var b strings.Builder
	for _, sentence := range sentences(description) {
		b.WriteString("<p>")
		b.WriteString(html.EscapeString(strings.TrimSuffix(sentence, ".")))
		b.WriteString(".</p>")
	}
	return b.String()
}

func isShopifyCDN(src string) bool {
	return strings.Contains(src, "cdn.shopify.com") || strings.Contains(src, ".myshopify.com")
}

// ImageURL adds the platform's resize parameters to CDN images. GIFs and
// foreign URLs are returned untouched.
func ImageURL(src string, width, quality int) string {
	if src == "" || strings.Contains(strings.ToLower(src), ".gif") || !isShopifyCDN(src) {
		return src
	}
	if quality <= 0 {
		quality = DefaultImageQuality
	}
	params := url.Values{}
	params.Set("width", strconv.Itoa(width))
	params.Set("quality", strconv.Itoa(quality))
	params.Set("format", "auto")

	sep := "?"
	if strings.Contains(src, "?") {
		sep = "&"
	}
	return src + sep + params.Encode()
}
