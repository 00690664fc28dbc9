package render

import (
	"net/url"
	"strconv"
	"strings"
)

// PDFLink builds a deep link to page of the PDF at pdfURL. Any fragment
// already present on pdfURL is dropped. Pages below 1 link to page 1. An
// empty pdfURL yields an empty link.
func PDFLink(pdfURL string, page int) string {
	base, _, _ := strings.Cut(strings.TrimSpace(pdfURL), "#")
	if base == "" {
		return ""
	}
	if u, err := url.Parse(base); err == nil {
		base = u.String()
	}
	if page < 1 {
		page = 1
	}
	return base + pageAnchor + strconv.Itoa(page)
}
