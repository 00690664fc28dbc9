package backend

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/rubiojr/aurosearch/pkg/filters"
)

// Request is one search submission.
type Request struct {
	Query     string
	Selection filters.Selection
	TopK      int
}

// Result is one hit returned by the backend /search endpoint.
type Result struct {
	Author      string     `json:"author,omitempty"`
	BookTitle   string     `json:"book_title"`
	ChapterName string     `json:"chapter_name,omitempty"`
	PageNumber  PageNumber `json:"page_number"`
	PDFURL      string     `json:"pdf_url"`
	Snippet     string     `json:"snippet"`
	Distance    *float64   `json:"distance,omitempty"`
	Priority    Priority   `json:"priority,omitempty"`
}

type searchResponse struct {
	Results []Result `json:"results"`
}

// PageNumber accepts both JSON numbers and numeric strings, since the corpus
// metadata stores page numbers either way.
type PageNumber int

func (p *PageNumber) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || string(data) == "null" {
		*p = 0
		return nil
	}
	if data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		s = strings.TrimSpace(s)
		if s == "" {
			*p = 0
			return nil
		}
		n, err := strconv.Atoi(s)
		if err != nil {
			return fmt.Errorf("page_number %q: %w", s, err)
		}
		*p = PageNumber(n)
		return nil
	}
	var f float64
	if err := json.Unmarshal(data, &f); err != nil {
		return fmt.Errorf("page_number: %w", err)
	}
	*p = PageNumber(int(f))
	return nil
}

// Priority is an opaque ranking hint; numbers are kept in their shortest
// decimal form.
type Priority string

func (p *Priority) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	switch {
	case len(data) == 0 || string(data) == "null":
		*p = ""
	case data[0] == '"':
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*p = Priority(s)
	default:
		var f float64
		if err := json.Unmarshal(data, &f); err != nil {
			return fmt.Errorf("priority: %w", err)
		}
		*p = Priority(strconv.FormatFloat(f, 'f', -1, 64))
	}
	return nil
}
