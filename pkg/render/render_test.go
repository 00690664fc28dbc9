package render

import (
	"html/template"
	"strings"
	"testing"
	"time"

	"github.com/rubiojr/aurosearch/pkg/backend"
)

func TestPDFLink(t *testing.T) {
	tests := []struct {
		url  string
		page int
		want string
	}{
		{"http://pdfs/savitri.pdf", 12, "http://pdfs/savitri.pdf#page=12"},
		{"http://pdfs/savitri.pdf#page=3", 12, "http://pdfs/savitri.pdf#page=12"},
		{"http://pdfs/savitri.pdf#toolbar=0", 5, "http://pdfs/savitri.pdf#page=5"},
		{"http://pdfs/Letters on Yoga.pdf", 2, "http://pdfs/Letters%20on%20Yoga.pdf#page=2"},
		{"http://pdfs/agenda.pdf", 0, "http://pdfs/agenda.pdf#page=1"},
		{"", 4, ""},
	}
	for _, tt := range tests {
		if got := PDFLink(tt.url, tt.page); got != tt.want {
			t.Fatalf("PDFLink(%q, %d) = %q, want %q", tt.url, tt.page, got, tt.want)
		}
	}
}

func TestSnippetNewlinesAndHighlight(t *testing.T) {
	got := Snippet("foo\nbar", "foo")
	want := template.HTML("<mark>foo</mark><br>bar")
	if got != want {
		t.Fatalf("Snippet = %q, want %q", got, want)
	}
}

func TestSnippetCaseInsensitive(t *testing.T) {
	got := string(Snippet("Light and delight", "LIGHT"))
	want := "<mark>Light</mark> and de<mark>light</mark>"
	if got != want {
		t.Fatalf("Snippet = %q, want %q", got, want)
	}
}

func TestSnippetStripsMarkup(t *testing.T) {
	got := string(Snippet(`<script>alert("x")</script>Peace & <b onclick="x()">silence</b>`, ""))
	if strings.Contains(got, "script") || strings.Contains(got, "alert") {
		t.Fatalf("script survived sanitization: %q", got)
	}
	if strings.Contains(got, "<b") || strings.Contains(got, "onclick") {
		t.Fatalf("markup survived sanitization: %q", got)
	}
	if got != "Peace &amp; silence" {
		t.Fatalf("unexpected sanitized snippet: %q", got)
	}
}

func TestSnippetTermIsLiteral(t *testing.T) {
	got := string(Snippet("a+b = c and aab", "a+b"))
	if got != "<mark>a+b</mark> = c and aab" {
		t.Fatalf("regex metacharacters must match literally: %q", got)
	}

	got = string(Snippet("x < y", "<"))
	if got != "x <mark>&lt;</mark> y" {
		t.Fatalf("highlighted text must stay escaped: %q", got)
	}
}

func TestSnippetFallback(t *testing.T) {
	for _, in := range []string{"", "   ", "<script>only()</script>"} {
		if got := Snippet(in, "x"); got != NoSnippet {
			t.Fatalf("Snippet(%q) = %q, want fallback", in, got)
		}
	}
}

func TestNewCardFallbacks(t *testing.T) {
	c := NewCard(backend.Result{PDFURL: "http://pdfs/a.pdf", PageNumber: 3}, "", 1)
	if c.Title != NoTitle {
		t.Fatalf("expected %q, got %q", NoTitle, c.Title)
	}
	if c.Snippet != NoSnippet {
		t.Fatalf("expected snippet fallback, got %q", c.Snippet)
	}
	if c.Distance != NoValue || c.Priority != NoValue {
		t.Fatalf("expected N/A fallbacks, got %q %q", c.Distance, c.Priority)
	}
	if c.PDFLink != "http://pdfs/a.pdf#page=3" {
		t.Fatalf("unexpected link %q", c.PDFLink)
	}
}

func TestNewCardValues(t *testing.T) {
	d := 0.4567
	c := NewCard(backend.Result{
		Author:      "Sri Aurobindo",
		BookTitle:   "Savitri",
		ChapterName: "The Symbol Dawn",
		PageNumber:  7,
		PDFURL:      "http://pdfs/savitri.pdf",
		Snippet:     "It was the hour before the Gods awake.",
		Distance:    &d,
		Priority:    "1",
	}, "gods", 11)
	if c.Position != 11 || c.Title != "Savitri" || c.Chapter != "The Symbol Dawn" {
		t.Fatalf("unexpected card header: %+v", c)
	}
	if c.Distance != "0.46" {
		t.Fatalf("expected distance 0.46, got %q", c.Distance)
	}
	if c.Priority != "1" {
		t.Fatalf("expected priority 1, got %q", c.Priority)
	}
	if !strings.Contains(string(c.Snippet), "<mark>Gods</mark>") {
		t.Fatalf("expected highlighted term, got %q", c.Snippet)
	}
	if c.PDFLink != "http://pdfs/savitri.pdf#page=7" {
		t.Fatalf("unexpected link %q", c.PDFLink)
	}
}

func TestCardsPositions(t *testing.T) {
	cards := Cards([]backend.Result{{BookTitle: "A"}, {BookTitle: "B"}}, "", 20)
	if len(cards) != 2 || cards[0].Position != 21 || cards[1].Position != 22 {
		t.Fatalf("unexpected positions: %+v", cards)
	}
}

func TestTruncate(t *testing.T) {
	if got := Truncate("short", 10); got != "short" {
		t.Fatalf("got %q", got)
	}
	if got := Truncate("Letters on Yoga", 10); got != "Letters..." {
		t.Fatalf("got %q", got)
	}
}

func TestFormatTime(t *testing.T) {
	if got := FormatTime(time.Now()); got != "just now" {
		t.Fatalf("got %q", got)
	}
	if got := FormatTime(time.Now().Add(-2 * time.Hour)); got != "2 hours ago" {
		t.Fatalf("got %q", got)
	}
}

func TestTemplateFuncsGroupLabel(t *testing.T) {
	funcs := TemplateFuncs(map[string]string{"CWM": "Collected Works of The Mother"})
	tmpl := template.Must(template.New("t").Funcs(funcs).Parse(`{{groupLabel .}}`))
	var b strings.Builder
	if err := tmpl.Execute(&b, "CWM"); err != nil {
		t.Fatalf("execute: %v", err)
	}
	if b.String() != "Collected Works of The Mother" {
		t.Fatalf("got %q", b.String())
	}
}
