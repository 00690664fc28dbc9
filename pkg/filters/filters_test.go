package filters

import (
	"slices"
	"sync"
	"testing"
)

func testOptions() Options {
	return Options{
		Authors:    []string{"Disciples", "Sri Aurobindo", "The Mother"},
		Groups:     []string{"CWSA", "CWM", "Disciples"},
		BookTitles: []string{"Savitri", "The Life Divine", "Agenda", "Letters on Yoga"},
		BookTitlesByGroup: map[string][]string{
			"CWSA": {"Savitri", "The Life Divine", "Letters on Yoga"},
			"CWM":  {"Agenda"},
		},
	}
}

func TestParseSearchType(t *testing.T) {
	tests := []struct {
		in      string
		want    SearchType
		wantErr bool
	}{
		{"", SearchAll, false},
		{"exact", SearchExact, false},
		{" ALL_WORDS ", SearchAllWords, false},
		{"semantic", SearchSemantic, false},
		{"fuzzy", "", true},
	}
	for _, tt := range tests {
		got, err := ParseSearchType(tt.in)
		if (err != nil) != tt.wantErr {
			t.Fatalf("ParseSearchType(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
		}
		if got != tt.want {
			t.Fatalf("ParseSearchType(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestSetSelectedShallowMerge(t *testing.T) {
	h := NewHolder(testOptions())

	h.SetSelected(Partial{Author: String("The Mother")})
	sel := h.SetSelected(Partial{SearchType: Type(SearchExact)})

	if sel.Author != "The Mother" {
		t.Fatalf("author lost on unrelated update: %+v", sel)
	}
	if sel.SearchType != SearchExact {
		t.Fatalf("expected exact search type, got %q", sel.SearchType)
	}

	sel = h.SetSelected(Partial{Author: String("Sri Aurobindo")})
	if sel.Author != "Sri Aurobindo" {
		t.Fatalf("expected last write to win, got %q", sel.Author)
	}
}

func TestBookTitleOptionsFollowGroup(t *testing.T) {
	h := NewHolder(testOptions())

	if got := h.BookTitleOptions(); len(got) != 4 {
		t.Fatalf("expected full title list without group, got %v", got)
	}

	h.SetSelected(Partial{Group: String("CWM")})
	if got := h.BookTitleOptions(); !slices.Equal(got, []string{"Agenda"}) {
		t.Fatalf("expected CWM titles, got %v", got)
	}

	h.SetSelected(Partial{Group: String("Unknown")})
	if got := h.BookTitleOptions(); len(got) != 0 {
		t.Fatalf("expected no titles for unknown group, got %v", got)
	}

	h.SetSelected(Partial{Group: String("")})
	if got := h.BookTitleOptions(); len(got) != 4 {
		t.Fatalf("expected fallback to full list when group cleared, got %v", got)
	}
}

func TestGroupChangeClearsStaleBookTitle(t *testing.T) {
	h := NewHolder(testOptions())
	h.SetSelected(Partial{Group: String("CWSA"), BookTitle: String("Savitri")})

	sel := h.SetSelected(Partial{Group: String("CWM")})
	if sel.BookTitle != "" {
		t.Fatalf("expected stale title cleared, got %q", sel.BookTitle)
	}
}

func TestGroupChangeKeepsValidBookTitle(t *testing.T) {
	h := NewHolder(testOptions())
	h.SetSelected(Partial{Group: String("CWSA"), BookTitle: String("Savitri")})

	sel := h.SetSelected(Partial{Group: String("")})
	if sel.BookTitle != "Savitri" {
		t.Fatalf("title still in full list should survive clearing group, got %q", sel.BookTitle)
	}
}

func TestExplicitTitleInSameUpdateIsKept(t *testing.T) {
	h := NewHolder(testOptions())
	sel := h.SetSelected(Partial{Group: String("CWM"), BookTitle: String("Savitri")})
	if sel.BookTitle != "Savitri" {
		t.Fatalf("explicit title must be passed through as given, got %q", sel.BookTitle)
	}
}

func TestNormalizeOptions(t *testing.T) {
	in := Options{
		Authors:    []string{"Nolini Kanta Gupta", "The Mother", "Disciples", "Sri Aurobindo", "Amal Kiran"},
		Groups:     []string{"Disciples", "CWSA", "CWM"},
		BookTitles: []string{"savitri", "Agenda", "Ésotérisme", "Essays on the Gita"},
		BookTitlesByGroup: map[string][]string{
			"CWSA": {"Savitri", "Essays on the Gita"},
		},
	}

	out := NormalizeOptions(in, []string{"Sri Aurobindo", "The Mother", "Disciples"})

	wantAuthors := []string{"Sri Aurobindo", "The Mother", "Disciples", "Amal Kiran", "Nolini Kanta Gupta"}
	if !slices.Equal(out.Authors, wantAuthors) {
		t.Fatalf("authors = %v, want %v", out.Authors, wantAuthors)
	}
	if !slices.Equal(out.Groups, []string{"CWM", "CWSA", "Disciples"}) {
		t.Fatalf("groups not sorted: %v", out.Groups)
	}
	wantTitles := []string{"Agenda", "Ésotérisme", "Essays on the Gita", "savitri"}
	if !slices.Equal(out.BookTitles, wantTitles) {
		t.Fatalf("titles = %v, want %v", out.BookTitles, wantTitles)
	}
	if !slices.Equal(out.BookTitlesByGroup["CWSA"], []string{"Essays on the Gita", "Savitri"}) {
		t.Fatalf("group titles not sorted: %v", out.BookTitlesByGroup["CWSA"])
	}
	if in.Authors[0] != "Nolini Kanta Gupta" {
		t.Fatal("NormalizeOptions must not modify its input")
	}
}

func TestGroupLabel(t *testing.T) {
	labels := map[string]string{"CWSA": "Collected Works of Sri Aurobindo"}

	if got := GroupLabel(labels, "CWSA"); got != "Collected Works of Sri Aurobindo" {
		t.Fatalf("unexpected label %q", got)
	}
	if got := GroupLabel(labels, "CWM"); got != "CWM" {
		t.Fatalf("acronyms should pass through, got %q", got)
	}
	if got := GroupLabel(labels, "letters of disciples"); got != "Letters Of Disciples" {
		t.Fatalf("expected title case fallback, got %q", got)
	}
}

func TestApplyFormSelection(t *testing.T) {
	h := NewHolder(testOptions())
	h.Apply(Selection{Group: "CWSA", BookTitle: "Savitri", SearchType: SearchExact})

	// The form resubmits the old title together with a new group.
	got := h.Apply(Selection{Group: "CWM", BookTitle: "Savitri", SearchType: SearchExact})
	if got.BookTitle != "" {
		t.Fatalf("stale title should be dropped, got %q", got.BookTitle)
	}

	got = h.Apply(Selection{Group: "CWM", BookTitle: "Agenda"})
	if got.BookTitle != "Agenda" || got.SearchType != SearchAll {
		t.Fatalf("unexpected selection %+v", got)
	}

	got = h.Apply(Selection{Group: "", BookTitle: "Savitri", Author: "Sri Aurobindo"})
	if got.BookTitle != "Savitri" || got.Author != "Sri Aurobindo" {
		t.Fatalf("title valid for the full list should be kept, got %+v", got)
	}
}

func TestApplyDropsToEmptyTitle(t *testing.T) {
	h := NewHolder(testOptions())
	h.Apply(Selection{BookTitle: "Agenda"})

	// Savitri is not a CWM title; the previous choice must not come back.
	got := h.Apply(Selection{Group: "CWM", BookTitle: "Savitri"})
	if got.Group != "CWM" || got.BookTitle != "" {
		t.Fatalf("expected CWM with no title, got %+v", got)
	}
}

func TestApplyConcurrentWithSetSelected(t *testing.T) {
	h := NewHolder(testOptions())
	opts := testOptions()

	var wg sync.WaitGroup
	stop := make(chan struct{})
	defer func() {
		close(stop)
		wg.Wait()
	}()
	wg.Add(1)
	go func() {
		defer wg.Done()
		groups := []string{"CWSA", "CWM", ""}
		titles := []string{"Agenda", "Savitri", ""}
		for i := 0; ; i++ {
			select {
			case <-stop:
				return
			default:
			}
			h.SetSelected(Partial{Group: String(groups[i%3]), BookTitle: String(titles[i%3])})
		}
	}()

	forms := []Selection{
		{Group: "CWM", BookTitle: "Savitri"},
		{Group: "CWSA", BookTitle: "Savitri"},
		{Group: "", BookTitle: "Agenda"},
		{Group: "CWM", BookTitle: ""},
	}
	for i := 0; i < 2000; i++ {
		sel := forms[i%len(forms)]
		got := h.Apply(sel)
		if got.Group != sel.Group {
			t.Fatalf("expected group %q, got %+v", sel.Group, got)
		}
		if got.BookTitle != "" && got.BookTitle != sel.BookTitle {
			t.Fatalf("Apply(%+v) kept a title that was not submitted: %+v", sel, got)
		}
		if got.BookTitle == "" && sel.BookTitle != "" && slices.Contains(opts.TitlesFor(sel.Group), sel.BookTitle) {
			t.Fatalf("Apply(%+v) dropped a valid title: %+v", sel, got)
		}
	}
}
