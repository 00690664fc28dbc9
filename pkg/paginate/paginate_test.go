package paginate

import (
	"slices"
	"testing"
)

func ints(n int) []int {
	out := make([]int, n)
	for i := range out {
		out[i] = i
	}
	return out
}

func TestTotalPages(t *testing.T) {
	tests := []struct {
		n, size, want int
	}{
		{0, 10, 0},
		{1, 10, 1},
		{10, 10, 1},
		{11, 10, 2},
		{23, 10, 3},
		{100, 10, 10},
	}
	for _, tt := range tests {
		p := New(ints(tt.n), tt.size)
		if got := p.TotalPages(); got != tt.want {
			t.Fatalf("TotalPages(%d/%d) = %d, want %d", tt.n, tt.size, got, tt.want)
		}
	}
}

func TestLastPageSlice(t *testing.T) {
	p := New(ints(23), 10)
	if !p.GoToPage(3) {
		t.Fatal("expected page 3 to be reachable")
	}
	got := p.CurrentSlice()
	if len(got) != 3 {
		t.Fatalf("expected 3 items on last page, got %d", len(got))
	}
	if !slices.Equal(got, []int{20, 21, 22}) {
		t.Fatalf("unexpected last page contents: %v", got)
	}
}

func TestSliceLengths(t *testing.T) {
	for _, n := range []int{0, 7, 10, 20, 23, 99} {
		p := New(ints(n), 10)
		for page := 1; page <= p.TotalPages(); page++ {
			p.GoToPage(page)
			got := len(p.CurrentSlice())
			if got > 10 {
				t.Fatalf("n=%d page=%d: slice longer than page size: %d", n, page, got)
			}
			if page == p.TotalPages() {
				want := n % 10
				if want == 0 {
					want = 10
				}
				if got != want {
					t.Fatalf("n=%d last page: got %d items, want %d", n, got, want)
				}
			}
		}
		if n == 0 && len(p.CurrentSlice()) != 0 {
			t.Fatal("empty list must yield an empty slice")
		}
	}
}

func TestGoToPageOutOfRangeIsNoop(t *testing.T) {
	p := New(ints(23), 10)
	p.GoToPage(2)

	for _, n := range []int{-1, 0, 4, 100} {
		if p.GoToPage(n) {
			t.Fatalf("GoToPage(%d) reported success", n)
		}
		if p.Page() != 2 {
			t.Fatalf("GoToPage(%d) changed page to %d", n, p.Page())
		}
	}

	empty := New[int](nil, 10)
	if empty.GoToPage(1) {
		t.Fatal("no page is reachable on an empty list")
	}
	if empty.Page() != 1 {
		t.Fatalf("empty paginator page = %d, want 1", empty.Page())
	}
}

func TestNextPrev(t *testing.T) {
	p := New(ints(15), 10)

	if p.Prev() {
		t.Fatal("Prev on first page must fail")
	}
	if !p.Next() || p.Page() != 2 {
		t.Fatalf("Next failed, page=%d", p.Page())
	}
	if p.Next() {
		t.Fatal("Next on last page must fail")
	}
	if p.HasNext() || !p.HasPrev() {
		t.Fatal("unexpected HasNext/HasPrev on last page")
	}
}

func TestResetReturnsToFirstPage(t *testing.T) {
	p := New(ints(30), 10)
	p.GoToPage(3)
	p.Reset(ints(5))
	if p.Page() != 1 {
		t.Fatalf("expected page 1 after reset, got %d", p.Page())
	}
	if p.TotalPages() != 1 {
		t.Fatalf("expected 1 page after reset, got %d", p.TotalPages())
	}
}

func TestDefaultPageSize(t *testing.T) {
	if New(ints(3), 0).PageSize() != DefaultPageSize {
		t.Fatal("expected default page size for non-positive input")
	}
}

func TestWindow(t *testing.T) {
	tests := []struct {
		current, total int
		want           []int
	}{
		{1, 0, nil},
		{1, 1, []int{1}},
		{1, 3, []int{1, 2, 3}},
		{1, 10, []int{1, 2, 3, 4, 5}},
		{2, 10, []int{1, 2, 3, 4, 5}},
		{3, 10, []int{1, 2, 3, 4, 5}},
		{4, 10, []int{2, 3, 4, 5, 6}},
		{6, 10, []int{4, 5, 6, 7, 8}},
		{9, 10, []int{6, 7, 8, 9, 10}},
		{10, 10, []int{6, 7, 8, 9, 10}},
		{5, 5, []int{1, 2, 3, 4, 5}},
	}
	for _, tt := range tests {
		got := Window(tt.current, tt.total, DefaultWindow)
		if !slices.Equal(got, tt.want) {
			t.Fatalf("Window(%d, %d) = %v, want %v", tt.current, tt.total, got, tt.want)
		}
	}
}

func TestPaginatorWindow(t *testing.T) {
	p := New(ints(95), 10)
	p.GoToPage(10)
	if got := p.Window(DefaultWindow); !slices.Equal(got, []int{6, 7, 8, 9, 10}) {
		t.Fatalf("unexpected window %v", got)
	}
}
