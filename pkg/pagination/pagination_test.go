package pagination

import "testing"

func TestNormalizeLimit(t *testing.T) {
	cases := map[int]int{0: DefaultLimit, -3: DefaultLimit, 10: 10, MaxLimit + 1: MaxLimit}
	for in, want := range cases {
		if got := NormalizeLimit(in); got != want {
			t.Fatalf("NormalizeLimit(%d) = %d, want %d", in, got, want)
		}
	}
}

func TestCursorRoundTrip(t *testing.T) {
	offset, err := ParseCursor(EncodeCursor(42))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if offset != 42 {
		t.Fatalf("expected 42, got %d", offset)
	}

	if offset, err := ParseCursor(""); err != nil || offset != 0 {
		t.Fatalf("empty cursor should be the first page, got %d %v", offset, err)
	}
	if _, err := ParseCursor("not base64!"); err == nil {
		t.Fatalf("expected decode error")
	}
}

func TestPageWalksAllItems(t *testing.T) {
	items := []int{1, 2, 3, 4, 5}

	var seen []int
	params := Params{Limit: 2}
	for pages := 0; ; pages++ {
		if pages > 5 {
			t.Fatalf("pagination did not terminate")
		}
		page, next, err := Page(items, params)
		if err != nil {
			t.Fatalf("page: %v", err)
		}
		seen = append(seen, page...)
		if next == "" {
			break
		}
		params.Cursor = next
	}

	if len(seen) != len(items) {
		t.Fatalf("expected %d items, got %v", len(items), seen)
	}
	for i := range items {
		if seen[i] != items[i] {
			t.Fatalf("unexpected order %v", seen)
		}
	}
}

func TestPagePastEnd(t *testing.T) {
	page, next, err := Page([]string{"a"}, Params{Cursor: EncodeCursor(5)})
	if err != nil {
		t.Fatalf("page: %v", err)
	}
	if len(page) != 0 || next != "" {
		t.Fatalf("expected empty last page, got %v %q", page, next)
	}
}
