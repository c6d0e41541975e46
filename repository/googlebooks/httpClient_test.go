package googlebooksrepo

import "testing"

func TestToVolume(t *testing.T) {
	vi := volumeInfo{
		Title:         "Clean Architecture",
		Authors:       []string{"Robert C. Martin", "Someone Else"},
		Publisher:     "Prentice Hall",
		PublishedDate: "2017",
		PageCount:     432,
		Language:      "en",
	}
	vi.IndustryIdentifiers = []struct {
		Type       string `json:"type"`
		Identifier string `json:"identifier"`
	}{
		{Type: "ISBN_10", Identifier: "0134494164"},
		{Type: "ISBN_13", Identifier: "9780134494166"},
	}

	v := toVolume(vi)
	if v.ISBN != "9780134494166" {
		t.Fatalf("ISBN_13 should win, got %q", v.ISBN)
	}
	if v.Author != "Robert C. Martin" {
		t.Fatalf("first author expected, got %q", v.Author)
	}
	if v.Title != "Clean Architecture" || v.PageCount != 432 {
		t.Fatalf("volume fields not carried over: %+v", v)
	}
}

func TestToVolumeISBN10Fallback(t *testing.T) {
	vi := volumeInfo{Title: "Old Print"}
	vi.IndustryIdentifiers = []struct {
		Type       string `json:"type"`
		Identifier string `json:"identifier"`
	}{
		{Type: "ISBN_10", Identifier: "0134494164"},
	}
	if got := toVolume(vi).ISBN; got != "0134494164" {
		t.Fatalf("ISBN_10 fallback, got %q", got)
	}
}
