package textnorm

import "testing"

func TestLemmatize(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"items", "item"},
		{"batteries", "battery"},
		{"boxes", "box"},
		{"scratches", "scratch"},
		{"wishes", "wish"},
		{"addresses", "address"},
		{"cases", "case"},
		{"ties", "tie"},
		{"glass", "glass"},
		{"status", "status"},
		{"analysis", "analysis"},
		{"children", "child"},
		{"headaches", "headache"},
		{"movies", "movie"},
		{"news", "news"},
		{"bus", "bus"},
		{"gas", "gas"},
		{"12s", "12s"},
		{"check-ins", "check-in"},
		{"delivery", "delivery"},
	}
	for _, tt := range tests {
		if got := Lemmatize(tt.in); got != tt.want {
			t.Errorf("Lemmatize(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestLemmatizeIdempotent(t *testing.T) {
	words := []string{
		"items", "batteries", "boxes", "childrens", "analyses", "statuses",
		"buses", "crises", "leaves", "processes", "movies", "a-12s", "newss",
	}
	for w := range irregular {
		words = append(words, w, irregular[w])
	}
	for _, w := range words {
		once := Lemmatize(w)
		if twice := Lemmatize(once); twice != once {
			t.Errorf("Lemmatize not idempotent for %q: %q then %q", w, once, twice)
		}
	}
}
