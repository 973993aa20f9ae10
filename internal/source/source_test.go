package source

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/cognicore/feedlens/pkg/feedlens/internalerr"
)

func seqIDs() func() string {
	n := 0
	return func() string {
		n++
		return "gen-" + string(rune('0'+n))
	}
}

func TestReadJSONL(t *testing.T) {
	input := strings.Join([]string{
		`{"id": "a1", "customer_id": "c1", "text": "Great support team", "source": "email", "rating": 5, "timestamp": "2026-03-09T10:00:00Z"}`,
		``,
		`{"id": 42, "text": null, "source": "web"}`,
		`not json`,
		`{"text": "<p>Package <b>late</b></p><p>again</p>", "content_type": "text/html", "timestamp": "2026-03-09 08:30:00"}`,
		`{"id": "bad-ts", "text": "x", "timestamp": "yesterday"}`,
	}, "\n")

	l := &Loader{NewID: seqIDs()}
	items, err := l.ReadJSONL(strings.NewReader(input), "test.jsonl")
	if err != nil {
		t.Fatalf("ReadJSONL: %v", err)
	}
	if len(items) != 3 {
		t.Fatalf("got %d items, want 3: %+v", len(items), items)
	}

	first := items[0]
	if first.ID != "a1" || first.CustomerID != "c1" || first.Source != "email" || first.Rating != 5 {
		t.Errorf("first = %+v", first)
	}
	if !first.Timestamp.Equal(time.Date(2026, 3, 9, 10, 0, 0, 0, time.UTC)) {
		t.Errorf("timestamp = %v", first.Timestamp)
	}

	if items[1].ID != "42" || items[1].Text != "" {
		t.Errorf("numeric id / null text = %+v", items[1])
	}
	if !items[1].Timestamp.IsZero() {
		t.Errorf("missing timestamp should stay zero, got %v", items[1].Timestamp)
	}

	if items[2].ID != "gen-1" {
		t.Errorf("generated id = %q", items[2].ID)
	}
	if items[2].Text != "Package late again" {
		t.Errorf("html text = %q", items[2].Text)
	}
}

func TestReadCSV(t *testing.T) {
	input := "id,Text,source,customer_id,rating,timestamp\n" +
		"r1,\"Slow delivery, box damaged\",web,c9,2,2026-03-01\n" +
		",Love it,app,,not-a-number,\n" +
		"r3\n"

	l := &Loader{NewID: seqIDs()}
	items, err := l.ReadCSV(strings.NewReader(input), "test.csv")
	if err != nil {
		t.Fatalf("ReadCSV: %v", err)
	}
	if len(items) != 3 {
		t.Fatalf("got %d items, want 3", len(items))
	}
	if items[0].Text != "Slow delivery, box damaged" || items[0].Rating != 2 || items[0].CustomerID != "c9" {
		t.Errorf("row 1 = %+v", items[0])
	}
	if !items[0].Timestamp.Equal(time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)) {
		t.Errorf("row 1 timestamp = %v", items[0].Timestamp)
	}
	if items[1].ID != "gen-1" || items[1].Rating != 0 {
		t.Errorf("row 2 = %+v", items[1])
	}
	if items[2].ID != "r3" || items[2].Text != "" {
		t.Errorf("short row = %+v", items[2])
	}
}

func TestReadCSVRequiresText(t *testing.T) {
	_, err := (&Loader{}).ReadCSV(strings.NewReader("id,comment\n1,hi\n"), "bad.csv")
	if !errors.Is(err, internalerr.ErrInvalidInput) {
		t.Errorf("err = %v, want ErrInvalidInput", err)
	}

	items, err := (&Loader{}).ReadCSV(strings.NewReader(""), "empty.csv")
	if err != nil || len(items) != 0 {
		t.Errorf("empty csv = %v, %v", items, err)
	}
}

func TestLoadByExtension(t *testing.T) {
	dir := t.TempDir()
	jsonl := filepath.Join(dir, "in.JSONL")
	if err := os.WriteFile(jsonl, []byte(`{"id":"x","text":"hello"}`+"\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	csvPath := filepath.Join(dir, "in.csv")
	if err := os.WriteFile(csvPath, []byte("text\nhello\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	txt := filepath.Join(dir, "in.txt")
	if err := os.WriteFile(txt, []byte("hello"), 0o644); err != nil {
		t.Fatal(err)
	}

	l := &Loader{}
	for _, p := range []string{jsonl, csvPath} {
		items, err := l.Load(p)
		if err != nil || len(items) != 1 || items[0].Text != "hello" {
			t.Errorf("Load(%s) = %+v, %v", filepath.Base(p), items, err)
		}
	}
	if _, err := l.Load(txt); !errors.Is(err, internalerr.ErrInvalidInput) {
		t.Errorf("Load(txt) = %v", err)
	}
	if _, err := l.Load(filepath.Join(dir, "missing.csv")); !errors.Is(err, os.ErrNotExist) {
		t.Errorf("Load(missing) = %v", err)
	}
}

func TestGeneratedIDsAreUUIDs(t *testing.T) {
	items, err := (&Loader{}).ReadJSONL(strings.NewReader(`{"text":"a"}`+"\n"+`{"text":"b"}`), "x")
	if err != nil {
		t.Fatal(err)
	}
	if len(items[0].ID) != 36 || items[0].ID == items[1].ID {
		t.Errorf("ids = %q, %q", items[0].ID, items[1].ID)
	}
}

func TestSupported(t *testing.T) {
	tests := map[string]bool{"a.jsonl": true, "b.CSV": true, "c.json": false, "d": false, "e.csv.tmp": false}
	for path, want := range tests {
		if got := Supported(path); got != want {
			t.Errorf("Supported(%q) = %v", path, got)
		}
	}
}

func TestStripHTML(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"plain text", "plain text"},
		{"<div>Hello<br>world</div>", "Hello world"},
		{"<style>p{}</style><p>Kept</p><script>alert(1)</script>", "Kept"},
		{"<ul><li>one</li><li>two</li></ul>", "one two"},
		{"fish &amp; chips", "fish & chips"},
	}
	for _, tt := range tests {
		if got := StripHTML(tt.in); got != tt.want {
			t.Errorf("StripHTML(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestParseTime(t *testing.T) {
	want := time.Date(2026, 3, 9, 8, 30, 0, 0, time.UTC)
	for _, s := range []string{"2026-03-09T08:30:00Z", "2026-03-09T10:30:00+02:00", "2026-03-09 08:30:00", "2026-03-09T08:30:00"} {
		got, err := ParseTime(s)
		if err != nil || !got.Equal(want) {
			t.Errorf("ParseTime(%q) = %v, %v", s, got, err)
		}
	}
	if _, err := ParseTime("03/09/2026"); !errors.Is(err, internalerr.ErrInvalidInput) {
		t.Errorf("unsupported layout err = %v", err)
	}
}
