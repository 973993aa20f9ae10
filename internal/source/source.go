// Package source loads customer feedback from JSONL and CSV exports.
package source

import (
	"bufio"
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/net/html"

	"github.com/cognicore/feedlens/pkg/feedlens/internalerr"
	"github.com/cognicore/feedlens/pkg/feedlens/logging"
	"github.com/cognicore/feedlens/pkg/feedlens/store"
)

// Supported file extensions.
const (
	ExtJSONL = ".jsonl"
	ExtCSV   = ".csv"
)

// timeLayouts are tried in order when parsing timestamps.
var timeLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	time.DateOnly,
}

// record is one feedback row as it appears in an export. Text is a pointer
// so JSON null and a missing field both map to the empty document.
type record struct {
	ID          json.RawMessage `json:"id"`
	CustomerID  string          `json:"customer_id"`
	Text        *string         `json:"text"`
	Source      string          `json:"source"`
	Category    string          `json:"category"`
	Rating      *float64        `json:"rating"`
	Timestamp   string          `json:"timestamp"`
	ContentType string          `json:"content_type"`
}

// Loader turns export files into feedback items.
type Loader struct {
	Logger *logging.Logger
	// NewID generates IDs for rows without one. Defaults to random UUIDs.
	NewID func() string
}

// Supported reports whether path has a loadable extension.
func Supported(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ExtJSONL, ExtCSV:
		return true
	}
	return false
}

// Load reads path, choosing the format by extension.
func (l *Loader) Load(path string) ([]store.Feedback, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	switch strings.ToLower(filepath.Ext(path)) {
	case ExtJSONL:
		return l.ReadJSONL(f, path)
	case ExtCSV:
		return l.ReadCSV(f, path)
	default:
		return nil, fmt.Errorf("%s: unsupported file type: %w", path, internalerr.ErrInvalidInput)
	}
}

// ReadJSONL reads one JSON object per line. Malformed lines are logged and
// skipped; blank lines are ignored.
func (l *Loader) ReadJSONL(r io.Reader, name string) ([]store.Feedback, error) {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 64*1024), 16*1024*1024)

	var items []store.Feedback
	lineNo := 0
	for sc.Scan() {
		lineNo++
		line := strings.TrimSpace(sc.Text())
		if line == "" {
			continue
		}
		var rec record
		if err := json.Unmarshal([]byte(line), &rec); err != nil {
			l.Logger.Warn("Skipping malformed JSON at line %d in %s: %v", lineNo, name, err)
			continue
		}
		f, err := l.convert(rec)
		if err != nil {
			l.Logger.Warn("Skipping line %d in %s: %v", lineNo, name, err)
			continue
		}
		items = append(items, f)
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("read %s: %w", name, err)
	}
	l.Logger.Info("Loaded %d feedback items from %s", len(items), name)
	return items, nil
}

// ReadCSV reads a CSV export with a header row. Only the text column is
// required; columns are matched by header name, case-insensitively.
func (l *Loader) ReadCSV(r io.Reader, name string) ([]store.Feedback, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read %s header: %w", name, err)
	}
	cols := make(map[string]int, len(header))
	for i, h := range header {
		cols[strings.ToLower(strings.TrimSpace(strings.TrimPrefix(h, "\ufeff")))] = i
	}
	if _, ok := cols["text"]; !ok {
		return nil, fmt.Errorf("%s: missing text column: %w", name, internalerr.ErrInvalidInput)
	}
	field := func(row []string, col string) string {
		i, ok := cols[col]
		if !ok || i >= len(row) {
			return ""
		}
		return strings.TrimSpace(row[i])
	}

	var items []store.Feedback
	for rowNo := 2; ; rowNo++ {
		row, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			l.Logger.Warn("Skipping row %d in %s: %v", rowNo, name, err)
			continue
		}

		text := field(row, "text")
		rec := record{
			CustomerID:  field(row, "customer_id"),
			Text:        &text,
			Source:      field(row, "source"),
			Category:    field(row, "category"),
			Timestamp:   field(row, "timestamp"),
			ContentType: field(row, "content_type"),
		}
		if id := field(row, "id"); id != "" {
			rec.ID = json.RawMessage(strconv.Quote(id))
		}
		if v := field(row, "rating"); v != "" {
			rating, err := strconv.ParseFloat(v, 64)
			if err != nil {
				l.Logger.Warn("Ignoring rating %q at row %d in %s", v, rowNo, name)
			} else {
				rec.Rating = &rating
			}
		}

		f, err := l.convert(rec)
		if err != nil {
			l.Logger.Warn("Skipping row %d in %s: %v", rowNo, name, err)
			continue
		}
		items = append(items, f)
	}
	l.Logger.Info("Loaded %d feedback items from %s", len(items), name)
	return items, nil
}

func (l *Loader) convert(rec record) (store.Feedback, error) {
	id, err := parseID(rec.ID)
	if err != nil {
		return store.Feedback{}, err
	}
	if id == "" {
		id = l.newID()
	}

	var text string
	if rec.Text != nil {
		text = *rec.Text
	}
	if strings.Contains(strings.ToLower(rec.ContentType), "html") {
		text = StripHTML(text)
	}

	f := store.Feedback{
		ID:         id,
		CustomerID: rec.CustomerID,
		Text:       text,
		Source:     rec.Source,
		Category:   rec.Category,
	}
	if rec.Rating != nil {
		f.Rating = *rec.Rating
	}
	if rec.Timestamp != "" {
		ts, err := ParseTime(rec.Timestamp)
		if err != nil {
			return store.Feedback{}, err
		}
		f.Timestamp = ts
	}
	return f, nil
}

func (l *Loader) newID() string {
	if l.NewID != nil {
		return l.NewID()
	}
	return uuid.NewString()
}

// parseID accepts string and numeric IDs.
func parseID(raw json.RawMessage) (string, error) {
	if len(raw) == 0 || string(raw) == "null" {
		return "", nil
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return strings.TrimSpace(s), nil
	}
	var n json.Number
	if err := json.Unmarshal(raw, &n); err == nil {
		return n.String(), nil
	}
	return "", fmt.Errorf("id %s: %w", raw, internalerr.ErrInvalidInput)
}

// ParseTime parses RFC 3339 timestamps, "YYYY-MM-DD HH:MM:SS" and plain
// dates. Values without a zone are taken as UTC.
func ParseTime(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, layout := range timeLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("timestamp %q: %w", s, internalerr.ErrInvalidInput)
}

// StripHTML returns the text content of an HTML fragment. Script and style
// elements are dropped and block elements are separated by spaces.
func StripHTML(s string) string {
	doc, err := html.Parse(strings.NewReader(s))
	if err != nil {
		return s
	}

	var buf strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode && (n.Data == "script" || n.Data == "style") {
			return
		}
		if n.Type == html.TextNode {
			buf.WriteString(n.Data)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
		if n.Type == html.ElementNode {
			switch n.Data {
			case "p", "div", "br", "li", "tr", "h1", "h2", "h3", "h4", "h5", "h6":
				buf.WriteByte(' ')
			}
		}
	}
	walk(doc)

	return strings.Join(strings.Fields(buf.String()), " ")
}
