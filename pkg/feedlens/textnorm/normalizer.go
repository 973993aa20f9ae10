package textnorm

import (
	"regexp"
	"strings"
	"unicode"

	"github.com/cognicore/feedlens/pkg/feedlens/stoplist"
)

// Mode selects the normalization variant.
type Mode int

const (
	// ModeSentiment keeps sentence punctuation (. ! ?) and every word.
	ModeSentiment Mode = iota
	// ModeTopic drops numbers, short tokens and stopwords, and lemmatizes.
	ModeTopic
)

func (m Mode) String() string {
	switch m {
	case ModeSentiment:
		return "sentiment"
	case ModeTopic:
		return "topic"
	default:
		return "unknown"
	}
}

// MinTokenLen is the shortest token kept in topic mode.
const MinTokenLen = 3

const asciiPunct = "!\"#$%&'()*+,-./:;<=>?@[\\]^_`{|}~"

var (
	urlRe     = regexp.MustCompile(`http\S+|www\.\S+`)
	emailRe   = regexp.MustCompile(`\S+@\S+`)
	mentionRe = regexp.MustCompile(`[@#][\p{L}\p{N}\p{M}_]+`)
)

// Normalizer cleans raw feedback text for the sentiment and topic stages.
// It holds no mutable state after construction and is safe for concurrent use.
type Normalizer struct {
	stops *stoplist.Manager
}

// New creates a normalizer. A nil stoplist uses stoplist.Default().
func New(stops *stoplist.Manager) *Normalizer {
	if stops == nil {
		stops = stoplist.Default()
	}
	return &Normalizer{stops: stops}
}

// Normalize returns the cleaned form of text for the given mode.
// It never fails: empty, whitespace-only or fully stripped input yields "".
func (n *Normalizer) Normalize(text string, mode Mode) string {
	switch mode {
	case ModeSentiment:
		return n.sentiment(text)
	case ModeTopic:
		return strings.Join(n.Tokens(text), " ")
	default:
		return ""
	}
}

// NormalizeAll normalizes every text, preserving positions.
func (n *Normalizer) NormalizeAll(texts []string, mode Mode) []string {
	out := make([]string, len(texts))
	for i, t := range texts {
		out[i] = n.Normalize(t, mode)
	}
	return out
}

func (n *Normalizer) sentiment(text string) string {
	if strings.TrimSpace(text) == "" {
		return ""
	}
	text = strings.ToLower(text)
	text = stripEntities(text)
	text = stripPunct(text, ".!?")
	// stripping punctuation can glue a new URL-looking token together
	text = urlRe.ReplaceAllString(text, "")
	if !hasWordRune(text) {
		return ""
	}
	return strings.Join(strings.Fields(text), " ")
}

// Tokens returns the topic-mode tokens of text.
func (n *Normalizer) Tokens(text string) []string {
	if strings.TrimSpace(text) == "" {
		return nil
	}
	text = strings.ToLower(text)
	text = stripEntities(text)
	text = dropStandaloneNumbers(text)
	text = stripPunct(text, "-_")

	var tokens []string
	for _, tok := range strings.Fields(text) {
		tok = trimHyphens(tok)
		if !n.keep(tok) {
			continue
		}
		tok = Lemmatize(tok)
		if !n.keep(tok) {
			continue
		}
		tokens = append(tokens, tok)
	}
	return tokens
}

// keep applies the topic-mode token filters.
func (n *Normalizer) keep(tok string) bool {
	if len([]rune(tok)) < MinTokenLen {
		return false
	}
	if isNumericOnly(tok) {
		return false
	}
	if strings.HasPrefix(tok, "http") && len(tok) > len("http") {
		return false
	}
	return !n.stops.IsStop(tok)
}

// stripEntities removes URLs, e-mail addresses, @mentions and #hashtags.
// E-mail addresses go before mentions so the domain part is not left behind.
func stripEntities(text string) string {
	text = urlRe.ReplaceAllString(text, "")
	text = emailRe.ReplaceAllString(text, "")
	return mentionRe.ReplaceAllString(text, "")
}

func isPunct(r rune) bool {
	if r < 0x80 {
		return strings.ContainsRune(asciiPunct, r)
	}
	return unicode.IsPunct(r)
}

// stripPunct deletes punctuation runes except those listed in keep.
func stripPunct(text, keep string) string {
	var b strings.Builder
	b.Grow(len(text))
	for _, r := range text {
		if isPunct(r) && !strings.ContainsRune(keep, r) {
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

// trimHyphens strips leading/trailing hyphens and collapses repeated ones.
func trimHyphens(tok string) string {
	tok = strings.Trim(tok, "-")
	for strings.Contains(tok, "--") {
		tok = strings.ReplaceAll(tok, "--", "-")
	}
	return tok
}

func hasWordRune(text string) bool {
	for _, r := range text {
		if unicode.IsLetter(r) || unicode.IsNumber(r) {
			return true
		}
	}
	return false
}

func isWordRune(r rune) bool {
	return unicode.IsLetter(r) || unicode.IsNumber(r) || unicode.IsMark(r) || r == '_'
}

// dropStandaloneNumbers removes word runs made only of digits, so "5-star"
// loses the 5 but "mp3" and "2nd" survive.
func dropStandaloneNumbers(text string) string {
	runes := []rune(text)
	var b strings.Builder
	b.Grow(len(text))
	for i := 0; i < len(runes); {
		if !isWordRune(runes[i]) {
			b.WriteRune(runes[i])
			i++
			continue
		}
		j := i
		digits := true
		for j < len(runes) && isWordRune(runes[j]) {
			if !unicode.IsDigit(runes[j]) {
				digits = false
			}
			j++
		}
		if !digits {
			b.WriteString(string(runes[i:j]))
		}
		i = j
	}
	return b.String()
}

// isNumericOnly returns true if the token contains only digits and separators.
func isNumericOnly(s string) bool {
	for _, r := range s {
		if !unicode.IsDigit(r) && r != '-' && r != '_' {
			return false
		}
	}
	return true
}
