package stoplist

import (
	"os"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

// Manager holds the stopword set applied during topic-mode normalization.
type Manager struct {
	stops map[string]struct{}
}

// NewManager creates a stoplist manager from an initial list of terms.
// Terms are lowercased and trimmed; empty entries are ignored.
func NewManager(initialStops []string) *Manager {
	m := &Manager{stops: make(map[string]struct{}, len(initialStops))}
	for _, s := range initialStops {
		m.Add(s)
	}
	return m
}

// Default returns a manager seeded with the English and feedback-domain lists.
func Default() *Manager {
	m := NewManager(English())
	for _, s := range Domain() {
		m.Add(s)
	}
	return m
}

// IsStop checks if a token is a stopword
func (m *Manager) IsStop(token string) bool {
	_, ok := m.stops[token]
	return ok
}

// Add adds a token to the stoplist
func (m *Manager) Add(token string) {
	token = strings.ToLower(strings.TrimSpace(token))
	if token == "" {
		return
	}
	m.stops[token] = struct{}{}
}

// Remove removes a token from the stoplist
func (m *Manager) Remove(token string) {
	delete(m.stops, strings.ToLower(strings.TrimSpace(token)))
}

// Len returns the number of stopwords.
func (m *Manager) Len() int {
	return len(m.stops)
}

// All returns all stopwords in lexical order.
func (m *Manager) All() []string {
	result := make([]string, 0, len(m.stops))
	for s := range m.stops {
		result = append(result, s)
	}
	sort.Strings(result)
	return result
}

// File is the on-disk stoplist format.
type File struct {
	Terms []string `yaml:"terms"`
}

// LoadYAML reads extra stopwords from a YAML file with a top-level terms list.
func LoadYAML(path string) ([]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var f File
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, err
	}
	return f.Terms, nil
}

// English returns the standard English stopword list. Contractions are listed
// both with and without the apostrophe because normalization strips it.
func English() []string {
	out := make([]string, 0, len(english)*2)
	for _, w := range english {
		out = append(out, w)
		if strings.Contains(w, "'") {
			out = append(out, strings.ReplaceAll(w, "'", ""))
		}
	}
	return out
}

// Domain returns words that are frequent in customer feedback but carry no topic.
func Domain() []string {
	out := make([]string, len(domain))
	copy(out, domain)
	return out
}

var domain = []string{
	"product", "service", "company", "customer", "experience",
	"good", "bad", "great", "terrible", "amazing", "awful",
	"like", "love", "hate", "really", "very", "quite", "pretty",
	"would", "could", "should", "will", "can", "get", "use", "used",
}

var english = []string{
	"i", "me", "my", "myself", "we", "our", "ours", "ourselves",
	"you", "you're", "you've", "you'll", "you'd", "your", "yours", "yourself", "yourselves",
	"he", "him", "his", "himself", "she", "she's", "her", "hers", "herself",
	"it", "it's", "its", "itself", "they", "them", "their", "theirs", "themselves",
	"what", "which", "who", "whom", "this", "that", "that'll", "these", "those",
	"am", "is", "are", "was", "were", "be", "been", "being",
	"have", "has", "had", "having", "do", "does", "did", "doing",
	"a", "an", "the", "and", "but", "if", "or", "because", "as", "until", "while",
	"of", "at", "by", "for", "with", "about", "against", "between", "into", "through",
	"during", "before", "after", "above", "below", "to", "from", "up", "down",
	"in", "out", "on", "off", "over", "under", "again", "further", "then", "once",
	"here", "there", "when", "where", "why", "how", "all", "any", "both", "each",
	"few", "more", "most", "other", "some", "such", "no", "nor", "not", "only",
	"own", "same", "so", "than", "too", "very", "s", "t", "can", "will", "just",
	"don", "don't", "should", "should've", "now", "d", "ll", "m", "o", "re", "ve", "y",
	"ain", "aren", "aren't", "couldn", "couldn't", "didn", "didn't", "doesn", "doesn't",
	"hadn", "hadn't", "hasn", "hasn't", "haven", "haven't", "isn", "isn't",
	"ma", "mightn", "mightn't", "mustn", "mustn't", "needn", "needn't",
	"shan", "shan't", "shouldn", "shouldn't", "wasn", "wasn't", "weren", "weren't",
	"won", "won't", "wouldn", "wouldn't",
}
