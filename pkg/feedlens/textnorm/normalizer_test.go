package textnorm

import (
	"strings"
	"testing"

	"github.com/cognicore/feedlens/pkg/feedlens/stoplist"
)

func TestNormalizeSentiment(t *testing.T) {
	n := New(nil)

	tests := []struct {
		name string
		in   string
		want string
	}{
		{"keeps emphasis", "I love this product! Amazing!", "i love this product! amazing!"},
		{"drops url", "Check https://example.com now!!!", "check now!!!"},
		{"drops www", "see www.example.com/page please", "see please"},
		{"drops email before mention", "Email me at john.doe@example.com", "email me at"},
		{"drops mentions and hashtags", "@support why #fail?", "why ?"},
		{"strips other punctuation", "It's   fine, does the job.", "its fine does the job."},
		{"collapses whitespace", "  slow\n\tdelivery  ", "slow delivery"},
		{"empty", "", ""},
		{"whitespace", "   ", ""},
		{"pure punctuation", "!!!", ""},
		{"punctuation and symbols", "?!. ,,, ---", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := n.Normalize(tt.in, ModeSentiment); got != tt.want {
				t.Errorf("Normalize(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestNormalizeTopic(t *testing.T) {
	n := New(nil)

	tests := []struct {
		name string
		in   string
		want string
	}{
		{
			"stopwords removed",
			"The delivery was very slow and the packaging was damaged",
			"delivery slow packaging damaged",
		},
		{
			"numbers urls and emails",
			"5-star rating, 100% satisfied!! Visit www.shop.com or email a@b.co",
			"star rating satisfied visit email",
		},
		{
			"plurals lemmatized",
			"Batteries and boxes arrived with scratches",
			"battery box arrived scratch",
		},
		{
			"domain stopwords",
			"Great product, really love the customer service experience",
			"",
		},
		{
			"mixed alphanumerics survive",
			"The mp3 player and 2nd charger",
			"mp3 player 2nd charger",
		},
		{"empty", "", ""},
		{"numbers only", "12 34 !!", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := n.Normalize(tt.in, ModeTopic); got != tt.want {
				t.Errorf("Normalize(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

var awkwardInputs = []string{
	"",
	"   ",
	"!!!",
	"I love this product! Amazing!",
	"Terrible, worst purchase ever.",
	"It's fine, does the job.",
	"h-ttp://sneaky.example and w-ww.example",
	"htt#ap!foo www#a.foo ww#aw.foo",
	"a-12s 123s 12_34 abc-12.3x x'5 ab'12cd",
	"Childrens' toys --- broken-- again?!",
	"Contact @help or #support via help@shop.com http://x.y",
	"Ünïcödé façade café’s “quotes” — dashes…",
	"analyses crises movies cookies statuses buses addresses",
	"5-star 10/10 would buy again :) <3",
	"check-ins log-ins --double--hyphen--",
}

func TestNormalizeIdempotent(t *testing.T) {
	n := New(nil)
	for _, mode := range []Mode{ModeSentiment, ModeTopic} {
		for _, in := range awkwardInputs {
			once := n.Normalize(in, mode)
			twice := n.Normalize(once, mode)
			if once != twice {
				t.Errorf("%s mode not idempotent for %q: %q then %q", mode, in, once, twice)
			}
		}
	}
}

func TestNormalizeDeterministic(t *testing.T) {
	n := New(nil)
	for _, in := range awkwardInputs {
		a := n.Normalize(in, ModeTopic)
		b := n.Normalize(in, ModeTopic)
		if a != b {
			t.Errorf("non-deterministic output for %q: %q vs %q", in, a, b)
		}
	}
}

func TestTopicTokensRespectFilters(t *testing.T) {
	n := New(nil)
	stops := stoplist.Default()
	for _, in := range awkwardInputs {
		for _, tok := range n.Tokens(in) {
			if len([]rune(tok)) < MinTokenLen {
				t.Errorf("token %q from %q is too short", tok, in)
			}
			if stops.IsStop(tok) {
				t.Errorf("token %q from %q is a stopword", tok, in)
			}
			if strings.ContainsAny(tok, ".,!?'@#") {
				t.Errorf("token %q from %q kept punctuation", tok, in)
			}
		}
	}
}

func TestCustomStoplist(t *testing.T) {
	n := New(stoplist.NewManager([]string{"delivery"}))
	got := n.Normalize("the delivery was late", ModeTopic)
	// "the" and "was" are not in this custom list
	if got != "the was late" {
		t.Errorf("got %q", got)
	}
}

func TestUnknownMode(t *testing.T) {
	n := New(nil)
	if got := n.Normalize("hello world", Mode(42)); got != "" {
		t.Errorf("unknown mode should yield empty string, got %q", got)
	}
}

func TestNormalizeAllKeepsPositions(t *testing.T) {
	n := New(nil)
	out := n.NormalizeAll([]string{"", "Slow delivery", "!!!"}, ModeTopic)
	if len(out) != 3 {
		t.Fatalf("expected 3 outputs, got %d", len(out))
	}
	if out[0] != "" || out[1] != "slow delivery" || out[2] != "" {
		t.Errorf("unexpected outputs %q", out)
	}
}
