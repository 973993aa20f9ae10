package assign

import (
	"fmt"
	"math"
	"reflect"
	"strings"
	"testing"

	"github.com/cognicore/feedlens/pkg/feedlens/topics"
)

func topic(id int, name string, terms ...string) topics.Topic {
	kws := make([]topics.Keyword, len(terms))
	for i, term := range terms {
		kws[i] = topics.Keyword{Term: term, Weight: float64(len(terms) - i)}
	}
	return topics.Topic{ID: id, Name: name, Keywords: kws}
}

var feedbackTopics = []topics.Topic{
	topic(0, "delivery + package + late", "delivery", "package", "late", "shipping", "courier"),
	topic(1, "support + agent + refund", "support", "agent", "refund", "staff", "phone"),
	topic(2, "quality + material + build", "quality", "material", "build", "build quality"),
}

func TestAssignScoresAndEvidence(t *testing.T) {
	a := New(nil, nil)
	got := a.Assign([]string{
		"Delivery was late and the package arrived damaged",
		"Build quality is poor",
	}, feedbackTopics)

	if len(got) != 2 {
		t.Fatalf("got %d assignments, want 2: %+v", len(got), got)
	}

	first := got[0]
	if first.DocumentID != 0 || first.TopicID != 0 || first.TopicName != "delivery + package + late" {
		t.Errorf("first assignment = %+v", first)
	}
	// 3 of 5 keywords plus 5 distinct words / 50.
	if math.Abs(first.Relevance-0.7) > 1e-12 {
		t.Errorf("relevance = %v, want 0.7", first.Relevance)
	}
	if want := []string{"delivery", "package", "late"}; !reflect.DeepEqual(first.KeywordsFound, want) {
		t.Errorf("KeywordsFound = %v, want %v", first.KeywordsFound, want)
	}

	// The bigram keyword never matches a single word.
	second := got[1]
	if want := []string{"quality", "build"}; !reflect.DeepEqual(second.KeywordsFound, want) {
		t.Errorf("KeywordsFound = %v, want %v", second.KeywordsFound, want)
	}
	if math.Abs(second.Relevance-0.56) > 1e-12 {
		t.Errorf("relevance = %v, want 0.56", second.Relevance)
	}
}

func TestAssignCapAndTieOrder(t *testing.T) {
	// Identical topics tie; the earlier ones in the list win regardless of ID.
	var ts []topics.Topic
	for id := 14; id >= 10; id-- {
		ts = append(ts, topic(id, fmt.Sprintf("t%d", id), "delivery"))
	}
	got := New(nil, nil).Assign([]string{"delivery delayed"}, ts)

	if len(got) != MaxPerDocument {
		t.Fatalf("got %d assignments, want %d", len(got), MaxPerDocument)
	}
	for i, want := range []int{14, 13, 12} {
		if got[i].TopicID != want {
			t.Errorf("assignment %d topic = %d, want %d", i, got[i].TopicID, want)
		}
		if got[i].Relevance != 1 {
			t.Errorf("relevance = %v, want capped at 1", got[i].Relevance)
		}
	}
}

func TestAssignSkipsEmptyDocuments(t *testing.T) {
	got := New(nil, nil).Assign([]string{"", "the and it", "   ", "delivery late"}, feedbackTopics)
	if len(got) != 1 || got[0].DocumentID != 3 {
		t.Errorf("assignments = %+v, want one for document 3", got)
	}
}

func TestAssignEmptyInputs(t *testing.T) {
	a := New(nil, nil)
	if got := a.Assign(nil, feedbackTopics); got == nil || len(got) != 0 {
		t.Errorf("Assign(nil texts) = %v, want empty", got)
	}
	if got := a.Assign([]string{"delivery late"}, nil); got == nil || len(got) != 0 {
		t.Errorf("Assign(nil topics) = %v, want empty", got)
	}
}

func TestAssignOrderingProperty(t *testing.T) {
	texts := []string{
		"Support agent lost my refund and the delivery package was late",
		"Material quality is poor, delivery was slow, support staff rude",
		"Courier shipping delivery package late refund agent",
		"nothing relevant here at all",
	}
	got := New(nil, nil).Assign(texts, feedbackTopics)

	perDoc := map[int][]Assignment{}
	for _, a := range got {
		perDoc[a.DocumentID] = append(perDoc[a.DocumentID], a)
	}
	for doc, as := range perDoc {
		if len(as) > MaxPerDocument {
			t.Errorf("document %d has %d assignments", doc, len(as))
		}
		for i, a := range as {
			if a.Relevance <= MinRelevance || a.Relevance > 1 {
				t.Errorf("document %d relevance %v out of (%v, 1]", doc, a.Relevance, MinRelevance)
			}
			if i > 0 && as[i-1].Relevance < a.Relevance {
				t.Errorf("document %d relevance increases at position %d", doc, i)
			}
		}
	}
}

func TestRelevance(t *testing.T) {
	words := func(s string) map[string]struct{} { return wordSet(s) }

	tests := []struct {
		name     string
		words    map[string]struct{}
		keywords []string
		want     float64
	}{
		{"no keywords", words("delivery late"), nil, 0},
		{"no words", map[string]struct{}{}, []string{"delivery"}, 0},
		{"bonus only", words("alpha beta gamma delta epsilon"), []string{"delivery"}, 0.1},
		{"bonus capped", words(manyWords(60)), []string{"delivery"}, 0.2},
		{"full match capped", words("delivery late"), []string{"delivery", "late"}, 1},
		{"case insensitive keyword", words("delivery"), []string{"Delivery", "late"}, 0.52},
	}
	for _, tt := range tests {
		got, _ := Relevance(tt.words, tt.keywords)
		if math.Abs(got-tt.want) > 1e-12 {
			t.Errorf("%s: Relevance = %v, want %v", tt.name, got, tt.want)
		}
	}
}

func manyWords(n int) string {
	var b strings.Builder
	for i := 0; i < n; i++ {
		fmt.Fprintf(&b, "word%d ", i)
	}
	return b.String()
}
