package topics

import (
	"errors"
	"math"
	"reflect"
	"testing"

	"github.com/cognicore/feedlens/pkg/feedlens/internalerr"
	"github.com/cognicore/feedlens/pkg/feedlens/stoplist"
)

func TestAnalyze(t *testing.T) {
	v := NewVectorizer(VectorizerOptions{NGramMin: 1, NGramMax: 2})
	got := v.Analyze("delivery late package")
	want := []string{"delivery", "late", "package", "delivery late", "late package"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Analyze = %v, want %v", got, want)
	}

	// Hyphens split tokens; single characters are dropped.
	got = v.Analyze("check-in mp3 a")
	want = []string{"check", "in", "mp3", "check in", "in mp3"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Analyze = %v, want %v", got, want)
	}
}

func TestAnalyzeStopwordsBeforeNGrams(t *testing.T) {
	v := NewVectorizer(VectorizerOptions{
		NGramMin: 1,
		NGramMax: 2,
		Stops:    stoplist.NewManager([]string{"made"}),
	})
	got := v.Analyze("well-made box")
	want := []string{"well", "box", "well box"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Analyze = %v, want %v", got, want)
	}
}

func TestFitTransformTFIDF(t *testing.T) {
	v := NewVectorizer(VectorizerOptions{MinDF: 1, MaxDF: 1, NGramMin: 1, NGramMax: 1})
	m, err := v.FitTransform([]string{"apple banana", "apple cherry", "apple banana cherry"})
	if err != nil {
		t.Fatalf("FitTransform: %v", err)
	}
	if want := []string{"apple", "banana", "cherry"}; !reflect.DeepEqual(m.Terms, want) {
		t.Fatalf("Terms = %v, want %v", m.Terms, want)
	}

	// idf(apple) = 1, idf(banana) = ln(4/3) + 1.
	idfB := math.Log(4.0/3.0) + 1
	norm := math.Sqrt(1 + idfB*idfB)
	want := []float64{1 / norm, idfB / norm, 0}
	for j := range want {
		if math.Abs(m.Rows[0][j]-want[j]) > 1e-12 {
			t.Errorf("row 0 = %v, want %v", m.Rows[0], want)
			break
		}
	}

	for i, row := range m.Rows {
		var sq float64
		for _, x := range row {
			sq += x * x
		}
		if math.Abs(sq-1) > 1e-12 {
			t.Errorf("row %d not unit length: %v", i, sq)
		}
	}
}

func TestFitTransformCounts(t *testing.T) {
	v := NewVectorizer(VectorizerOptions{MinDF: 1, MaxDF: 1, NGramMin: 1, NGramMax: 1, Weighting: WeightCount})
	m, err := v.FitTransform([]string{"apple apple banana", "banana"})
	if err != nil {
		t.Fatalf("FitTransform: %v", err)
	}
	want := [][]float64{{2, 1}, {0, 1}}
	if !reflect.DeepEqual(m.Rows, want) {
		t.Errorf("Rows = %v, want %v", m.Rows, want)
	}
}

func TestFitTransformMaxFeatures(t *testing.T) {
	v := NewVectorizer(VectorizerOptions{MinDF: 1, MaxDF: 1, NGramMin: 1, NGramMax: 1, MaxFeatures: 2})
	m, err := v.FitTransform([]string{"apple apple banana", "apple cherry", "banana cherry date"})
	if err != nil {
		t.Fatalf("FitTransform: %v", err)
	}
	// apple (3) then a banana/cherry tie at 2, broken alphabetically.
	if want := []string{"apple", "banana"}; !reflect.DeepEqual(m.Terms, want) {
		t.Errorf("Terms = %v, want %v", m.Terms, want)
	}
}

func TestFitTransformDocumentFrequencyLimits(t *testing.T) {
	docs := []string{"apple banana", "apple cherry", "apple banana cherry", "date"}

	v := NewVectorizer(VectorizerOptions{MinDF: 2, MaxDF: 0.7, NGramMin: 1, NGramMax: 1})
	m, err := v.FitTransform(docs)
	if err != nil {
		t.Fatalf("FitTransform: %v", err)
	}
	// apple appears in 3 of 4 documents, above 0.7*4; date is below min_df.
	if want := []string{"banana", "cherry"}; !reflect.DeepEqual(m.Terms, want) {
		t.Errorf("Terms = %v, want %v", m.Terms, want)
	}
	if m.Rows[3][0] != 0 || m.Rows[3][1] != 0 {
		t.Errorf("document without kept terms should be a zero row, got %v", m.Rows[3])
	}
}

func TestFitTransformErrors(t *testing.T) {
	tests := []struct {
		name string
		opts VectorizerOptions
		docs []string
		want error
	}{
		{"empty vocabulary", VectorizerOptions{MinDF: 1, MaxDF: 1}, []string{"a b", "c"}, ErrEmptyVocabulary},
		{"no terms remain", VectorizerOptions{MinDF: 2, MaxDF: 1}, []string{"apple", "banana", "cherry"}, ErrNoTermsRemain},
		{"df range", VectorizerOptions{MinDF: 2, MaxDF: 0.95}, []string{"short text", "another text"}, ErrDFRange},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewVectorizer(tt.opts).FitTransform(tt.docs)
			if !errors.Is(err, tt.want) {
				t.Errorf("err = %v, want %v", err, tt.want)
			}
			if !errors.Is(err, internalerr.ErrInsufficientData) {
				t.Errorf("err = %v should wrap ErrInsufficientData", err)
			}
		})
	}
}
