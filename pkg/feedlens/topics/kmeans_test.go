package topics

import (
	"errors"
	"math"
	"reflect"
	"testing"

	"github.com/cognicore/feedlens/pkg/feedlens/internalerr"
)

var blobs = [][]float64{
	{0, 0}, {0, 1}, {1, 0},
	{10, 10}, {10, 11}, {11, 10},
}

func TestKMeansSeparatesBlobs(t *testing.T) {
	res, err := KMeans(blobs, KMeansOptions{K: 2, Seed: DefaultSeed})
	if err != nil {
		t.Fatalf("KMeans: %v", err)
	}
	l := res.Labels
	if l[0] != l[1] || l[1] != l[2] || l[3] != l[4] || l[4] != l[5] || l[0] == l[3] {
		t.Errorf("labels = %v, want two groups of three", l)
	}
	if math.Abs(res.Inertia-8.0/3.0) > 1e-9 {
		t.Errorf("inertia = %v, want %v", res.Inertia, 8.0/3.0)
	}
}

func TestKMeansDeterministic(t *testing.T) {
	opts := KMeansOptions{K: 3, Seed: 99}
	a, err := KMeans(blobs, opts)
	if err != nil {
		t.Fatalf("KMeans: %v", err)
	}
	b, _ := KMeans(blobs, opts)
	if !reflect.DeepEqual(a, b) {
		t.Errorf("same seed gave different results:\n%+v\n%+v", a, b)
	}
}

func TestKMeansOneClusterPerPoint(t *testing.T) {
	res, err := KMeans(blobs, KMeansOptions{K: len(blobs), Seed: 1})
	if err != nil {
		t.Fatalf("KMeans: %v", err)
	}
	if res.Inertia > 1e-12 {
		t.Errorf("inertia = %v, want 0", res.Inertia)
	}
	seen := map[int]bool{}
	for _, l := range res.Labels {
		seen[l] = true
	}
	if len(seen) != len(blobs) {
		t.Errorf("labels = %v, want every point in its own cluster", res.Labels)
	}
}

func TestKMeansIdenticalPoints(t *testing.T) {
	points := [][]float64{{1, 1}, {1, 1}, {1, 1}}
	res, err := KMeans(points, KMeansOptions{K: 2, Seed: DefaultSeed})
	if err != nil {
		t.Fatalf("KMeans: %v", err)
	}
	if res.Inertia != 0 {
		t.Errorf("inertia = %v, want 0", res.Inertia)
	}
	for _, l := range res.Labels {
		if l < 0 || l >= 2 {
			t.Errorf("label %d out of range", l)
		}
	}
}

func TestKMeansInvalidK(t *testing.T) {
	for _, k := range []int{0, len(blobs) + 1} {
		if _, err := KMeans(blobs, KMeansOptions{K: k}); !errors.Is(err, internalerr.ErrInvalidInput) {
			t.Errorf("K=%d: err = %v, want ErrInvalidInput", k, err)
		}
	}
	if _, err := KMeans(nil, KMeansOptions{K: 1}); !errors.Is(err, internalerr.ErrInvalidInput) {
		t.Errorf("empty input: err = %v, want ErrInvalidInput", err)
	}
}

func TestRecomputeCentersRelocatesEmpty(t *testing.T) {
	points := [][]float64{{0}, {1}, {9}}
	centers := [][]float64{{0}, {100}}
	labels := []int{0, 0, 0}
	next := recomputeCenters(points, centers, labels)
	// Cluster 1 is empty and takes the point farthest from its center.
	if next[1][0] != 9 {
		t.Errorf("empty cluster center = %v, want 9", next[1])
	}
	if next[0][0] != 0.5 {
		t.Errorf("remaining center = %v, want 0.5", next[0])
	}
}
