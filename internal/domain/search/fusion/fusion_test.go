package fusion

import (
	"math"
	"testing"

	"github.com/kazdex/bazaar/internal/domain/search/candidate"
)

func TestHybridWeights(t *testing.T) {
	cases := []struct {
		name           string
		text, semantic float64
		wantText       float64
		wantSemantic   float64
	}{
		{"defaults normalize to one", 0.4, 0.6, 0.4, 0.6},
		{"unnormalized input", 2, 3, 0.4, 0.6},
		{"pure semantic honored", 0, 1, 0, 1},
		{"pure text honored", 1, 0, 1, 0},
		{"both zero falls back", 0, 0, 0.5, 0.5},
		{"negative falls back", -1, 2, 0.5, 0.5},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			w := HybridWeights(tc.text, tc.semantic)
			if math.Abs(w.Lexical-tc.wantText) > 1e-9 || math.Abs(w.Semantic-tc.wantSemantic) > 1e-9 {
				t.Errorf("HybridWeights(%v, %v) = %+v", tc.text, tc.semantic, w)
			}
			if math.Abs(w.Sum()-1) > 1e-9 {
				t.Errorf("hybrid weights must sum to 1, got %v", w.Sum())
			}
		})
	}
}

func TestFuse_NormalizesLexicalByMax(t *testing.T) {
	cands := []*candidate.Candidate{
		{ID: "a", Lexical: candidate.Float(4)},
		{ID: "b", Lexical: candidate.Float(2)},
	}
	Fuse(cands, Weights{Lexical: 1}, 0)

	if cands[0].ID != "a" || math.Abs(cands[0].Score-1.0) > 1e-9 {
		t.Errorf("top candidate = %s score %v, want a/1.0", cands[0].ID, cands[0].Score)
	}
	if math.Abs(cands[1].Score-0.5) > 1e-9 {
		t.Errorf("second score = %v, want 0.5", cands[1].Score)
	}
}

func TestFuse_AbsentSignalsContributeNothing(t *testing.T) {
	cands := []*candidate.Candidate{
		{ID: "geo-only", DistanceMeters: candidate.Float(1000)},
		{ID: "no-signals"},
	}
	Fuse(cands, AdvancedWeights(), 5000)

	if cands[0].ID != "geo-only" {
		t.Fatalf("expected geo-only first, got %s", cands[0].ID)
	}
	// proximity = 1 - 1000/5000 = 0.8, weighted 1.5
	if math.Abs(cands[0].Score-1.2) > 1e-9 {
		t.Errorf("geo-only score = %v, want 1.2", cands[0].Score)
	}
	if cands[1].Score != 0 {
		t.Errorf("signal-less candidate score = %v, want 0", cands[1].Score)
	}
}

func TestFuse_ScoresBoundedByWeightSum(t *testing.T) {
	w := AdvancedWeights()
	cands := []*candidate.Candidate{
		{ID: "max", Lexical: candidate.Float(9), DistanceMeters: candidate.Float(0), Semantic: candidate.Float(1)},
		{ID: "mid", Lexical: candidate.Float(3), DistanceMeters: candidate.Float(2500)},
	}
	Fuse(cands, w, 5000)

	for _, c := range cands {
		if c.Score < 0 || c.Score > w.Sum() {
			t.Errorf("candidate %s score %v outside [0, %v]", c.ID, c.Score, w.Sum())
		}
	}
}

func TestFuse_NormalizedWeightsYieldUnitRange(t *testing.T) {
	w := HybridWeights(0.4, 0.6)
	cands := []*candidate.Candidate{
		{ID: "a", Lexical: candidate.Float(10), Semantic: candidate.Float(0.9)},
		{ID: "b", Lexical: candidate.Float(1), Semantic: candidate.Float(0.2)},
	}
	Fuse(cands, w, 0)
	for _, c := range cands {
		if c.Score < 0 || c.Score > 1 {
			t.Errorf("candidate %s score %v outside [0,1]", c.ID, c.Score)
		}
	}
}

func TestFuse_NegativeCosineClampsToZero(t *testing.T) {
	cands := []*candidate.Candidate{
		{ID: "anti", Semantic: candidate.Float(-0.5)},
		{ID: "weak", Semantic: candidate.Float(0.1)},
	}
	w := Weights{Semantic: 1}
	Fuse(cands, w, 0)

	if cands[0].ID != "weak" {
		t.Fatalf("top candidate = %s, want weak above the anti-correlated one", cands[0].ID)
	}
	for _, c := range cands {
		if c.Score < 0 || c.Score > w.Sum() {
			t.Errorf("candidate %s score %v outside [0, %v]", c.ID, c.Score, w.Sum())
		}
	}
	if cands[1].Score != 0 {
		t.Errorf("anti-correlated score = %v, want 0", cands[1].Score)
	}
}

func TestFuse_PureSemanticMatchesSemanticOrder(t *testing.T) {
	build := func() []*candidate.Candidate {
		return []*candidate.Candidate{
			{ID: "a", Lexical: candidate.Float(100), Semantic: candidate.Float(0.1)},
			{ID: "b", Lexical: candidate.Float(1), Semantic: candidate.Float(0.9)},
			{ID: "c", Lexical: candidate.Float(50), Semantic: candidate.Float(0.5)},
		}
	}

	hybrid := Fuse(build(), HybridWeights(0, 1), 0)
	semantic := Fuse(build(), Weights{Semantic: 1}, 0)

	for i := range hybrid {
		if hybrid[i].ID != semantic[i].ID {
			t.Fatalf("order diverged at %d: hybrid %s vs semantic %s", i, hybrid[i].ID, semantic[i].ID)
		}
	}
}

func TestFuse_TiesKeepEnumerationOrder(t *testing.T) {
	cands := []*candidate.Candidate{
		{ID: "first", Semantic: candidate.Float(0.5)},
		{ID: "second", Semantic: candidate.Float(0.5)},
		{ID: "third", Semantic: candidate.Float(0.5)},
	}
	Fuse(cands, Weights{Semantic: 1}, 0)

	want := []string{"first", "second", "third"}
	for i, c := range cands {
		if c.ID != want[i] {
			t.Errorf("tie order broken at %d: got %s, want %s", i, c.ID, want[i])
		}
	}
}

func TestFuse_AllZeroLexicalDoesNotDivideByZero(t *testing.T) {
	cands := []*candidate.Candidate{
		{ID: "a", Lexical: candidate.Float(0)},
	}
	Fuse(cands, Weights{Lexical: 2}, 0)
	if cands[0].Score != 0 {
		t.Errorf("score = %v, want 0", cands[0].Score)
	}
}
