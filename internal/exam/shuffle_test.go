package exam

import (
	"testing"
)

func sampleQuestions(n int) []Question {
	out := make([]Question, n)
	for i := range out {
		out[i] = Question{ID: string(rune('a' + i))}
	}
	return out
}

func TestShuffleQuestionsDeterministic(t *testing.T) {
	qs := sampleQuestions(8)
	a := shuffleQuestions(qs, 12345)
	b := shuffleQuestions(qs, 12345)
	if len(a) != len(qs) || len(b) != len(qs) {
		t.Fatalf("length changed: %d %d", len(a), len(b))
	}
	for i := range a {
		if a[i].ID != b[i].ID {
			t.Fatalf("same seed diverged at %d: %s vs %s", i, a[i].ID, b[i].ID)
		}
	}
	// Input must stay untouched.
	for i := range qs {
		if qs[i].ID != string(rune('a'+i)) {
			t.Fatal("input mutated")
		}
	}
}

func TestShuffleQuestionsIsPermutation(t *testing.T) {
	qs := sampleQuestions(10)
	out := shuffleQuestions(qs, 999)
	seen := map[string]bool{}
	for _, q := range out {
		if seen[q.ID] {
			t.Fatalf("duplicate %s", q.ID)
		}
		seen[q.ID] = true
	}
	if len(seen) != len(qs) {
		t.Fatalf("lost questions: %d of %d", len(seen), len(qs))
	}
}

func TestShuffleOptionsVariesPerQuestion(t *testing.T) {
	opts := []Option{{ID: "1"}, {ID: "2"}, {ID: "3"}, {ID: "4"}, {ID: "5"}}
	base := int64(42)

	layout := func(seed int64) string {
		s := ""
		for _, o := range shuffleOptions(opts, seed) {
			s += o.ID
		}
		return s
	}

	if layout(questionSeed(base, "q1")) != layout(questionSeed(base, "q1")) {
		t.Fatal("per-question shuffle not deterministic")
	}
	// Different questions under the same attempt seed should not all share
	// one layout; check a handful of ids for at least one difference.
	ref := layout(questionSeed(base, "q1"))
	varied := false
	for _, id := range []string{"q2", "q3", "q4", "q5", "q6"} {
		if layout(questionSeed(base, id)) != ref {
			varied = true
			break
		}
	}
	if !varied {
		t.Fatal("all questions dealt the same option order")
	}
}
