package exam

import (
	"hash/fnv"
	"math/rand"
)

// The display order of an attempt is a pure function of its stored seed, so
// any later view can reproduce it. The PRNG is replaceable; determinism from
// the seed is the contract.

func shuffleQuestions(qs []Question, seed int64) []Question {
	out := make([]Question, len(qs))
	copy(out, qs)
	r := rand.New(rand.NewSource(seed))
	r.Shuffle(len(out), func(i, j int) { out[i], out[j] = out[j], out[i] })
	return out
}

func shuffleOptions(opts []Option, seed int64) []Option {
	out := make([]Option, len(opts))
	copy(out, opts)
	r := rand.New(rand.NewSource(seed))
	r.Shuffle(len(out), func(i, j int) { out[i], out[j] = out[j], out[i] })
	return out
}

// questionSeed derives a per-question seed so two questions never share a
// permutation.
func questionSeed(seed int64, questionID string) int64 {
	h := fnv.New32a()
	_, _ = h.Write([]byte(questionID))
	return seed + int64(h.Sum32())
}
