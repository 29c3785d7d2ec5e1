package quiz

import (
	"math/rand/v2"

	"github.com/stemsi/exstem-drill/internal/model"
)

// Source supplies uniform integers in [0, n). *rand.Rand satisfies it.
type Source interface {
	IntN(n int) int
}

// NewSeededSource returns a deterministic Source.
func NewSeededSource(seed uint64) Source {
	return rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
}

// NewRandomSource returns a Source seeded from the runtime generator.
func NewRandomSource() Source {
	return rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
}

// shuffle permutes s in place with Fisher-Yates, drawing j from [0, i].
func shuffle[T any](s []T, src Source) {
	for i := len(s) - 1; i > 0; i-- {
		j := src.IntN(i + 1)
		s[i], s[j] = s[j], s[i]
	}
}

// shuffleOptions returns a copy of q whose options are permuted and
// relettered A, B, C... in the new order, with the answer remapped.
func shuffleOptions(q model.Question, src Source) model.Question {
	out := q.Clone()

	perm := append(model.Options(nil), q.Options...)
	shuffle(perm, src)

	mapping := make(map[string]string, len(perm))
	for i := range perm {
		newKey := model.OptionLetters[i]
		mapping[perm[i].Key] = newKey
		perm[i].Key = newKey
	}
	out.Options = perm

	for i, old := range q.Answer {
		out.Answer[i] = mapping[old]
	}
	return out
}
