package game

import (
	"crypto/rand"
	"math/big"
	mrand "math/rand/v2"
)

// Rand picks integers uniformly in [0, n).
type Rand interface {
	Intn(n int) int
}

// CryptoRand draws from crypto/rand, falling back to math/rand/v2 if the
// system source fails.
type CryptoRand struct{}

func (CryptoRand) Intn(n int) int {
	if n <= 1 {
		return 0
	}
	v, err := rand.Int(rand.Reader, big.NewInt(int64(n)))
	if err != nil {
		return mrand.IntN(n)
	}
	return int(v.Int64())
}

// SeqRand replays a fixed sequence of values, each reduced modulo n. It is
// meant for tests.
type SeqRand struct {
	Values []int
	next   int
}

func (s *SeqRand) Intn(n int) int {
	if len(s.Values) == 0 || n <= 0 {
		return 0
	}
	v := s.Values[s.next%len(s.Values)]
	s.next++
	return ((v % n) + n) % n
}
