// Package rand produces random suffixes for run identifiers.
package rand

import (
	"math/rand"
	"sync"
	"time"
)

const letters = "abcdefghijklmnopqrstuvwxyz0123456789"

var (
	onceSource sync.Once
	rgen       *rand.Rand
	randMutex  sync.Mutex
)

func seed() {
	rgen = rand.New(rand.NewSource(time.Now().UnixNano())) // #nosec
}

// LetterString returns a random string of n characters in the [0-9]|[a-z] range.
func LetterString(n int) string {
	return string(LetterBytes(n))
}

// LetterBytes returns a random slice of n bytes in the [0-9]|[a-z] range.
func LetterBytes(n int) []byte {
	onceSource.Do(seed)
	buf := make([]byte, n)
	randMutex.Lock()
	for i := range buf {
		buf[i] = letters[rgen.Intn(len(letters))]
	}
	randMutex.Unlock()
	return buf
}
