package shortener

import (
	"crypto/rand"
	"math/big"
)

const alphabet = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

// DefaultCodeLength is the length of generated short codes. 62^6 leaves
// collisions astronomically rare while keeping links short.
const DefaultCodeLength = 6

// CodeGenerator produces random short codes.
type CodeGenerator interface {
	Generate() string
}

// Generator draws codes uniformly from the 62-character base62 alphabet
// using crypto/rand, so active codes are not guessable. It holds no state
// and is safe for concurrent use without coordination.
type Generator struct {
	length int
}

func NewGenerator(length int) *Generator {
	if length <= 0 {
		length = DefaultCodeLength
	}
	return &Generator{length: length}
}

func (g *Generator) Generate() string {
	b := make([]byte, g.length)
	alphabetLen := big.NewInt(int64(len(alphabet)))

	for i := range b {
		n, err := rand.Int(rand.Reader, alphabetLen)
		if err != nil {
			// crypto/rand only fails if the OS entropy source is broken.
			panic("shortener: crypto/rand failed: " + err.Error())
		}
		b[i] = alphabet[n.Int64()]
	}

	return string(b)
}

var _ CodeGenerator = (*Generator)(nil)
