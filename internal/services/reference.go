package services

import (
	"crypto/rand"
	"errors"
	"math/big"
	"strings"
)

// ReferenceAlphabet leaves out 0/O and 1/I so codes survive being read aloud.
const ReferenceAlphabet = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"

// ReferenceGenerator produces booking reference codes. Uniqueness is enforced
// by the store; the ledger regenerates on collision.
type ReferenceGenerator interface {
	Generate() (string, error)
}

type RandomReference struct {
	Prefix string
	Length int
}

func NewReferenceGenerator(prefix string, length int) RandomReference {
	return RandomReference{Prefix: strings.ToUpper(strings.TrimSpace(prefix)), Length: length}
}

func (g RandomReference) Generate() (string, error) {
	if g.Length <= 0 {
		return "", errors.New("reference length must be positive")
	}
	max := big.NewInt(int64(len(ReferenceAlphabet)))
	var b strings.Builder
	b.Grow(len(g.Prefix) + g.Length)
	b.WriteString(g.Prefix)
	for i := 0; i < g.Length; i++ {
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", err
		}
		b.WriteByte(ReferenceAlphabet[n.Int64()])
	}
	return b.String(), nil
}
