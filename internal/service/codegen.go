package service

import (
	"crypto/rand"
	"fmt"
	"io"
	"math/big"
	"strings"

	"github.com/openclaw/pairing-relay-go/internal/config"
	apperrors "github.com/openclaw/pairing-relay-go/internal/errors"
)

// O, I, 0 and 1 are left out so codes survive being read aloud or retyped.
const pairingCodeChars = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"

// CodeGenerator draws pairing codes from pairingCodeChars.
type CodeGenerator struct {
	length      int
	maxAttempts int
	rand        io.Reader
}

func NewCodeGenerator(length int) *CodeGenerator {
	if length < config.MinCodeLength || length > config.MaxCodeLength {
		length = config.MinCodeLength
	}
	return &CodeGenerator{
		length:      length,
		maxAttempts: config.MaxCodeAttempts,
		rand:        rand.Reader,
	}
}

func (g *CodeGenerator) Length() int {
	return g.length
}

// Generate returns a code for which inUse reports false. inUse is called
// with the caller's lock held and must not block.
func (g *CodeGenerator) Generate(inUse func(code string) bool) (string, error) {
	for attempt := 0; attempt < g.maxAttempts; attempt++ {
		code, err := g.randomCode()
		if err != nil {
			return "", fmt.Errorf("draw pairing code: %w", err)
		}
		if inUse == nil || !inUse(code) {
			return code, nil
		}
	}
	return "", apperrors.CodeSpaceExhausted(g.maxAttempts)
}

func (g *CodeGenerator) randomCode() (string, error) {
	base := big.NewInt(int64(len(pairingCodeChars)))
	code := make([]byte, g.length)
	for i := range code {
		n, err := rand.Int(g.rand, base)
		if err != nil {
			return "", err
		}
		code[i] = pairingCodeChars[n.Int64()]
	}
	return string(code), nil
}

// NormalizeCode trims and uppercases user input before any lookup.
func NormalizeCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

// ValidCode reports whether code could have been produced by a generator of
// any supported length.
func ValidCode(code string) bool {
	if len(code) < config.MinCodeLength || len(code) > config.MaxCodeLength {
		return false
	}
	for i := 0; i < len(code); i++ {
		if strings.IndexByte(pairingCodeChars, code[i]) < 0 {
			return false
		}
	}
	return true
}
