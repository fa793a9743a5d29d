// Package secrets genera credenciales bearer (links públicos, handshakes de
// conexión) y el digest con el que se guardan.
package secrets

import (
	"encoding/hex"
	"fmt"
	"strings"

	gonanoid "github.com/matoous/go-nanoid/v2"
	"github.com/zeebo/blake3"
)

const (
	// alfabeto URL-safe de 62 símbolos: 43 chars ~ 256 bits
	alphabet    = "0123456789ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz"
	TokenLength = 43
)

// NewToken devuelve un token opaco generado con crypto/rand. No deriva del
// sujeto ni del timestamp.
func NewToken() (string, error) {
	tok, err := gonanoid.Generate(alphabet, TokenLength)
	if err != nil {
		return "", fmt.Errorf("secrets: generate token: %w", err)
	}
	return tok, nil
}

// Digest es lo que se persiste en vez del token. El lookup se hace por digest
// (índice / map), sin comparar el secreto en código de aplicación.
func Digest(token string) string {
	sum := blake3.Sum256([]byte(strings.TrimSpace(token)))
	return hex.EncodeToString(sum[:])
}

// LooksValid descarta tokens malformados sin ir al store.
func LooksValid(token string) bool {
	if len(token) != TokenLength {
		return false
	}
	for i := 0; i < len(token); i++ {
		if !strings.ContainsRune(alphabet, rune(token[i])) {
			return false
		}
	}
	return true
}
