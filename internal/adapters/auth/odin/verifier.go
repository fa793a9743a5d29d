package odin

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"stable-sharing/internal/ports/auth"

	"github.com/zeebo/blake3"
)

var ErrTokenEmpty = errors.New("token is empty")

// Verifier implementa auth.AuthVerifier contra Odin (auth.mode=odin).
// Con CacheTTL > 0 recuerda claims verificados por digest del token, nunca el
// token en claro.
type Verifier struct {
	client *Client
	ttl    time.Duration
	now    func() time.Time

	mu    sync.Mutex
	cache map[[32]byte]cachedClaims
}

type cachedClaims struct {
	claims  auth.Claims
	expires time.Time
}

func NewVerifier(client *Client) *Verifier {
	return &Verifier{client: client, now: time.Now}
}

// WithCache activa la cache de claims. Un token revocado en Odin puede seguir
// pasando hasta ttl.
func (v *Verifier) WithCache(ttl time.Duration) *Verifier {
	v.ttl = ttl
	v.cache = make(map[[32]byte]cachedClaims)
	return v
}

func (v *Verifier) Verify(ctx context.Context, token string) (auth.Claims, error) {
	if v == nil || v.client == nil {
		return auth.Claims{}, ErrOdinNotConfigured
	}
	token = strings.TrimSpace(token)
	if token == "" {
		return auth.Claims{}, ErrTokenEmpty
	}

	key := blake3.Sum256([]byte(token))
	if c, ok := v.cached(key); ok {
		return c, nil
	}

	claims, err := v.client.VerifyToken(ctx, token)
	if err != nil {
		return auth.Claims{}, fmt.Errorf("odin verify: %w", err)
	}

	v.store(key, claims)
	return claims, nil
}

func (v *Verifier) cached(key [32]byte) (auth.Claims, bool) {
	if v.ttl <= 0 {
		return auth.Claims{}, false
	}
	v.mu.Lock()
	defer v.mu.Unlock()

	c, ok := v.cache[key]
	if !ok {
		return auth.Claims{}, false
	}
	if !v.now().Before(c.expires) {
		delete(v.cache, key)
		return auth.Claims{}, false
	}
	return c.claims, true
}

func (v *Verifier) store(key [32]byte, claims auth.Claims) {
	if v.ttl <= 0 {
		return
	}
	v.mu.Lock()
	defer v.mu.Unlock()

	now := v.now()
	for k, c := range v.cache {
		if !now.Before(c.expires) {
			delete(v.cache, k)
		}
	}
	v.cache[key] = cachedClaims{claims: claims, expires: now.Add(v.ttl)}
}
