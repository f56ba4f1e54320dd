// Package session identifies a browsing session across screen requests.
//
// A session is the unit that owns screen state: each session gets its own
// controller instances, and drafts die with the session. The session id
// travels in a cookie; the value store is backed by pkg/cache (Redis, or the
// in-process fallback).
package session

import (
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/shashiranjanraj/storefront/pkg/cache"
)

// Options configures session behaviour.
type Options struct {
	CookieName string
	TTL        time.Duration
	HTTPOnly   bool
	Secure     bool
	SameSite   http.SameSite
	Path       string
}

// DefaultOptions returns sensible defaults.
func DefaultOptions() Options {
	return Options{
		CookieName: "storefront_session",
		TTL:        2 * time.Hour,
		HTTPOnly:   true,
		Secure:     false, // set true in production
		SameSite:   http.SameSiteLaxMode,
		Path:       "/",
	}
}

// newID generates a cryptographically random 32-byte hex session ID.
func newID() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}

func cacheKey(id string) string { return "storefront:session:" + id }

// ID resolves the session id for a request, minting one (and setting the
// cookie) when the request carries none.
func ID(w http.ResponseWriter, r *http.Request, opts Options) (string, error) {
	if c, err := r.Cookie(opts.CookieName); err == nil && c.Value != "" {
		return c.Value, nil
	}

	id, err := newID()
	if err != nil {
		return "", fmt.Errorf("session: new id: %w", err)
	}

	http.SetCookie(w, &http.Cookie{
		Name:     opts.CookieName,
		Value:    id,
		Path:     opts.Path,
		MaxAge:   int(opts.TTL.Seconds()),
		HttpOnly: opts.HTTPOnly,
		Secure:   opts.Secure,
		SameSite: opts.SameSite,
	})
	return id, nil
}

// Put stores a JSON value under key for this session.
func Put(id, key string, value interface{}, ttl time.Duration) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("session: marshal %s: %w", key, err)
	}
	return cache.Set(cacheKey(id)+":"+key, json.RawMessage(raw), ttl)
}

// Get loads a JSON value stored under key for this session.
func Get(id, key string, dest interface{}) bool {
	var raw json.RawMessage
	if !cache.Get(cacheKey(id)+":"+key, &raw) {
		return false
	}
	return json.Unmarshal(raw, dest) == nil
}

// Forget removes a stored value.
func Forget(id, key string) error {
	return cache.Del(cacheKey(id) + ":" + key)
}
