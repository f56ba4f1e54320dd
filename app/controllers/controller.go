// Package controllers implements the screen controllers as explicit state
// machines. Each controller is a per-session instance that owns one screen's
// view state: what is loaded, what is in flight, and which affordances are
// currently available. Controllers receive their upstream services and event
// emitter at construction; there is no ambient global store.
package controllers

import (
	"context"
	"errors"
	"io"
	"sync/atomic"

	"github.com/shashiranjanraj/storefront/app/models"
)

// Phase is the outer lifecycle of a screen's primary entity.
type Phase string

const (
	PhaseIdle    Phase = "idle"
	PhaseLoading Phase = "loading"
	PhaseLoaded  Phase = "loaded"
	PhaseError   Phase = "error"
)

// Flight is the lifecycle of a mutating sub-action (pay, deliver, update).
type Flight string

const (
	FlightIdle      Flight = "idle"
	FlightPending   Flight = "pending"
	FlightConfirmed Flight = "confirmed"
	FlightError     Flight = "error"
)

// ErrSignInRequired means the screen demands an authenticated session. The
// route layer turns it into a redirect to the sign-in route.
var ErrSignInRequired = errors.New("sign in required")

// Viewer is the session identity a screen request runs as. A nil *Viewer (or
// zero UserID) means anonymous. Token is the raw bearer token forwarded to
// the upstream API.
type Viewer struct {
	UserID  string
	Name    string
	IsAdmin bool
	Token   string
}

// SignedIn reports whether v carries an authenticated identity.
func (v *Viewer) SignedIn() bool {
	return v != nil && v.UserID != ""
}

// Emitter publishes a screen snapshot after every state transition. The
// server bridges emissions onto the WebSocket stream for the owning session.
type Emitter func(screen string, snapshot interface{})

// ─── Upstream service contracts ──────────────────────────────────────────────

// OrderAPI is what the order screen needs from the upstream order resource.
type OrderAPI interface {
	Get(ctx context.Context, token, id string) (*models.Order, error)
	Pay(ctx context.Context, token, id string, result models.PaymentResult) (*models.Order, error)
	Deliver(ctx context.Context, token, id string) (*models.Order, error)
}

// ProductAPI is what the product screens need from the upstream product
// resource.
type ProductAPI interface {
	Get(ctx context.Context, token, id string) (*models.Product, error)
	Update(ctx context.Context, token, id string, draft models.ProductDraft) (*models.Product, error)
	CreateReview(ctx context.Context, token, id string, draft models.ReviewDraft) error
}

// UploadAPI forwards a product image upstream and returns its public path.
type UploadAPI interface {
	Upload(ctx context.Context, token, filename string, file io.Reader) (string, error)
}

// PaymentConfigAPI resolves the payment provider's client id.
type PaymentConfigAPI interface {
	PayPalClientID(ctx context.Context) (string, error)
}

// ─── Fetch tokens ────────────────────────────────────────────────────────────

// fetchGuard hands out monotonic tokens for entity fetches. A response may
// commit to view state only if its token is still the newest one issued; a
// visit to a different id (or a re-visit) supersedes everything in flight.
type fetchGuard struct {
	seq atomic.Uint64
}

func (g *fetchGuard) next() uint64 {
	return g.seq.Add(1)
}

func (g *fetchGuard) current(token uint64) bool {
	return g.seq.Load() == token
}
