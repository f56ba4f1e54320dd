package controllers

import (
	"sync"
	"time"

	"github.com/shashiranjanraj/storefront/pkg/event"
)

// Services bundles the upstream clients every screen controller draws from.
type Services struct {
	Orders   OrderAPI
	Products ProductAPI
	Uploads  UploadAPI
	Payments PaymentConfigAPI
}

// ScreenEvent is the payload fired on event.ScreenUpdated after every state
// transition. The server forwards it to the session's WebSocket clients.
type ScreenEvent struct {
	Session  string      `json:"-"`
	Screen   string      `json:"screen"`
	Snapshot interface{} `json:"snapshot"`
}

// Registry hands out the per-session controller instances. Screens are never
// shared between sessions, so drafts and sub-states die with the session.
type Registry struct {
	services Services

	mu       sync.Mutex
	sessions map[string]*sessionScreens
}

type sessionScreens struct {
	order    *OrderController
	product  *ProductController
	edit     *ProductEditController
	lastSeen time.Time
}

func NewRegistry(services Services) *Registry {
	return &Registry{
		services: services,
		sessions: make(map[string]*sessionScreens),
	}
}

func (r *Registry) screens(sessionID string) *sessionScreens {
	r.mu.Lock()
	defer r.mu.Unlock()

	s, ok := r.sessions[sessionID]
	if !ok {
		emit := func(screen string, snapshot interface{}) {
			event.Fire(event.ScreenUpdated, ScreenEvent{
				Session:  sessionID,
				Screen:   screen,
				Snapshot: snapshot,
			})
		}
		s = &sessionScreens{
			order:   NewOrderController(r.services.Orders, r.services.Payments, emit),
			product: NewProductController(r.services.Products, emit),
			edit:    NewProductEditController(r.services.Products, r.services.Uploads, emit),
		}
		r.sessions[sessionID] = s
	}
	s.lastSeen = time.Now()
	return s
}

// Order returns the session's order screen controller.
func (r *Registry) Order(sessionID string) *OrderController {
	return r.screens(sessionID).order
}

// Product returns the session's product screen controller.
func (r *Registry) Product(sessionID string) *ProductController {
	return r.screens(sessionID).product
}

// ProductEdit returns the session's product edit screen controller.
func (r *Registry) ProductEdit(sessionID string) *ProductEditController {
	return r.screens(sessionID).edit
}

// Sweep drops sessions idle for longer than maxIdle. The server runs this on
// a ticker so abandoned drafts do not accumulate.
func (r *Registry) Sweep(maxIdle time.Duration) int {
	cutoff := time.Now().Add(-maxIdle)

	r.mu.Lock()
	defer r.mu.Unlock()

	removed := 0
	for id, s := range r.sessions {
		if s.lastSeen.Before(cutoff) {
			delete(r.sessions, id)
			removed++
		}
	}
	return removed
}

// Len reports how many sessions currently hold screen state.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.sessions)
}
