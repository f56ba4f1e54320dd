package controllers

import (
	"context"
	"errors"
	"sync"

	"github.com/shashiranjanraj/storefront/app/models"
	"github.com/shashiranjanraj/storefront/pkg/logger"
	"github.com/shashiranjanraj/storefront/pkg/metrics"
)

// ErrNotPermitted is returned for actions the current session may not perform
// on the loaded entity.
var ErrNotPermitted = errors.New("action not permitted")

// OrderSnapshot is the rendered state of the order screen.
type OrderSnapshot struct {
	Screen string        `json:"screen"`
	ID     string        `json:"id"`
	Phase  Phase         `json:"phase"`
	Error  string        `json:"error,omitempty"`
	Order  *models.Order `json:"order,omitempty"`

	// Payment capability: the pay affordance renders only when Ready.
	PaymentReady    bool   `json:"paymentReady"`
	PaymentClientID string `json:"paymentClientId,omitempty"`
	CapabilityError string `json:"capabilityError,omitempty"`

	Payment       Flight `json:"payment"`
	PaymentError  string `json:"paymentError,omitempty"`
	Delivery      Flight `json:"delivery"`
	DeliveryError string `json:"deliveryError,omitempty"`
	CanDeliver    bool   `json:"canDeliver"`
}

// OrderController drives the order detail screen for one session.
type OrderController struct {
	orders   OrderAPI
	payments PaymentConfigAPI
	emit     Emitter

	mu    sync.Mutex
	guard fetchGuard

	id    string
	phase Phase
	err   string
	order *models.Order

	capRequested bool
	capReady     bool
	capClientID  string
	capErr       string

	payment    Flight
	payErr     string
	delivery   Flight
	deliverErr string
}

func NewOrderController(orders OrderAPI, payments PaymentConfigAPI, emit Emitter) *OrderController {
	if emit == nil {
		emit = func(string, interface{}) {}
	}
	return &OrderController{
		orders:   orders,
		payments: payments,
		emit:     emit,
		phase:    PhaseIdle,
		payment:  FlightIdle,
		delivery: FlightIdle,
	}
}

// Visit mounts the screen on an order id. Anonymous sessions never load: the
// caller receives ErrSignInRequired and redirects to sign-in. Visiting a
// different id supersedes any in-flight fetch and resets the pay/deliver
// sub-states and the capability guard.
func (c *OrderController) Visit(ctx context.Context, viewer *Viewer, id string) (OrderSnapshot, error) {
	if !viewer.SignedIn() {
		return OrderSnapshot{}, ErrSignInRequired
	}

	metrics.ScreenVisits.WithLabelValues("order").Inc()

	c.mu.Lock()
	if c.id != id {
		c.id = id
		c.order = nil
		c.payment = FlightIdle
		c.payErr = ""
		c.delivery = FlightIdle
		c.deliverErr = ""
		c.capRequested = false
		c.capReady = false
		c.capClientID = ""
		c.capErr = ""
	}
	c.mu.Unlock()

	return c.load(ctx, viewer, id), nil
}

// load runs one token-guarded fetch of the current order.
func (c *OrderController) load(ctx context.Context, viewer *Viewer, id string) OrderSnapshot {
	c.mu.Lock()
	token := c.guard.next()
	c.phase = PhaseLoading
	c.err = ""
	c.emitLocked(viewer)
	c.mu.Unlock()

	order, err := c.orders.Get(ctx, viewer.Token, id)

	c.mu.Lock()
	defer c.mu.Unlock()

	// A later visit superseded this fetch; its result must not commit.
	if !c.guard.current(token) || c.id != id {
		return c.snapshotLocked(viewer)
	}

	var wantCapability bool
	if err != nil {
		c.phase = PhaseError
		c.err = err.Error()
		c.order = nil
	} else {
		c.phase = PhaseLoaded
		c.order = order
		if !order.IsPaid && !c.capRequested {
			c.capRequested = true
			wantCapability = true
		}
	}
	snap := c.emitLocked(viewer)

	if wantCapability {
		// Outlive the mounting request; readiness lands over the ws stream.
		go c.armPayment(context.WithoutCancel(ctx), viewer, id)
	}
	return snap
}

// armPayment resolves the payment provider's client id at most once per
// mount, then flips the readiness flag.
func (c *OrderController) armPayment(ctx context.Context, viewer *Viewer, id string) {
	clientID, err := c.payments.PayPalClientID(ctx)

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.id != id {
		return
	}

	if err != nil {
		c.capErr = err.Error()
		logger.Warn("order screen: payment capability unavailable", "order", id, "error", err)
	} else {
		c.capReady = true
		c.capClientID = clientID
	}
	c.emitLocked(viewer)
}

// ConfirmPayment forwards the provider's confirmation upstream. On success
// the pay/deliver sub-states reset and the order re-fetches.
func (c *OrderController) ConfirmPayment(ctx context.Context, viewer *Viewer, result models.PaymentResult) (OrderSnapshot, error) {
	if !viewer.SignedIn() {
		return OrderSnapshot{}, ErrSignInRequired
	}

	c.mu.Lock()
	if c.phase != PhaseLoaded || c.order == nil {
		snap := c.snapshotLocked(viewer)
		c.mu.Unlock()
		return snap, ErrNotPermitted
	}
	id := c.id
	c.payment = FlightPending
	c.payErr = ""
	c.emitLocked(viewer)
	c.mu.Unlock()

	_, err := c.orders.Pay(ctx, viewer.Token, id, result)

	c.mu.Lock()
	if c.id != id {
		snap := c.snapshotLocked(viewer)
		c.mu.Unlock()
		return snap, nil
	}
	if err != nil {
		metrics.PaymentsConfirmed.WithLabelValues("error").Inc()
		c.payment = FlightError
		c.payErr = err.Error()
		snap := c.emitLocked(viewer)
		c.mu.Unlock()
		return snap, nil
	}

	metrics.PaymentsConfirmed.WithLabelValues("ok").Inc()
	c.payment = FlightConfirmed
	c.emitLocked(viewer)
	c.payment = FlightIdle
	c.delivery = FlightIdle
	c.mu.Unlock()

	return c.load(ctx, viewer, id), nil
}

// MarkDelivered marks the order delivered. Only an admin session may do this,
// and only for a paid, undelivered order.
func (c *OrderController) MarkDelivered(ctx context.Context, viewer *Viewer) (OrderSnapshot, error) {
	if !viewer.SignedIn() {
		return OrderSnapshot{}, ErrSignInRequired
	}

	c.mu.Lock()
	if !c.canDeliverLocked(viewer) {
		snap := c.snapshotLocked(viewer)
		c.mu.Unlock()
		return snap, ErrNotPermitted
	}
	id := c.id
	c.delivery = FlightPending
	c.deliverErr = ""
	c.emitLocked(viewer)
	c.mu.Unlock()

	_, err := c.orders.Deliver(ctx, viewer.Token, id)

	c.mu.Lock()
	if c.id != id {
		snap := c.snapshotLocked(viewer)
		c.mu.Unlock()
		return snap, nil
	}
	if err != nil {
		c.delivery = FlightError
		c.deliverErr = err.Error()
		snap := c.emitLocked(viewer)
		c.mu.Unlock()
		return snap, nil
	}

	c.delivery = FlightConfirmed
	c.emitLocked(viewer)
	c.payment = FlightIdle
	c.delivery = FlightIdle
	c.mu.Unlock()

	return c.load(ctx, viewer, id), nil
}

// CanDeliver reports whether the delivery affordance is visible for viewer.
func (c *OrderController) CanDeliver(viewer *Viewer) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.canDeliverLocked(viewer)
}

func (c *OrderController) canDeliverLocked(viewer *Viewer) bool {
	return viewer.SignedIn() && viewer.IsAdmin &&
		c.phase == PhaseLoaded && c.order != nil &&
		c.order.IsPaid && !c.order.IsDelivered
}

// Snapshot returns the current screen state.
func (c *OrderController) Snapshot(viewer *Viewer) OrderSnapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.snapshotLocked(viewer)
}

func (c *OrderController) snapshotLocked(viewer *Viewer) OrderSnapshot {
	return OrderSnapshot{
		Screen:          "order",
		ID:              c.id,
		Phase:           c.phase,
		Error:           c.err,
		Order:           c.order,
		PaymentReady:    c.capReady,
		PaymentClientID: c.capClientID,
		CapabilityError: c.capErr,
		Payment:         c.payment,
		PaymentError:    c.payErr,
		Delivery:        c.delivery,
		DeliveryError:   c.deliverErr,
		CanDeliver:      c.canDeliverLocked(viewer),
	}
}

func (c *OrderController) emitLocked(viewer *Viewer) OrderSnapshot {
	snap := c.snapshotLocked(viewer)
	c.emit("order", snap)
	return snap
}
