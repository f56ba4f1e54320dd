package controllers

import (
	"context"
	"fmt"
	"sync"

	"github.com/shashiranjanraj/storefront/app/models"
	"github.com/shashiranjanraj/storefront/pkg/metrics"
)

// ProductSnapshot is the rendered state of the product detail screen.
type ProductSnapshot struct {
	Screen  string          `json:"screen"`
	ID      string          `json:"id"`
	Phase   Phase           `json:"phase"`
	Error   string          `json:"error,omitempty"`
	Product *models.Product `json:"product,omitempty"`

	Qty          int   `json:"qty"`
	QtyOptions   []int `json:"qtyOptions"`
	CanAddToCart bool  `json:"canAddToCart"`

	CanReview   bool               `json:"canReview"`
	ReviewDraft models.ReviewDraft `json:"reviewDraft"`
	Review      Flight             `json:"review"`
	ReviewError string             `json:"reviewError,omitempty"`
	ReviewAck   bool               `json:"reviewAck"`
}

// ProductController drives the product detail screen for one session.
type ProductController struct {
	products ProductAPI
	emit     Emitter

	mu    sync.Mutex
	guard fetchGuard

	id      string
	phase   Phase
	err     string
	product *models.Product

	qty       int
	draft     models.ReviewDraft
	review    Flight
	reviewErr string
	reviewAck bool
}

func NewProductController(products ProductAPI, emit Emitter) *ProductController {
	if emit == nil {
		emit = func(string, interface{}) {}
	}
	return &ProductController{
		products: products,
		emit:     emit,
		phase:    PhaseIdle,
		qty:      1,
		review:   FlightIdle,
	}
}

// Visit mounts the screen on a product id. Anonymous sessions may browse.
// Quantity resets to 1, and any review error or acknowledgement from a
// previous visit is cleared before the load starts.
func (c *ProductController) Visit(ctx context.Context, viewer *Viewer, id string) ProductSnapshot {
	metrics.ScreenVisits.WithLabelValues("product").Inc()

	c.mu.Lock()
	if c.id != id {
		c.id = id
		c.product = nil
		c.draft = models.ReviewDraft{}
	}
	c.qty = 1
	c.review = FlightIdle
	c.reviewErr = ""
	c.reviewAck = false
	c.mu.Unlock()

	return c.load(ctx, viewer, id)
}

func (c *ProductController) load(ctx context.Context, viewer *Viewer, id string) ProductSnapshot {
	c.mu.Lock()
	token := c.guard.next()
	c.phase = PhaseLoading
	c.err = ""
	c.emitLocked(viewer)
	c.mu.Unlock()

	product, err := c.products.Get(ctx, viewer.Token, id)

	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.guard.current(token) || c.id != id {
		return c.snapshotLocked(viewer)
	}

	if err != nil {
		c.phase = PhaseError
		c.err = err.Error()
		c.product = nil
	} else {
		c.phase = PhaseLoaded
		c.product = product
		if c.qty < 1 || c.qty > product.CountInStock {
			c.qty = 1
		}
	}
	return c.emitLocked(viewer)
}

// SetQty selects a purchase quantity. Valid values are 1..countInStock of the
// loaded product.
func (c *ProductController) SetQty(viewer *Viewer, qty int) (ProductSnapshot, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.phase != PhaseLoaded || c.product == nil {
		return c.snapshotLocked(viewer), ErrNotPermitted
	}
	if qty < 1 || qty > c.product.CountInStock {
		return c.snapshotLocked(viewer), fmt.Errorf("quantity %d out of range 1..%d", qty, c.product.CountInStock)
	}

	c.qty = qty
	return c.emitLocked(viewer), nil
}

// QtyOptions returns the selectable quantities [1..countInStock]. Empty when
// nothing is loaded or the product is out of stock.
func (c *ProductController) QtyOptions() []int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.qtyOptionsLocked()
}

func (c *ProductController) qtyOptionsLocked() []int {
	if c.phase != PhaseLoaded || c.product == nil || c.product.CountInStock <= 0 {
		return nil
	}
	opts := make([]int, c.product.CountInStock)
	for i := range opts {
		opts[i] = i + 1
	}
	return opts
}

// AddToCart returns the cart navigation target for the selected quantity.
// No cart call is made here; the cart service owns the mutation.
func (c *ProductController) AddToCart(viewer *Viewer) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.phase != PhaseLoaded || c.product == nil {
		return "", ErrNotPermitted
	}
	if !c.product.InStock() {
		return "", fmt.Errorf("product %q is out of stock", c.id)
	}
	return fmt.Sprintf("/cart/%s?qty=%d", c.id, c.qty), nil
}

// SubmitReview dispatches the review draft. Anonymous sessions are rejected
// before any network call. On success the draft resets to defaults, a
// one-time acknowledgement raises, and the product re-fetches so the new
// review and rating aggregate appear.
func (c *ProductController) SubmitReview(ctx context.Context, viewer *Viewer, draft models.ReviewDraft) (ProductSnapshot, error) {
	if !viewer.SignedIn() {
		return c.Snapshot(viewer), ErrSignInRequired
	}

	c.mu.Lock()
	if c.phase != PhaseLoaded || c.product == nil {
		snap := c.snapshotLocked(viewer)
		c.mu.Unlock()
		return snap, ErrNotPermitted
	}
	id := c.id
	c.draft = draft
	if err := draft.Validate(); err != nil {
		c.review = FlightError
		c.reviewErr = err.Error()
		snap := c.emitLocked(viewer)
		c.mu.Unlock()
		return snap, nil
	}
	c.review = FlightPending
	c.reviewErr = ""
	c.reviewAck = false
	c.emitLocked(viewer)
	c.mu.Unlock()

	err := c.products.CreateReview(ctx, viewer.Token, id, draft)

	c.mu.Lock()
	if c.id != id {
		snap := c.snapshotLocked(viewer)
		c.mu.Unlock()
		return snap, nil
	}
	if err != nil {
		c.review = FlightError
		c.reviewErr = err.Error()
		snap := c.emitLocked(viewer)
		c.mu.Unlock()
		return snap, nil
	}

	c.review = FlightConfirmed
	c.reviewErr = ""
	c.reviewAck = true
	c.draft = models.ReviewDraft{}
	c.emitLocked(viewer)
	c.mu.Unlock()

	return c.load(ctx, viewer, id), nil
}

// Snapshot returns the current screen state.
func (c *ProductController) Snapshot(viewer *Viewer) ProductSnapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.snapshotLocked(viewer)
}

func (c *ProductController) snapshotLocked(viewer *Viewer) ProductSnapshot {
	canAdd := c.phase == PhaseLoaded && c.product != nil && c.product.InStock()
	return ProductSnapshot{
		Screen:       "product",
		ID:           c.id,
		Phase:        c.phase,
		Error:        c.err,
		Product:      c.product,
		Qty:          c.qty,
		QtyOptions:   c.qtyOptionsLocked(),
		CanAddToCart: canAdd,
		CanReview:    viewer.SignedIn(),
		ReviewDraft:  c.draft,
		Review:       c.review,
		ReviewError:  c.reviewErr,
		ReviewAck:    c.reviewAck,
	}
}

func (c *ProductController) emitLocked(viewer *Viewer) ProductSnapshot {
	snap := c.snapshotLocked(viewer)
	c.emit("product", snap)
	return snap
}
