package controllers

import (
	"context"
	"errors"
	"io"
	"sync"

	"github.com/shashiranjanraj/storefront/app/models"
	"github.com/shashiranjanraj/storefront/pkg/logger"
	"github.com/shashiranjanraj/storefront/pkg/metrics"
)

// ProductListRoute is where the edit screen navigates after a confirmed save.
const ProductListRoute = "/admin/productlist"

// ErrUploadInFlight rejects a second upload while one is still pending.
var ErrUploadInFlight = errors.New("an image upload is already in progress")

// EditSnapshot is the rendered state of the admin product edit screen.
type EditSnapshot struct {
	Screen string `json:"screen"`
	ID     string `json:"id"`
	Phase  Phase  `json:"phase"`
	Error  string `json:"error,omitempty"`

	Draft  models.ProductDraft `json:"draft"`
	Seeded bool                `json:"seeded"`

	Update      Flight `json:"update"`
	UpdateError string `json:"updateError,omitempty"`

	Uploading   bool   `json:"uploading"`
	UploadError string `json:"uploadError,omitempty"`
}

// ProductEditController drives the admin product edit screen for one session.
type ProductEditController struct {
	products ProductAPI
	uploads  UploadAPI
	emit     Emitter

	mu    sync.Mutex
	guard fetchGuard

	id      string
	phase   Phase
	err     string
	product *models.Product

	draft  models.ProductDraft
	seeded bool

	update    Flight
	updateErr string

	uploading bool
	uploadErr string
}

func NewProductEditController(products ProductAPI, uploads UploadAPI, emit Emitter) *ProductEditController {
	if emit == nil {
		emit = func(string, interface{}) {}
	}
	return &ProductEditController{
		products: products,
		uploads:  uploads,
		emit:     emit,
		phase:    PhaseIdle,
		update:   FlightIdle,
	}
}

// Visit mounts the edit screen on a product id. When the loaded entity does
// not match the id, it is fetched first; once matched, the six-field draft is
// seeded from the entity exactly.
func (c *ProductEditController) Visit(ctx context.Context, viewer *Viewer, id string) (EditSnapshot, error) {
	if !viewer.SignedIn() {
		return EditSnapshot{}, ErrSignInRequired
	}
	if !viewer.IsAdmin {
		return EditSnapshot{}, ErrNotPermitted
	}

	metrics.ScreenVisits.WithLabelValues("product_edit").Inc()

	c.mu.Lock()
	if c.id != id {
		c.id = id
		c.seeded = false
		c.update = FlightIdle
		c.updateErr = ""
		c.uploading = false
		c.uploadErr = ""
	}
	matched := c.product != nil && c.product.ID == id
	if matched {
		c.draft = models.DraftFromProduct(c.product)
		c.seeded = true
		snap := c.emitLocked()
		c.mu.Unlock()
		return snap, nil
	}
	c.mu.Unlock()

	return c.load(ctx, viewer, id), nil
}

func (c *ProductEditController) load(ctx context.Context, viewer *Viewer, id string) EditSnapshot {
	c.mu.Lock()
	token := c.guard.next()
	c.phase = PhaseLoading
	c.err = ""
	c.emitLocked()
	c.mu.Unlock()

	product, err := c.products.Get(ctx, viewer.Token, id)

	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.guard.current(token) || c.id != id {
		return c.snapshotLocked()
	}

	if err != nil {
		c.phase = PhaseError
		c.err = err.Error()
		c.product = nil
		c.seeded = false
	} else {
		c.phase = PhaseLoaded
		c.product = product
		c.draft = models.DraftFromProduct(product)
		c.seeded = true
	}
	return c.emitLocked()
}

// SetDraft replaces the edit draft with the admin's current field values.
func (c *ProductEditController) SetDraft(viewer *Viewer, draft models.ProductDraft) (EditSnapshot, error) {
	if !viewer.SignedIn() || !viewer.IsAdmin {
		return EditSnapshot{}, ErrNotPermitted
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.seeded {
		return c.snapshotLocked(), ErrNotPermitted
	}
	c.draft = draft
	return c.emitLocked(), nil
}

// Submit dispatches the full draft upstream. On confirmed success the update
// sub-state resets and the screen navigates to the product list; the returned
// string is that navigation target, empty on failure.
func (c *ProductEditController) Submit(ctx context.Context, viewer *Viewer, draft models.ProductDraft) (EditSnapshot, string, error) {
	if !viewer.SignedIn() || !viewer.IsAdmin {
		return EditSnapshot{}, "", ErrNotPermitted
	}

	c.mu.Lock()
	if !c.seeded {
		snap := c.snapshotLocked()
		c.mu.Unlock()
		return snap, "", ErrNotPermitted
	}
	id := c.id
	c.draft = draft
	if err := draft.Validate(); err != nil {
		c.update = FlightError
		c.updateErr = err.Error()
		snap := c.emitLocked()
		c.mu.Unlock()
		return snap, "", nil
	}
	c.update = FlightPending
	c.updateErr = ""
	c.emitLocked()
	c.mu.Unlock()

	updated, err := c.products.Update(ctx, viewer.Token, id, draft)

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.id != id {
		return c.snapshotLocked(), "", nil
	}
	if err != nil {
		c.update = FlightError
		c.updateErr = err.Error()
		return c.emitLocked(), "", nil
	}

	c.product = updated
	c.update = FlightIdle
	c.updateErr = ""
	return c.emitLocked(), ProductListRoute, nil
}

// UploadImage forwards the chosen image upstream and, on success, replaces
// the draft's image reference with the returned path. While an upload is in
// flight further submissions are suppressed. Failures are logged and land in
// the snapshot's UploadError; they are never silently dropped.
func (c *ProductEditController) UploadImage(ctx context.Context, viewer *Viewer, filename string, file io.Reader) (EditSnapshot, error) {
	if !viewer.SignedIn() || !viewer.IsAdmin {
		return EditSnapshot{}, ErrNotPermitted
	}

	c.mu.Lock()
	if !c.seeded {
		snap := c.snapshotLocked()
		c.mu.Unlock()
		return snap, ErrNotPermitted
	}
	if c.uploading {
		snap := c.snapshotLocked()
		c.mu.Unlock()
		return snap, ErrUploadInFlight
	}
	id := c.id
	c.uploading = true
	c.uploadErr = ""
	c.emitLocked()
	c.mu.Unlock()

	path, err := c.uploads.Upload(ctx, viewer.Token, filename, file)

	c.mu.Lock()
	defer c.mu.Unlock()

	c.uploading = false
	if c.id != id {
		return c.snapshotLocked(), nil
	}
	if err != nil {
		c.uploadErr = err.Error()
		logger.Error("product edit: image upload failed", "product", id, "error", err)
		return c.emitLocked(), nil
	}

	c.draft.Image = path
	return c.emitLocked(), nil
}

// Snapshot returns the current screen state.
func (c *ProductEditController) Snapshot() EditSnapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.snapshotLocked()
}

func (c *ProductEditController) snapshotLocked() EditSnapshot {
	return EditSnapshot{
		Screen:      "product_edit",
		ID:          c.id,
		Phase:       c.phase,
		Error:       c.err,
		Draft:       c.draft,
		Seeded:      c.seeded,
		Update:      c.update,
		UpdateError: c.updateErr,
		Uploading:   c.uploading,
		UploadError: c.uploadErr,
	}
}

func (c *ProductEditController) emitLocked() EditSnapshot {
	snap := c.snapshotLocked()
	c.emit("product_edit", snap)
	return snap
}
