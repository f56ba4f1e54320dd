package controllers

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shashiranjanraj/storefront/app/models"
)

func TestEditVisitRequiresAdmin(t *testing.T) {
	c := NewProductEditController(newFakeProducts(), &fakeUploads{}, nil)

	_, err := c.Visit(context.Background(), nil, "p1")
	assert.ErrorIs(t, err, ErrSignInRequired)

	_, err = c.Visit(context.Background(), buyer(), "p1")
	assert.ErrorIs(t, err, ErrNotPermitted)
}

func TestEditVisitFetchesThenSeedsDraft(t *testing.T) {
	products := newFakeProducts(testProduct("p1", 7))
	c := NewProductEditController(products, &fakeUploads{}, nil)

	snap, err := c.Visit(context.Background(), admin(), "p1")
	require.NoError(t, err)

	assert.Equal(t, 1, products.gets)
	assert.True(t, snap.Seeded)
	assert.Equal(t, models.ProductDraft{
		Name:         "Silk Saree",
		Price:        59.99,
		Image:        "/images/saree.jpg",
		Brand:        "Kashvi",
		Category:     "Sarees",
		CountInStock: 7,
		Description:  "Handwoven silk saree",
	}, snap.Draft)
}

func TestEditRevisitMatchedSeedsWithoutFetch(t *testing.T) {
	products := newFakeProducts(testProduct("p1", 7))
	c := NewProductEditController(products, &fakeUploads{}, nil)

	_, err := c.Visit(context.Background(), admin(), "p1")
	require.NoError(t, err)

	// Dirty the draft, then re-visit: it reseeds from the entity, no fetch.
	_, err = c.SetDraft(admin(), models.ProductDraft{Name: "Changed", Price: 1})
	require.NoError(t, err)

	snap, err := c.Visit(context.Background(), admin(), "p1")
	require.NoError(t, err)

	assert.Equal(t, 1, products.gets)
	assert.Equal(t, "Silk Saree", snap.Draft.Name)
}

func TestEditVisitDifferentIDFetchesFirst(t *testing.T) {
	products := newFakeProducts(testProduct("p1", 7), testProduct("p2", 3))
	c := NewProductEditController(products, &fakeUploads{}, nil)

	_, err := c.Visit(context.Background(), admin(), "p1")
	require.NoError(t, err)

	snap, err := c.Visit(context.Background(), admin(), "p2")
	require.NoError(t, err)

	assert.Equal(t, 2, products.gets)
	assert.Equal(t, 3, snap.Draft.CountInStock)
}

func TestEditSubmitNavigatesToProductList(t *testing.T) {
	products := newFakeProducts(testProduct("p1", 7))
	c := NewProductEditController(products, &fakeUploads{}, nil)

	_, err := c.Visit(context.Background(), admin(), "p1")
	require.NoError(t, err)

	draft := models.ProductDraft{
		Name:         "Silk Saree Deluxe",
		Price:        79.99,
		Image:        "/images/saree.jpg",
		Brand:        "Kashvi",
		Category:     "Sarees",
		CountInStock: 5,
		Description:  "Updated",
	}
	snap, redirect, err := c.Submit(context.Background(), admin(), draft)
	require.NoError(t, err)

	require.Len(t, products.updates, 1)
	assert.Equal(t, draft, products.updates[0])
	assert.Equal(t, ProductListRoute, redirect)
	assert.Equal(t, FlightIdle, snap.Update)
	assert.Empty(t, snap.UpdateError)
}

func TestEditSubmitErrorSurfacesWithoutNavigation(t *testing.T) {
	products := newFakeProducts(testProduct("p1", 7))
	products.updateErr = &notFoundError{}
	c := NewProductEditController(products, &fakeUploads{}, nil)

	_, err := c.Visit(context.Background(), admin(), "p1")
	require.NoError(t, err)

	snap, redirect, err := c.Submit(context.Background(), admin(), models.ProductDraft{Name: "X"})
	require.NoError(t, err)

	assert.Empty(t, redirect)
	assert.Equal(t, FlightError, snap.Update)
	assert.Equal(t, "Order not found", snap.UpdateError)
}

func TestEditUploadReplacesDraftImage(t *testing.T) {
	products := newFakeProducts(testProduct("p1", 7))
	uploads := &fakeUploads{path: "/uploads/image-1623.jpg"}
	c := NewProductEditController(products, uploads, nil)

	_, err := c.Visit(context.Background(), admin(), "p1")
	require.NoError(t, err)

	snap, err := c.UploadImage(context.Background(), admin(), "saree.jpg", strings.NewReader("bytes"))
	require.NoError(t, err)

	assert.Equal(t, "/uploads/image-1623.jpg", snap.Draft.Image)
	assert.False(t, snap.Uploading)
	assert.Empty(t, snap.UploadError)
}

func TestEditUploadErrorIsSurfacedNotSwallowed(t *testing.T) {
	products := newFakeProducts(testProduct("p1", 7))
	uploads := &fakeUploads{err: &notFoundError{}}
	c := NewProductEditController(products, uploads, nil)

	_, err := c.Visit(context.Background(), admin(), "p1")
	require.NoError(t, err)

	snap, err := c.UploadImage(context.Background(), admin(), "saree.jpg", strings.NewReader("bytes"))
	require.NoError(t, err)

	assert.Equal(t, "Order not found", snap.UploadError)
	assert.False(t, snap.Uploading)
	// The draft keeps its previous image reference.
	assert.Equal(t, "/images/saree.jpg", snap.Draft.Image)
}

func TestEditUploadSuppressesRedundantSubmissions(t *testing.T) {
	products := newFakeProducts(testProduct("p1", 7))
	uploads := &fakeUploads{path: "/uploads/a.jpg", block: make(chan struct{})}
	c := NewProductEditController(products, uploads, nil)

	_, err := c.Visit(context.Background(), admin(), "p1")
	require.NoError(t, err)

	done := make(chan struct{})
	go func() {
		defer close(done)
		c.UploadImage(context.Background(), admin(), "a.jpg", strings.NewReader("x")) //nolint:errcheck
	}()

	require.Eventually(t, func() bool {
		return c.Snapshot().Uploading
	}, time.Second, time.Millisecond)

	_, err = c.UploadImage(context.Background(), admin(), "b.jpg", strings.NewReader("y"))
	assert.ErrorIs(t, err, ErrUploadInFlight)

	close(uploads.block)
	<-done
	assert.Equal(t, 1, uploads.callCount())
}
