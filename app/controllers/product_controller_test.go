package controllers

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shashiranjanraj/storefront/app/models"
)

func TestProductVisitLoads(t *testing.T) {
	products := newFakeProducts(testProduct("p1", 5))
	c := NewProductController(products, nil)

	snap := c.Visit(context.Background(), nil, "p1")

	assert.Equal(t, PhaseLoaded, snap.Phase)
	require.NotNil(t, snap.Product)
	assert.Equal(t, "Silk Saree", snap.Product.Name)
	assert.Equal(t, 1, snap.Qty)
	assert.False(t, snap.CanReview) // anonymous
}

func TestProductQtyOptionsMatchStock(t *testing.T) {
	c := NewProductController(newFakeProducts(testProduct("p1", 4)), nil)
	snap := c.Visit(context.Background(), nil, "p1")

	assert.Equal(t, []int{1, 2, 3, 4}, snap.QtyOptions)
	assert.True(t, snap.CanAddToCart)
}

func TestProductOutOfStockDisablesCart(t *testing.T) {
	c := NewProductController(newFakeProducts(testProduct("p1", 0)), nil)
	snap := c.Visit(context.Background(), nil, "p1")

	assert.Empty(t, snap.QtyOptions)
	assert.False(t, snap.CanAddToCart)

	_, err := c.AddToCart(nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "out of stock")
}

func TestProductSetQtyBounds(t *testing.T) {
	c := NewProductController(newFakeProducts(testProduct("p1", 3)), nil)
	c.Visit(context.Background(), nil, "p1")

	snap, err := c.SetQty(nil, 3)
	require.NoError(t, err)
	assert.Equal(t, 3, snap.Qty)

	_, err = c.SetQty(nil, 0)
	assert.Error(t, err)
	_, err = c.SetQty(nil, 4)
	assert.Error(t, err)
	assert.Equal(t, 3, c.Snapshot(nil).Qty)
}

func TestProductAddToCartNavigation(t *testing.T) {
	c := NewProductController(newFakeProducts(testProduct("p1", 5)), nil)
	c.Visit(context.Background(), nil, "p1")

	_, err := c.SetQty(nil, 2)
	require.NoError(t, err)

	target, err := c.AddToCart(nil)
	require.NoError(t, err)
	assert.Equal(t, "/cart/p1?qty=2", target)
}

func TestProductReviewRequiresSignIn(t *testing.T) {
	products := newFakeProducts(testProduct("p1", 5))
	c := NewProductController(products, nil)
	c.Visit(context.Background(), nil, "p1")

	_, err := c.SubmitReview(context.Background(), nil, models.ReviewDraft{Rating: 5, Comment: "Great"})
	assert.ErrorIs(t, err, ErrSignInRequired)
	assert.Empty(t, products.reviews)
}

func TestProductReviewSuccessClearsDraftAndRefetches(t *testing.T) {
	products := newFakeProducts(testProduct("p1", 5))
	c := NewProductController(products, nil)
	c.Visit(context.Background(), buyer(), "p1")

	draft := models.ReviewDraft{Rating: 5, Comment: "Great"}
	snap, err := c.SubmitReview(context.Background(), buyer(), draft)
	require.NoError(t, err)

	require.Len(t, products.reviews, 1)
	assert.Equal(t, draft, products.reviews[0])

	assert.Equal(t, models.ReviewDraft{}, snap.ReviewDraft)
	assert.True(t, snap.ReviewAck)
	assert.Empty(t, snap.ReviewError)
	assert.Equal(t, 2, products.gets) // mount + post-review refetch
}

func TestProductReviewErrorSurfacesVerbatimAndClearsOnVisit(t *testing.T) {
	products := newFakeProducts(testProduct("p1", 5))
	products.reviewErr = &notFoundError{}
	c := NewProductController(products, nil)
	c.Visit(context.Background(), buyer(), "p1")

	draft := models.ReviewDraft{Rating: 4, Comment: "Nice"}
	snap, err := c.SubmitReview(context.Background(), buyer(), draft)
	require.NoError(t, err)

	assert.Equal(t, FlightError, snap.Review)
	assert.Equal(t, "Order not found", snap.ReviewError)
	// A failed submission keeps the draft for correction.
	assert.Equal(t, draft, snap.ReviewDraft)

	snap = c.Visit(context.Background(), buyer(), "p1")
	assert.Empty(t, snap.ReviewError)
	assert.Equal(t, FlightIdle, snap.Review)
	assert.False(t, snap.ReviewAck)
}

func TestProductReviewInvalidDraftNeverDispatches(t *testing.T) {
	products := newFakeProducts(testProduct("p1", 5))
	c := NewProductController(products, nil)
	c.Visit(context.Background(), buyer(), "p1")

	snap, err := c.SubmitReview(context.Background(), buyer(), models.ReviewDraft{Rating: 6, Comment: "x"})
	require.NoError(t, err)

	assert.Equal(t, FlightError, snap.Review)
	assert.NotEmpty(t, snap.ReviewError)
	assert.Empty(t, products.reviews)
}

func TestProductVisitResetsQty(t *testing.T) {
	c := NewProductController(newFakeProducts(testProduct("p1", 5), testProduct("p2", 5)), nil)
	c.Visit(context.Background(), nil, "p1")
	c.SetQty(nil, 4)

	snap := c.Visit(context.Background(), nil, "p2")
	assert.Equal(t, 1, snap.Qty)
}

func TestProductLoadErrorSurfaces(t *testing.T) {
	c := NewProductController(newFakeProducts(), nil)
	snap := c.Visit(context.Background(), nil, "ghost")

	assert.Equal(t, PhaseError, snap.Phase)
	assert.Equal(t, "Order not found", snap.Error)
}
