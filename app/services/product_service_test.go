package services

import (
	"context"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shashiranjanraj/storefront/app/models"
	"github.com/shashiranjanraj/storefront/pkg/httpclient"
	"github.com/shashiranjanraj/storefront/pkg/testkit"
)

func wireProduct(id string) models.Product {
	return models.Product{
		ID:           id,
		Name:         "Silk Saree",
		Image:        "/images/saree.jpg",
		Brand:        "Kashvi",
		Category:     "Sarees",
		Description:  "Handwoven silk saree",
		Price:        59.99,
		CountInStock: 5,
		Rating:       4.5,
		NumReviews:   2,
		Reviews: []models.Review{
			{ID: "r1", Name: "Jo", Rating: 5, Comment: "Lovely", CreatedAt: "2024-04-01T00:00:00Z"},
		},
	}
}

func TestProductGet(t *testing.T) {
	mt := testkit.NewMockTransport(
		testkit.Stub{Method: "GET", Path: "/api/products/p1", Body: wireProduct("p1")},
	)
	httpclient.DefaultClient.Transport = mt
	defer httpclient.ResetTransport()

	p, err := NewProductService().Get(context.Background(), "", "p1")
	require.NoError(t, err)

	assert.Equal(t, "Silk Saree", p.Name)
	assert.True(t, p.InStock())
	require.Len(t, p.Reviews, 1)
	mt.AssertAllCalled(t)
}

func TestProductGetRejectsInvalidReview(t *testing.T) {
	bad := wireProduct("p1")
	bad.Reviews[0].Rating = 9
	mt := testkit.NewMockTransport(
		testkit.Stub{Method: "GET", Path: "/api/products/p1", Body: bad},
	)
	httpclient.DefaultClient.Transport = mt
	defer httpclient.ResetTransport()

	_, err := NewProductService().Get(context.Background(), "", "p1")
	assert.Error(t, err)
}

func TestProductUpdate(t *testing.T) {
	updated := wireProduct("p1")
	updated.Name = "Silk Saree Deluxe"
	mt := testkit.NewMockTransport(
		testkit.Stub{Method: "PUT", Path: "/api/products/p1", Body: updated},
	)
	httpclient.DefaultClient.Transport = mt
	defer httpclient.ResetTransport()

	p, err := NewProductService().Update(context.Background(), "tok", "p1", models.ProductDraft{
		Name:         "Silk Saree Deluxe",
		Price:        79.99,
		Image:        "/images/saree.jpg",
		Brand:        "Kashvi",
		Category:     "Sarees",
		CountInStock: 5,
		Description:  "Updated",
	})
	require.NoError(t, err)

	assert.Equal(t, "Silk Saree Deluxe", p.Name)
	assert.Equal(t, []string{"PUT /api/products/p1"}, mt.Calls())
}

func TestProductCreateReviewSurfacesDuplicateMessage(t *testing.T) {
	mt := testkit.NewMockTransport(
		testkit.Stub{
			Method: "POST", Path: "/api/products/p1/reviews",
			Status: http.StatusBadRequest,
			Body:   map[string]string{"message": "Product already reviewed"},
		},
	)
	httpclient.DefaultClient.Transport = mt
	defer httpclient.ResetTransport()

	err := NewProductService().CreateReview(context.Background(), "tok", "p1", models.ReviewDraft{
		Rating:  5,
		Comment: "Great",
	})
	require.Error(t, err)
	assert.Equal(t, "Product already reviewed", err.Error())
}

func TestProductCreateReviewValidatesDraftFirst(t *testing.T) {
	mt := testkit.NewMockTransport()
	httpclient.DefaultClient.Transport = mt
	defer httpclient.ResetTransport()

	err := NewProductService().CreateReview(context.Background(), "tok", "p1", models.ReviewDraft{
		Rating: 0, Comment: "",
	})
	require.Error(t, err)
	assert.Empty(t, mt.Calls())
}
