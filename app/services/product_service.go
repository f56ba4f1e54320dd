package services

import (
	"context"
	"time"

	"github.com/shashiranjanraj/storefront/app/models"
	"github.com/shashiranjanraj/storefront/config"
	"github.com/shashiranjanraj/storefront/pkg/httpclient"
	"github.com/shashiranjanraj/storefront/pkg/metrics"
)

// ProductService talks to the upstream product resource.
type ProductService struct{}

func NewProductService() *ProductService {
	return &ProductService{}
}

// Get fetches one product by id.
func (s *ProductService) Get(ctx context.Context, token, id string) (product *models.Product, err error) {
	defer metrics.ObserveUpstream("product.get", &err, time.Now())

	resp, err := httpclient.Get(apiURL("/api/products/%s", id)).
		Bearer(token).
		Timeout(config.APITimeout()).
		WithContext(ctx).
		Send()
	if err != nil {
		return nil, err
	}
	if !resp.OK() {
		return nil, upstreamErr(resp)
	}

	var p models.Product
	if err = resp.JSON(&p); err != nil {
		return nil, err
	}
	if err = p.Validate(); err != nil {
		return nil, err
	}
	return &p, nil
}

// Update replaces the product's editable fields and returns the saved entity.
func (s *ProductService) Update(ctx context.Context, token, id string, draft models.ProductDraft) (product *models.Product, err error) {
	defer metrics.ObserveUpstream("product.update", &err, time.Now())

	if err = draft.Validate(); err != nil {
		return nil, err
	}

	resp, err := httpclient.Put(apiURL("/api/products/%s", id)).
		Bearer(token).
		Body(draft).
		Timeout(config.APITimeout()).
		WithContext(ctx).
		Send()
	if err != nil {
		return nil, err
	}
	if !resp.OK() {
		return nil, upstreamErr(resp)
	}

	var p models.Product
	if err = resp.JSON(&p); err != nil {
		return nil, err
	}
	return &p, nil
}

// CreateReview posts a new review for the product. The upstream API rejects
// duplicate reviews by the same user; that message is surfaced verbatim.
func (s *ProductService) CreateReview(ctx context.Context, token, id string, draft models.ReviewDraft) (err error) {
	defer metrics.ObserveUpstream("product.review", &err, time.Now())

	if err = draft.Validate(); err != nil {
		return err
	}

	resp, err := httpclient.Post(apiURL("/api/products/%s/reviews", id)).
		Bearer(token).
		Body(draft).
		Timeout(config.APITimeout()).
		WithContext(ctx).
		Send()
	if err != nil {
		return err
	}
	if !resp.OK() {
		return upstreamErr(resp)
	}
	return nil
}
