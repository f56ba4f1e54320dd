package services

import (
	"context"
	"time"

	"github.com/shashiranjanraj/storefront/app/models"
	"github.com/shashiranjanraj/storefront/config"
	"github.com/shashiranjanraj/storefront/pkg/httpclient"
	"github.com/shashiranjanraj/storefront/pkg/metrics"
)

// OrderService talks to the upstream order resource.
type OrderService struct{}

func NewOrderService() *OrderService {
	return &OrderService{}
}

// Get fetches one order by id. The items subtotal is recomputed locally on
// every load; the wire value is never trusted.
func (s *OrderService) Get(ctx context.Context, token, id string) (order *models.Order, err error) {
	defer metrics.ObserveUpstream("order.get", &err, time.Now())

	resp, err := httpclient.Get(apiURL("/api/orders/%s", id)).
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

	var o models.Order
	if err = resp.JSON(&o); err != nil {
		return nil, err
	}
	if err = o.Validate(); err != nil {
		return nil, err
	}

	o.RecomputeItemsPrice()
	return &o, nil
}

// Pay forwards a payment confirmation to the upstream pay endpoint and returns
// the updated order.
func (s *OrderService) Pay(ctx context.Context, token, id string, result models.PaymentResult) (order *models.Order, err error) {
	defer metrics.ObserveUpstream("order.pay", &err, time.Now())

	if err = result.Validate(); err != nil {
		return nil, err
	}

	resp, err := httpclient.Put(apiURL("/api/orders/%s/pay", id)).
		Bearer(token).
		Body(result).
		Timeout(config.APITimeout()).
		WithContext(ctx).
		Send()
	if err != nil {
		return nil, err
	}
	if !resp.OK() {
		return nil, upstreamErr(resp)
	}

	var o models.Order
	if err = resp.JSON(&o); err != nil {
		return nil, err
	}
	return &o, nil
}

// Deliver marks the order delivered and returns the updated order.
func (s *OrderService) Deliver(ctx context.Context, token, id string) (order *models.Order, err error) {
	defer metrics.ObserveUpstream("order.deliver", &err, time.Now())

	resp, err := httpclient.Put(apiURL("/api/orders/%s/deliver", id)).
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

	var o models.Order
	if err = resp.JSON(&o); err != nil {
		return nil, err
	}
	return &o, nil
}
