package models

import (
	"fmt"
	"math"

	"github.com/shashiranjanraj/storefront/pkg/validate"
)

// ShippingAddress is the delivery destination recorded on an order.
type ShippingAddress struct {
	Address    string `json:"address"    validate:"required"`
	City       string `json:"city"       validate:"required"`
	PostalCode string `json:"postalCode" validate:"required"`
	Country    string `json:"country"    validate:"required"`
}

// OrderItem is one purchased line: a product reference with the quantity and
// the unit price captured at purchase time.
type OrderItem struct {
	Product string  `json:"product" validate:"required"`
	Name    string  `json:"name"    validate:"required"`
	Image   string  `json:"image"`
	Qty     int     `json:"qty"     validate:"gte=1"`
	Price   float64 `json:"price"   validate:"gte=0"`
}

// OrderUser is the owning user as embedded in an order payload.
type OrderUser struct {
	Name  string `json:"name"`
	Email string `json:"email" validate:"required,email"`
}

// Order is a placed purchase with shipping, payment, and delivery status.
// It is decoded from the upstream API and validated at that boundary; fields
// are never inferred at render time.
type Order struct {
	ID              string          `json:"_id" validate:"required"`
	User            OrderUser       `json:"user"`
	ShippingAddress ShippingAddress `json:"shippingAddress"`
	PaymentMethod   string          `json:"paymentMethod" validate:"required"`
	OrderItems      []OrderItem     `json:"orderItems"`
	ItemsPrice      float64         `json:"itemsPrice"`
	ShippingPrice   float64         `json:"shippingPrice" validate:"gte=0"`
	TaxPrice        float64         `json:"taxPrice"      validate:"gte=0"`
	TotalPrice      float64         `json:"totalPrice"    validate:"gte=0"`
	IsPaid          bool            `json:"isPaid"`
	PaidAt          string          `json:"paidAt,omitempty"`
	IsDelivered     bool            `json:"isDelivered"`
	DeliveredAt     string          `json:"deliveredAt,omitempty"`
}

// PaymentResult is the confirmation payload handed back by the payment
// provider after a successful external payment.
type PaymentResult struct {
	ID           string `json:"id"     validate:"required"`
	Status       string `json:"status" validate:"required"`
	UpdateTime   string `json:"update_time"`
	EmailAddress string `json:"email_address"`
}

// Round2 rounds a price to two decimals, the same way every price shown on a
// screen is rounded.
func Round2(n float64) float64 {
	return math.Round(n*100) / 100
}

// RecomputeItemsPrice overwrites ItemsPrice with round2(Σ qty×price) over the
// line items. The wire value is never trusted; this runs on every load.
func (o *Order) RecomputeItemsPrice() {
	var sum float64
	for _, item := range o.OrderItems {
		sum += item.Price * float64(item.Qty)
	}
	o.ItemsPrice = Round2(sum)
}

// Validate checks the order and all nested records at the decode boundary.
func (o *Order) Validate() error {
	if errs := validate.Struct(o); validate.HasErrors(errs) {
		return fmt.Errorf("order %q: %w", o.ID, validate.Error(errs))
	}
	if errs := validate.Struct(&o.User); validate.HasErrors(errs) {
		return fmt.Errorf("order %q user: %w", o.ID, validate.Error(errs))
	}
	if errs := validate.Struct(&o.ShippingAddress); validate.HasErrors(errs) {
		return fmt.Errorf("order %q shipping address: %w", o.ID, validate.Error(errs))
	}
	for i := range o.OrderItems {
		if errs := validate.Struct(&o.OrderItems[i]); validate.HasErrors(errs) {
			return fmt.Errorf("order %q item %d: %w", o.ID, i, validate.Error(errs))
		}
	}
	return nil
}

// Validate checks a payment confirmation before it is forwarded upstream.
func (p *PaymentResult) Validate() error {
	if errs := validate.Struct(p); validate.HasErrors(errs) {
		return validate.Error(errs)
	}
	return nil
}
