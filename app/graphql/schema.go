// Package graphql defines the read-only query surface over the screen
// entities. It resolves straight through the upstream services; nothing here
// mutates state.
package graphql

import (
	"context"
	"fmt"

	"github.com/graphql-go/graphql"

	"github.com/shashiranjanraj/storefront/app/models"
	"github.com/shashiranjanraj/storefront/pkg/middleware"
)

// ProductGetter and OrderGetter are the slices of the upstream services the
// query surface needs. app/services satisfies both.
type ProductGetter interface {
	Get(ctx context.Context, token, id string) (*models.Product, error)
}

type OrderGetter interface {
	Get(ctx context.Context, token, id string) (*models.Order, error)
}

var reviewType = graphql.NewObject(graphql.ObjectConfig{
	Name: "Review",
	Fields: graphql.Fields{
		"id":        field(graphql.String, func(r models.Review) interface{} { return r.ID }),
		"name":      field(graphql.String, func(r models.Review) interface{} { return r.Name }),
		"rating":    field(graphql.Float, func(r models.Review) interface{} { return r.Rating }),
		"comment":   field(graphql.String, func(r models.Review) interface{} { return r.Comment }),
		"createdAt": field(graphql.String, func(r models.Review) interface{} { return r.CreatedAt }),
	},
})

var productType = graphql.NewObject(graphql.ObjectConfig{
	Name: "Product",
	Fields: graphql.Fields{
		"id":           pfield(graphql.String, func(p *models.Product) interface{} { return p.ID }),
		"name":         pfield(graphql.String, func(p *models.Product) interface{} { return p.Name }),
		"image":        pfield(graphql.String, func(p *models.Product) interface{} { return p.Image }),
		"brand":        pfield(graphql.String, func(p *models.Product) interface{} { return p.Brand }),
		"category":     pfield(graphql.String, func(p *models.Product) interface{} { return p.Category }),
		"description":  pfield(graphql.String, func(p *models.Product) interface{} { return p.Description }),
		"price":        pfield(graphql.Float, func(p *models.Product) interface{} { return p.Price }),
		"countInStock": pfield(graphql.Int, func(p *models.Product) interface{} { return p.CountInStock }),
		"rating":       pfield(graphql.Float, func(p *models.Product) interface{} { return p.Rating }),
		"numReviews":   pfield(graphql.Int, func(p *models.Product) interface{} { return p.NumReviews }),
		"inStock":      pfield(graphql.Boolean, func(p *models.Product) interface{} { return p.InStock() }),
		"reviews": &graphql.Field{
			Type: graphql.NewList(reviewType),
			Resolve: func(p graphql.ResolveParams) (interface{}, error) {
				prod, _ := p.Source.(*models.Product)
				if prod == nil {
					return nil, nil
				}
				return prod.Reviews, nil
			},
		},
	},
})

var orderItemType = graphql.NewObject(graphql.ObjectConfig{
	Name: "OrderItem",
	Fields: graphql.Fields{
		"product": field(graphql.String, func(i models.OrderItem) interface{} { return i.Product }),
		"name":    field(graphql.String, func(i models.OrderItem) interface{} { return i.Name }),
		"image":   field(graphql.String, func(i models.OrderItem) interface{} { return i.Image }),
		"qty":     field(graphql.Int, func(i models.OrderItem) interface{} { return i.Qty }),
		"price":   field(graphql.Float, func(i models.OrderItem) interface{} { return i.Price }),
	},
})

var orderType = graphql.NewObject(graphql.ObjectConfig{
	Name: "Order",
	Fields: graphql.Fields{
		"id":            ofield(graphql.String, func(o *models.Order) interface{} { return o.ID }),
		"paymentMethod": ofield(graphql.String, func(o *models.Order) interface{} { return o.PaymentMethod }),
		"itemsPrice":    ofield(graphql.Float, func(o *models.Order) interface{} { return o.ItemsPrice }),
		"shippingPrice": ofield(graphql.Float, func(o *models.Order) interface{} { return o.ShippingPrice }),
		"taxPrice":      ofield(graphql.Float, func(o *models.Order) interface{} { return o.TaxPrice }),
		"totalPrice":    ofield(graphql.Float, func(o *models.Order) interface{} { return o.TotalPrice }),
		"isPaid":        ofield(graphql.Boolean, func(o *models.Order) interface{} { return o.IsPaid }),
		"paidAt":        ofield(graphql.String, func(o *models.Order) interface{} { return o.PaidAt }),
		"isDelivered":   ofield(graphql.Boolean, func(o *models.Order) interface{} { return o.IsDelivered }),
		"deliveredAt":   ofield(graphql.String, func(o *models.Order) interface{} { return o.DeliveredAt }),
		"items": &graphql.Field{
			Type: graphql.NewList(orderItemType),
			Resolve: func(p graphql.ResolveParams) (interface{}, error) {
				order, _ := p.Source.(*models.Order)
				if order == nil {
					return nil, nil
				}
				return order.OrderItems, nil
			},
		},
	},
})

// NewRootQuery builds the root query object over the given entity services.
func NewRootQuery(products ProductGetter, orders OrderGetter) *graphql.Object {
	return graphql.NewObject(graphql.ObjectConfig{
		Name: "Query",
		Fields: graphql.Fields{
			"product": &graphql.Field{
				Type: productType,
				Args: graphql.FieldConfigArgument{
					"id": &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.String)},
				},
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					id, _ := p.Args["id"].(string)
					return products.Get(p.Context, middleware.BearerToken(p.Context), id)
				},
			},
			"order": &graphql.Field{
				Type: orderType,
				Args: graphql.FieldConfigArgument{
					"id": &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.String)},
				},
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					// Orders are private; the viewer must be signed in.
					if middleware.CurrentUser(p.Context) == nil {
						return nil, fmt.Errorf("sign in required")
					}
					id, _ := p.Args["id"].(string)
					return orders.Get(p.Context, middleware.BearerToken(p.Context), id)
				},
			},
		},
	})
}

// field builds a value-typed resolver column.
func field[T any](t graphql.Output, pick func(T) interface{}) *graphql.Field {
	return &graphql.Field{
		Type: t,
		Resolve: func(p graphql.ResolveParams) (interface{}, error) {
			v, ok := p.Source.(T)
			if !ok {
				return nil, nil
			}
			return pick(v), nil
		},
	}
}

func pfield(t graphql.Output, pick func(*models.Product) interface{}) *graphql.Field {
	return &graphql.Field{
		Type: t,
		Resolve: func(p graphql.ResolveParams) (interface{}, error) {
			v, _ := p.Source.(*models.Product)
			if v == nil {
				return nil, nil
			}
			return pick(v), nil
		},
	}
}

func ofield(t graphql.Output, pick func(*models.Order) interface{}) *graphql.Field {
	return &graphql.Field{
		Type: t,
		Resolve: func(p graphql.ResolveParams) (interface{}, error) {
			v, _ := p.Source.(*models.Order)
			if v == nil {
				return nil, nil
			}
			return pick(v), nil
		},
	}
}
