package models

import (
	"fmt"

	"github.com/shashiranjanraj/storefront/pkg/validate"
)

// Review is a published customer review attached to a product.
type Review struct {
	ID        string  `json:"_id"`
	Name      string  `json:"name"`
	Rating    float64 `json:"rating" validate:"gte=0,lte=5"`
	Comment   string  `json:"comment"`
	CreatedAt string  `json:"createdAt"`
}

// Product is a catalog item with price, stock, and aggregated reviews.
type Product struct {
	ID           string   `json:"_id"  validate:"required"`
	Name         string   `json:"name" validate:"required"`
	Image        string   `json:"image"`
	Brand        string   `json:"brand"`
	Category     string   `json:"category"`
	Description  string   `json:"description"`
	Price        float64  `json:"price"        validate:"gte=0"`
	CountInStock int      `json:"countInStock" validate:"gte=0"`
	Rating       float64  `json:"rating"       validate:"gte=0,lte=5"`
	NumReviews   int      `json:"numReviews"   validate:"gte=0"`
	Reviews      []Review `json:"reviews"`
}

// InStock reports whether at least one unit can be added to a cart.
func (p *Product) InStock() bool { return p.CountInStock > 0 }

// Validate checks the product and its reviews at the decode boundary.
func (p *Product) Validate() error {
	if errs := validate.Struct(p); validate.HasErrors(errs) {
		return fmt.Errorf("product %q: %w", p.ID, validate.Error(errs))
	}
	for i := range p.Reviews {
		if errs := validate.Struct(&p.Reviews[i]); validate.HasErrors(errs) {
			return fmt.Errorf("product %q review %d: %w", p.ID, i, validate.Error(errs))
		}
	}
	return nil
}

// ReviewDraft is the transient review form state: it exists from screen mount
// until a successful submission, then resets to its zero value.
type ReviewDraft struct {
	Rating  int    `json:"rating"  validate:"required,gte=1,lte=5"`
	Comment string `json:"comment" validate:"required,max=2000"`
}

// Validate checks the draft before it is dispatched.
func (d *ReviewDraft) Validate() error {
	if errs := validate.Struct(d); validate.HasErrors(errs) {
		return validate.Error(errs)
	}
	return nil
}

// ProductDraft mirrors a product's six editable fields while an admin edits
// them. Seeded from the loaded entity, discarded on navigation.
type ProductDraft struct {
	Name         string  `json:"name" validate:"required"`
	Price        float64 `json:"price"        validate:"gte=0"`
	Image        string  `json:"image"`
	Brand        string  `json:"brand"`
	Category     string  `json:"category"`
	CountInStock int     `json:"countInStock" validate:"gte=0"`
	Description  string  `json:"description"`
}

// DraftFromProduct seeds an edit draft from a loaded product, field by field.
func DraftFromProduct(p *Product) ProductDraft {
	return ProductDraft{
		Name:         p.Name,
		Price:        p.Price,
		Image:        p.Image,
		Brand:        p.Brand,
		Category:     p.Category,
		CountInStock: p.CountInStock,
		Description:  p.Description,
	}
}

// Validate checks the draft before it is dispatched.
func (d *ProductDraft) Validate() error {
	if errs := validate.Struct(d); validate.HasErrors(errs) {
		return validate.Error(errs)
	}
	return nil
}
