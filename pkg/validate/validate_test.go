package validate

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type reviewForm struct {
	Rating  int    `json:"rating"  validate:"required,gte=1,lte=5"`
	Comment string `json:"comment" validate:"required,max=10"`
}

type contactForm struct {
	Email   string `json:"email" validate:"required,email"`
	Website string `json:"website" validate:"url"`
	Method  string `json:"method" validate:"in=PayPal|Stripe"`
}

func TestStructPassesValidInput(t *testing.T) {
	errs := Struct(&reviewForm{Rating: 5, Comment: "Great"})
	assert.False(t, HasErrors(errs))
	assert.NoError(t, Error(errs))
}

func TestStructRequired(t *testing.T) {
	errs := Struct(&reviewForm{})
	require.True(t, HasErrors(errs))
	assert.Contains(t, errs["rating"], "required")
	assert.Contains(t, errs["comment"], "required")
}

func TestStructBounds(t *testing.T) {
	errs := Struct(&reviewForm{Rating: 6, Comment: "ok"})
	assert.Contains(t, errs["rating"], "less than or equal to 5")

	errs = Struct(&reviewForm{Rating: 3, Comment: "this is far too long"})
	assert.Contains(t, errs["comment"], "not exceed 10")
}

func TestStructFirstFailingRuleWins(t *testing.T) {
	// required fails before gte gets a chance.
	errs := Struct(&reviewForm{Rating: 0, Comment: "ok"})
	assert.Equal(t, "The rating field is required.", errs["rating"])
}

func TestStructEmailURLAndIn(t *testing.T) {
	errs := Struct(&contactForm{Email: "not-an-email", Website: "ftp://x", Method: "Cash"})
	assert.Contains(t, errs["email"], "valid email")
	assert.Contains(t, errs["website"], "valid URL")
	assert.Contains(t, errs["method"], "invalid")

	errs = Struct(&contactForm{Email: "jo@example.com", Website: "https://example.com", Method: "PayPal"})
	assert.False(t, HasErrors(errs))
}

func TestErrorFlattens(t *testing.T) {
	err := Error(map[string]string{"rating": "The rating field is required."})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "rating")
}

func TestStructIgnoresUntaggedAndNonStructs(t *testing.T) {
	assert.Empty(t, Struct(struct{ Name string }{}))
	assert.Empty(t, Struct(42))
}
