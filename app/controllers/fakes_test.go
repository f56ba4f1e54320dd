package controllers

import (
	"context"
	"io"
	"sync"

	"github.com/shashiranjanraj/storefront/app/models"
)

// fakeOrders is an in-memory OrderAPI double.
type fakeOrders struct {
	mu sync.Mutex

	orders map[string]*models.Order
	getErr error
	payErr error
	delErr error

	gets     int
	pays     []models.PaymentResult
	delivers int

	// blockID, when set, makes Get for that id wait on release.
	blockID string
	release chan struct{}
}

func newFakeOrders(orders ...*models.Order) *fakeOrders {
	f := &fakeOrders{orders: map[string]*models.Order{}}
	for _, o := range orders {
		f.orders[o.ID] = o
	}
	return f
}

func (f *fakeOrders) Get(ctx context.Context, token, id string) (*models.Order, error) {
	f.mu.Lock()
	f.gets++
	blocked := f.blockID == id
	release := f.release
	err := f.getErr
	o := f.orders[id]
	f.mu.Unlock()

	if blocked {
		<-release
	}
	if err != nil {
		return nil, err
	}
	if o == nil {
		return nil, errNotFound
	}
	cp := *o
	cp.RecomputeItemsPrice()
	return &cp, nil
}

func (f *fakeOrders) Pay(ctx context.Context, token, id string, result models.PaymentResult) (*models.Order, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.pays = append(f.pays, result)
	if f.payErr != nil {
		return nil, f.payErr
	}
	o := f.orders[id]
	if o == nil {
		return nil, errNotFound
	}
	o.IsPaid = true
	o.PaidAt = "2024-05-01T00:00:00Z"
	cp := *o
	return &cp, nil
}

func (f *fakeOrders) Deliver(ctx context.Context, token, id string) (*models.Order, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.delivers++
	if f.delErr != nil {
		return nil, f.delErr
	}
	o := f.orders[id]
	if o == nil {
		return nil, errNotFound
	}
	o.IsDelivered = true
	o.DeliveredAt = "2024-05-02T00:00:00Z"
	cp := *o
	return &cp, nil
}

// fakePayments is a PaymentConfigAPI double.
type fakePayments struct {
	mu       sync.Mutex
	clientID string
	err      error
	calls    int
	done     chan struct{} // closed (once) after the first call completes
}

func newFakePayments(clientID string) *fakePayments {
	return &fakePayments{clientID: clientID, done: make(chan struct{})}
}

func (f *fakePayments) PayPalClientID(ctx context.Context) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.calls++
	if f.calls == 1 {
		defer close(f.done)
	}
	return f.clientID, f.err
}

func (f *fakePayments) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

// fakeProducts is an in-memory ProductAPI double.
type fakeProducts struct {
	mu sync.Mutex

	products  map[string]*models.Product
	getErr    error
	updateErr error
	reviewErr error

	gets    int
	updates []models.ProductDraft
	reviews []models.ReviewDraft
}

func newFakeProducts(products ...*models.Product) *fakeProducts {
	f := &fakeProducts{products: map[string]*models.Product{}}
	for _, p := range products {
		f.products[p.ID] = p
	}
	return f
}

func (f *fakeProducts) Get(ctx context.Context, token, id string) (*models.Product, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.gets++
	if f.getErr != nil {
		return nil, f.getErr
	}
	p := f.products[id]
	if p == nil {
		return nil, errNotFound
	}
	cp := *p
	return &cp, nil
}

func (f *fakeProducts) Update(ctx context.Context, token, id string, draft models.ProductDraft) (*models.Product, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.updates = append(f.updates, draft)
	if f.updateErr != nil {
		return nil, f.updateErr
	}
	p := f.products[id]
	if p == nil {
		return nil, errNotFound
	}
	p.Name = draft.Name
	p.Price = draft.Price
	p.Image = draft.Image
	p.Brand = draft.Brand
	p.Category = draft.Category
	p.CountInStock = draft.CountInStock
	p.Description = draft.Description
	cp := *p
	return &cp, nil
}

func (f *fakeProducts) CreateReview(ctx context.Context, token, id string, draft models.ReviewDraft) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.reviews = append(f.reviews, draft)
	return f.reviewErr
}

// fakeUploads is an UploadAPI double.
type fakeUploads struct {
	mu    sync.Mutex
	path  string
	err   error
	calls int

	// block, when non-nil, makes Upload wait until it is closed.
	block chan struct{}
}

func (f *fakeUploads) Upload(ctx context.Context, token, filename string, file io.Reader) (string, error) {
	f.mu.Lock()
	f.calls++
	block := f.block
	path, err := f.path, f.err
	f.mu.Unlock()

	if block != nil {
		<-block
	}
	io.Copy(io.Discard, file) //nolint:errcheck
	return path, err
}

func (f *fakeUploads) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

var errNotFound = &notFoundError{}

type notFoundError struct{}

func (*notFoundError) Error() string { return "Order not found" }

func testOrder(id string) *models.Order {
	return &models.Order{
		ID: id,
		User: models.OrderUser{
			Name:  "Jo Buyer",
			Email: "jo@example.com",
		},
		ShippingAddress: models.ShippingAddress{
			Address:    "1 Harbour Way",
			City:       "Mumbai",
			PostalCode: "400001",
			Country:    "IN",
		},
		PaymentMethod: "PayPal",
		OrderItems: []models.OrderItem{
			{Product: "p1", Name: "Silk Saree", Qty: 2, Price: 59.99},
			{Product: "p2", Name: "Cotton Kurta", Qty: 1, Price: 24.5},
		},
		ShippingPrice: 10,
		TaxPrice:      14.45,
		TotalPrice:    168.93,
	}
}

func testProduct(id string, stock int) *models.Product {
	return &models.Product{
		ID:           id,
		Name:         "Silk Saree",
		Image:        "/images/saree.jpg",
		Brand:        "Kashvi",
		Category:     "Sarees",
		Description:  "Handwoven silk saree",
		Price:        59.99,
		CountInStock: stock,
		Rating:       4.5,
		NumReviews:   2,
	}
}

func buyer() *Viewer {
	return &Viewer{UserID: "u1", Name: "Jo Buyer", Token: "tok-buyer"}
}

func admin() *Viewer {
	return &Viewer{UserID: "u2", Name: "Avi Admin", IsAdmin: true, Token: "tok-admin"}
}
