package router

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ok(body string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(body))
	}
}

func TestGroupPrefixAndMethods(t *testing.T) {
	r := New()
	api := r.Group("/api/screens")
	api.Get("/products/{id}", "product", ok("get"))
	api.Put("/products/{id}/qty", "qty", ok("put"))
	api.Post("/products/{id}/cart", "cart", ok("post"))

	srv := httptest.NewServer(r.Handler())
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/api/screens/products/p1")
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	resp.Body.Close()

	req, _ := http.NewRequest(http.MethodPut, srv.URL+"/api/screens/products/p1/qty", nil)
	resp, err = http.DefaultClient.Do(req)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	resp.Body.Close()

	// Wrong method is rejected by the mux.
	resp, err = http.Get(srv.URL + "/api/screens/products/p1/cart")
	require.NoError(t, err)
	assert.Equal(t, http.StatusMethodNotAllowed, resp.StatusCode)
	resp.Body.Close()
}

func TestNamedRoutesAndURL(t *testing.T) {
	r := New()
	r.Get("/api/screens/orders/{id}", "order", ok(""))
	r.Post("/api/screens/orders/{id}/payment", "order.payment", ok(""))

	infos := r.Routes()
	require.Len(t, infos, 2)

	path, found := r.Path("order")
	require.True(t, found)
	assert.Equal(t, "/api/screens/orders/{id}", path)

	url, err := r.URL("order.payment", map[string]string{"id": "o1"})
	require.NoError(t, err)
	assert.Equal(t, "/api/screens/orders/o1/payment", url)

	_, err = r.URL("order", nil)
	assert.Error(t, err) // missing {id}

	_, err = r.URL("ghost", nil)
	assert.Error(t, err)
}

func TestGroupMiddlewareApplies(t *testing.T) {
	r := New()

	guard := func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			if req.Header.Get("Authorization") == "" {
				w.WriteHeader(http.StatusUnauthorized)
				return
			}
			next.ServeHTTP(w, req)
		})
	}

	admin := r.Group("/admin", guard)
	admin.Get("/products/{id}/edit", "edit", ok("edit"))
	r.Get("/open", "open", ok("open"))

	srv := httptest.NewServer(r.Handler())
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/admin/products/p1/edit")
	require.NoError(t, err)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	resp.Body.Close()

	resp, err = http.Get(srv.URL + "/open")
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	resp.Body.Close()
}
