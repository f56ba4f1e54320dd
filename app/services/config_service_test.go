package services

import (
	"context"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shashiranjanraj/storefront/pkg/cache"
	"github.com/shashiranjanraj/storefront/pkg/httpclient"
	"github.com/shashiranjanraj/storefront/pkg/testkit"
)

func TestPayPalClientIDFetchedOnceThenCached(t *testing.T) {
	cache.UseMemory()

	mt := testkit.NewMockTransport(
		testkit.Stub{Method: "GET", Path: "/api/config/paypal", Body: "AeK-sandbox-123"},
	)
	httpclient.DefaultClient.Transport = mt
	defer httpclient.ResetTransport()

	svc := NewConfigService()

	id, err := svc.PayPalClientID(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "AeK-sandbox-123", id)

	// Second lookup is served from the TTL cache.
	id, err = svc.PayPalClientID(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "AeK-sandbox-123", id)
	assert.Len(t, mt.Calls(), 1)
}

func TestPayPalClientIDStripsJSONQuoting(t *testing.T) {
	cache.UseMemory()

	mt := testkit.NewMockTransport(
		testkit.Stub{Method: "GET", Path: "/api/config/paypal", Body: `"AeK-sandbox-123"`},
	)
	httpclient.DefaultClient.Transport = mt
	defer httpclient.ResetTransport()

	id, err := NewConfigService().PayPalClientID(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "AeK-sandbox-123", id)
}

func TestPayPalClientIDErrorsAreNotCached(t *testing.T) {
	cache.UseMemory()

	mt := testkit.NewMockTransport(
		testkit.Stub{
			Method: "GET", Path: "/api/config/paypal",
			Status: http.StatusBadGateway,
			Body:   map[string]string{"message": "config unavailable"},
		},
	)
	httpclient.DefaultClient.Transport = mt
	defer httpclient.ResetTransport()

	svc := NewConfigService()
	_, err := svc.PayPalClientID(context.Background())
	require.Error(t, err)
	assert.Equal(t, "config unavailable", err.Error())

	// The failure did not poison the cache: the next call goes upstream again.
	_, err = svc.PayPalClientID(context.Background())
	require.Error(t, err)
	assert.Len(t, mt.Calls(), 2)
}
