package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/shashiranjanraj/storefront/config"
	"github.com/shashiranjanraj/storefront/pkg/cache"
	"github.com/shashiranjanraj/storefront/pkg/httpclient"
	"github.com/shashiranjanraj/storefront/pkg/metrics"
)

const paypalCacheKey = "storefront:config:paypal_client_id"

// ConfigService exposes upstream runtime configuration, currently only the
// PayPal client id needed to arm the payment button.
type ConfigService struct{}

func NewConfigService() *ConfigService {
	return &ConfigService{}
}

// PayPalClientID returns the PayPal client id. The upstream endpoint serves it
// as a raw string body; the value is cached for PAYPAL_CACHE_TTL since it only
// changes on upstream redeploys.
func (s *ConfigService) PayPalClientID(ctx context.Context) (id string, err error) {
	var cached string
	if cache.Get(paypalCacheKey, &cached) && cached != "" {
		return cached, nil
	}

	defer metrics.ObserveUpstream("config.paypal", &err, time.Now())

	resp, err := httpclient.Get(config.APIBaseURL() + config.PayPalConfigPath()).
		Timeout(config.APITimeout()).
		WithContext(ctx).
		Send()
	if err != nil {
		return "", err
	}
	if !resp.OK() {
		return "", upstreamErr(resp)
	}

	id = strings.Trim(strings.TrimSpace(resp.Text()), `"`)
	if id == "" {
		return "", fmt.Errorf("config: upstream returned empty PayPal client id")
	}

	cache.Set(paypalCacheKey, id, config.PayPalCacheTTL()) //nolint:errcheck
	return id, nil
}
