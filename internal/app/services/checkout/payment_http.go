package checkout

import (
	"context"
	"fmt"

	"github.com/squadbid/storefront/internal/httputil"
	"github.com/squadbid/storefront/pkg/logger"
)

// PaymentIntentClient creates payment intents through the merchant backend,
// which proxies the payment provider.
type PaymentIntentClient struct {
	client *httputil.Client
	log    *logger.Logger
}

var _ PaymentIntents = (*PaymentIntentClient)(nil)

// NewPaymentIntentClient constructs a client over the shared HTTP client.
func NewPaymentIntentClient(client *httputil.Client, log *logger.Logger) *PaymentIntentClient {
	if log == nil {
		log = logger.NewDefault("payment-intents")
	}
	return &PaymentIntentClient{client: client, log: log}
}

// CreateIntent requests a payment intent for the minor-unit amount and
// returns the opaque client secret.
func (c *PaymentIntentClient) CreateIntent(ctx context.Context, amountMinor int64) (string, error) {
	resp, err := c.client.Post(ctx, "/create-payment-intent", map[string]int64{"amount": amountMinor})
	if err != nil {
		return "", err
	}

	var payload struct {
		ClientSecret string `json:"clientSecret"`
	}
	if err := httputil.DecodeResponse(resp, &payload); err != nil {
		return "", err
	}
	if payload.ClientSecret == "" {
		return "", fmt.Errorf("payment intent response missing client secret")
	}
	return payload.ClientSecret, nil
}

// SheetConfig is the display configuration handed to the platform payment
// sheet alongside the client secret.
type SheetConfig struct {
	MerchantDisplayName  string
	ApplePay             bool
	GooglePay            bool
	AllowsDelayedMethods bool
}

// DefaultSheetConfig returns the sheet configuration for a merchant name,
// with wallet payments enabled.
func DefaultSheetConfig(merchantDisplayName string) SheetConfig {
	return SheetConfig{
		MerchantDisplayName: merchantDisplayName,
		ApplePay:            true,
		GooglePay:           true,
	}
}

// PresenterFunc adapts a function to the PaymentPresenter interface. The UI
// shell registers its native payment sheet through this.
type PresenterFunc func(ctx context.Context, clientSecret string, cfg SheetConfig) error

func (f PresenterFunc) Present(ctx context.Context, clientSecret string, cfg SheetConfig) error {
	return f(ctx, clientSecret, cfg)
}

// UnconfiguredPresenter rejects every attempt with ErrPaymentInit. It is the
// default until the shell registers a real payment sheet.
type UnconfiguredPresenter struct{}

func (UnconfiguredPresenter) Present(context.Context, string, SheetConfig) error {
	return fmt.Errorf("no payment sheet registered: %w", ErrPaymentInit)
}
