package settings

import (
	"context"

	"github.com/avelarde/shopfront-backend/pkg/config"
	"github.com/avelarde/shopfront-backend/pkg/db/models"
	"github.com/avelarde/shopfront-backend/pkg/enums"
	pkgerrors "github.com/avelarde/shopfront-backend/pkg/errors"
	"github.com/avelarde/shopfront-backend/pkg/gateway/paypalgw"
	"github.com/avelarde/shopfront-backend/pkg/logger"
	"github.com/avelarde/shopfront-backend/pkg/secretbox"
)

// Service exposes storefront settings plus the resolved provider credentials
// other services consume.
type Service interface {
	Public(ctx context.Context) (*PublicView, error)
	Admin(ctx context.Context) (*AdminView, error)
	Update(ctx context.Context, input UpdateInput) (*AdminView, error)
	// Resolve merges the settings row with environment fallbacks. A stored
	// credential (even a blank one) always wins over the environment.
	Resolve(ctx context.Context) (*Resolved, error)
	// TestPayPal validates the effective PayPal credentials against the live
	// API by fetching an access token.
	TestPayPal(ctx context.Context) error
}

type service struct {
	repo   Repository
	box    *secretbox.Box
	stripe config.StripeConfig
	paypal config.PayPalConfig
	logg   *logger.Logger
}

// NewService wires the settings service.
func NewService(repo Repository, box *secretbox.Box, stripe config.StripeConfig, paypal config.PayPalConfig, logg *logger.Logger) Service {
	return &service{
		repo:   repo,
		box:    box,
		stripe: stripe,
		paypal: paypal,
		logg:   logg,
	}
}

func (s *service) Public(ctx context.Context) (*PublicView, error) {
	row, err := s.repo.Get(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "loading settings")
	}
	return &PublicView{
		StripeEnabled:      row.EnableStripe.Enabled(),
		PayPalEnabled:      row.EnablePayPal.Enabled(),
		DefaultCurrency:    row.DefaultCurrency,
		DefaultShippingFee: row.DefaultShippingFee,
	}, nil
}

func (s *service) Admin(ctx context.Context) (*AdminView, error) {
	row, err := s.repo.Get(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "loading settings")
	}
	return adminView(row), nil
}

func (s *service) Update(ctx context.Context, input UpdateInput) (*AdminView, error) {
	row, err := s.repo.Get(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "loading settings")
	}

	if input.StripeEnabled != nil {
		row.EnableStripe = enums.ToggleFromBool(*input.StripeEnabled)
	}
	if input.PayPalEnabled != nil {
		row.EnablePayPal = enums.ToggleFromBool(*input.PayPalEnabled)
	}
	if input.DefaultCurrency != nil {
		currency, err := enums.ParseCurrency(*input.DefaultCurrency)
		if err != nil {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "unsupported currency").
				WithDetails(map[string]string{"currency": *input.DefaultCurrency})
		}
		row.DefaultCurrency = currency
	}
	if input.DefaultShippingFee != nil {
		if input.DefaultShippingFee.IsNegative() {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "shipping fee must not be negative")
		}
		row.DefaultShippingFee = *input.DefaultShippingFee
	}
	if input.PayPalEnv != nil {
		row.PayPalEnv = *input.PayPalEnv
	}

	if err := s.storeCredential(input.StripeSecretKey, &row.StripeSecretKeyEnc); err != nil {
		return nil, err
	}
	if err := s.storeCredential(input.StripeWebhookSecret, &row.StripeWebhookSecretEnc); err != nil {
		return nil, err
	}
	if err := s.storeCredential(input.PayPalClientID, &row.PayPalClientIDEnc); err != nil {
		return nil, err
	}
	if err := s.storeCredential(input.PayPalClientSecret, &row.PayPalClientSecretEnc); err != nil {
		return nil, err
	}

	if err := s.repo.Save(ctx, row); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "saving settings")
	}

	s.logg.Info(ctx, "shop settings updated")
	return adminView(row), nil
}

func (s *service) Resolve(ctx context.Context) (*Resolved, error) {
	row, err := s.repo.Get(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "loading settings")
	}

	resolved := &Resolved{
		StripeEnabled:      row.EnableStripe.Enabled(),
		PayPalEnabled:      row.EnablePayPal.Enabled(),
		DefaultCurrency:    row.DefaultCurrency,
		DefaultShippingFee: row.DefaultShippingFee,
		PayPalEnv:          row.PayPalEnv,
	}

	if resolved.StripeSecretKey, err = s.loadCredential(row.StripeSecretKeyEnc, s.stripe.SecretKey); err != nil {
		return nil, err
	}
	if resolved.StripeWebhookSecret, err = s.loadCredential(row.StripeWebhookSecretEnc, s.stripe.WebhookSecret); err != nil {
		return nil, err
	}
	if resolved.PayPalClientID, err = s.loadCredential(row.PayPalClientIDEnc, s.paypal.ClientID); err != nil {
		return nil, err
	}
	if resolved.PayPalClientSecret, err = s.loadCredential(row.PayPalClientSecretEnc, s.paypal.ClientSecret); err != nil {
		return nil, err
	}
	if row.PayPalEnv == "" {
		resolved.PayPalEnv = s.paypal.Environment()
	}

	return resolved, nil
}

func (s *service) TestPayPal(ctx context.Context) error {
	resolved, err := s.Resolve(ctx)
	if err != nil {
		return err
	}
	if !resolved.PayPalConfigured() {
		return pkgerrors.New(pkgerrors.CodeProviderNotConfigured, "paypal credentials are not configured")
	}

	client, err := paypalgw.New(resolved.PayPalClientID, resolved.PayPalClientSecret, resolved.PayPalEnv)
	if err != nil {
		return err
	}
	if err := client.Verify(ctx); err != nil {
		return err
	}

	s.logg.Info(s.logg.WithProvider(ctx, "paypal"), "paypal credential check passed")
	return nil
}

// storeCredential encrypts and stores a provided credential. Nil input leaves
// the column untouched.
func (s *service) storeCredential(input *string, column **string) error {
	if input == nil {
		return nil
	}
	enc, err := s.box.EncryptPtr(input)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "encrypting credential")
	}
	*column = enc
	return nil
}

// loadCredential decrypts a stored credential, falling back to the
// environment only when the column was never set.
func (s *service) loadCredential(column *string, envValue string) (string, error) {
	if column == nil {
		return envValue, nil
	}
	plain, err := s.box.Decrypt(*column)
	if err != nil {
		return "", pkgerrors.Wrap(pkgerrors.CodeInternal, err, "decrypting credential")
	}
	return plain, nil
}

func adminView(row *models.ShopSettings) *AdminView {
	return &AdminView{
		StripeEnabled:          row.EnableStripe.Enabled(),
		PayPalEnabled:          row.EnablePayPal.Enabled(),
		DefaultCurrency:        row.DefaultCurrency,
		DefaultShippingFee:     row.DefaultShippingFee,
		PayPalEnv:              row.PayPalEnv,
		StripeSecretKeySet:     credentialSet(row.StripeSecretKeyEnc),
		StripeWebhookSecretSet: credentialSet(row.StripeWebhookSecretEnc),
		PayPalClientIDSet:      credentialSet(row.PayPalClientIDEnc),
		PayPalClientSecretSet:  credentialSet(row.PayPalClientSecretEnc),
	}
}

func credentialSet(column *string) bool {
	return column != nil && *column != ""
}
