package webhooks

import (
	"context"
	"io"
	"net/http"

	"github.com/avelarde/shopfront-backend/api/responses"
	pkgerrors "github.com/avelarde/shopfront-backend/pkg/errors"
	"github.com/avelarde/shopfront-backend/pkg/logger"
)

type stripeWebhookHandler interface {
	HandleStripeWebhook(ctx context.Context, payload []byte, sigHeader string) error
}

// StripeWebhook receives checkout session events. Signature failures are the
// only rejections; processable problems are acknowledged so Stripe stops
// retrying.
func StripeWebhook(svc stripeWebhookHandler, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		if svc == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "webhook service unavailable"))
			return
		}

		payload, err := io.ReadAll(r.Body)
		if err != nil {
			responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "read request body"))
			return
		}

		sigHeader := r.Header.Get("Stripe-Signature")
		if sigHeader == "" {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeVerificationFailed, "stripe signature missing"))
			return
		}

		if err := svc.HandleStripeWebhook(ctx, payload, sigHeader); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		responses.WriteSuccess(w, nil)
	}
}
