package webhooks

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	pkgerrors "github.com/avelarde/shopfront-backend/pkg/errors"
	"github.com/avelarde/shopfront-backend/pkg/logger"
	"github.com/avelarde/shopfront-backend/pkg/types"
)

type stubHandler struct {
	err      error
	payloads [][]byte
	sigs     []string
}

func (s *stubHandler) HandleStripeWebhook(ctx context.Context, payload []byte, sigHeader string) error {
	s.payloads = append(s.payloads, payload)
	s.sigs = append(s.sigs, sigHeader)
	return s.err
}

func TestStripeWebhookAcknowledges(t *testing.T) {
	svc := &stubHandler{}
	handler := StripeWebhook(svc, logger.New(logger.Options{ServiceName: "test"}))

	req := httptest.NewRequest(http.MethodPost, "/api/webhooks/stripe", strings.NewReader(`{"type":"checkout.session.completed"}`))
	req.Header.Set("Stripe-Signature", "t=1,v1=abc")
	rec := httptest.NewRecorder()

	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	require.Len(t, svc.payloads, 1)
	assert.Equal(t, "t=1,v1=abc", svc.sigs[0])
}

func TestStripeWebhookRejectsMissingSignature(t *testing.T) {
	svc := &stubHandler{}
	handler := StripeWebhook(svc, logger.New(logger.Options{ServiceName: "test"}))

	req := httptest.NewRequest(http.MethodPost, "/api/webhooks/stripe", strings.NewReader(`{}`))
	rec := httptest.NewRecorder()

	handler.ServeHTTP(rec, req)

	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Empty(t, svc.payloads, "handler must not run without a signature")

	var envelope types.ErrorEnvelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &envelope))
	assert.Equal(t, "VERIFICATION_FAILED", envelope.Error.Code)
}

func TestStripeWebhookSurfacesVerificationFailure(t *testing.T) {
	svc := &stubHandler{err: pkgerrors.New(pkgerrors.CodeVerificationFailed, "webhook signature verification failed")}
	handler := StripeWebhook(svc, logger.New(logger.Options{ServiceName: "test"}))

	req := httptest.NewRequest(http.MethodPost, "/api/webhooks/stripe", strings.NewReader(`{}`))
	req.Header.Set("Stripe-Signature", "t=1,v1=bad")
	rec := httptest.NewRecorder()

	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
