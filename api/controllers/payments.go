package controllers

import (
	"net/http"

	"github.com/avelarde/shopfront-backend/api/responses"
	"github.com/avelarde/shopfront-backend/api/validators"
	"github.com/avelarde/shopfront-backend/internal/settlement"
	"github.com/avelarde/shopfront-backend/pkg/enums"
	"github.com/avelarde/shopfront-backend/pkg/logger"
)

// PaymentInitiate opens a hosted checkout session for the given provider.
func PaymentInitiate(svc settlement.Service, provider enums.PaymentProvider, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		var input settlement.InitiateInput
		if err := validators.DecodeJSONBody(r, &input); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		input.Provider = provider

		result, err := svc.Initiate(ctx, input)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		responses.WriteSuccessStatus(w, http.StatusCreated, result)
	}
}

// PaymentConfirm settles the buyer's return from the provider.
func PaymentConfirm(svc settlement.Service, provider enums.PaymentProvider, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		var input settlement.ConfirmInput
		if err := validators.DecodeJSONBody(r, &input); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		input.Provider = provider

		result, err := svc.Confirm(ctx, input)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		responses.WriteSuccess(w, result)
	}
}
