package controllers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/avelarde/shopfront-backend/api/responses"
	"github.com/avelarde/shopfront-backend/api/validators"
	"github.com/avelarde/shopfront-backend/internal/checkout"
	"github.com/avelarde/shopfront-backend/pkg/logger"
)

// CreateOrder accepts a guest checkout and returns the order with its query
// token.
func CreateOrder(svc checkout.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		var input checkout.CreateOrderInput
		if err := validators.DecodeJSONBody(r, &input); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		view, err := svc.Create(ctx, input)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		responses.WriteSuccessStatus(w, http.StatusCreated, view)
	}
}

// QueryOrder returns an order when both the number and the token match.
func QueryOrder(svc checkout.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		orderNo := chi.URLParam(r, "orderNo")
		token := r.URL.Query().Get("token")

		view, err := svc.Query(ctx, orderNo, token)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		responses.WriteSuccess(w, view)
	}
}
