package controllers

import (
	"net/http"
	"strings"

	"github.com/krislybeauty/storefront/api/responses"
	"github.com/krislybeauty/storefront/api/validators"
	"github.com/krislybeauty/storefront/internal/checkout"
	pkgerrors "github.com/krislybeauty/storefront/pkg/errors"
	"github.com/krislybeauty/storefront/pkg/logger"
	"github.com/krislybeauty/storefront/pkg/types"
)

// Checkout opens a hosted payment session for the posted cart lines.
// Failures use the flat `{"error", "code"}` body the storefront client reads.
func Checkout(svc checkout.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteFlatError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeConfiguration, "payment provider is not configured"))
			return
		}

		var req checkout.Request
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteFlatError(r.Context(), logg, w, err)
			return
		}
		req.Origin = strings.TrimSpace(r.Header.Get("Origin"))

		ctx := r.Context()
		if logg != nil {
			ctx = logg.WithFields(ctx, map[string]any{
				"line_count": len(req.Items),
				"origin":     req.Origin,
			})
		}

		session, err := svc.CreateSession(ctx, req)
		if err != nil {
			responses.WriteFlatError(ctx, logg, w, err)
			return
		}

		if logg != nil {
			logg.Info(logg.WithField(ctx, "session_id", session.ID), "checkout.session_created")
		}
		responses.WriteJSON(w, http.StatusOK, types.CheckoutSessionResponse{CheckoutURL: session.URL})
	}
}
