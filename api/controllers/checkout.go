package controllers

import (
	"context"
	"net/http"

	"github.com/shopspring/decimal"

	"github.com/apotekcloud/pos-terminal/api/middleware"
	"github.com/apotekcloud/pos-terminal/api/responses"
	"github.com/apotekcloud/pos-terminal/api/validators"
	checkoutsvc "github.com/apotekcloud/pos-terminal/internal/checkout"
	"github.com/apotekcloud/pos-terminal/pkg/enums"
	pkgerrors "github.com/apotekcloud/pos-terminal/pkg/errors"
	"github.com/apotekcloud/pos-terminal/pkg/logger"
	"github.com/apotekcloud/pos-terminal/pkg/types"
)

// CheckoutService finalizes a sale.
type CheckoutService interface {
	Complete(ctx context.Context, input checkoutsvc.Input) (*types.Transaction, error)
}

type checkoutItemRequest struct {
	ProductID       string          `json:"productId" validate:"required"`
	ProductName     string          `json:"productName" validate:"required"`
	Quantity        int             `json:"quantity" validate:"required,min=1"`
	UnitPrice       decimal.Decimal `json:"unitPrice"`
	DiscountPercent decimal.Decimal `json:"discountPercent"`
}

type checkoutRequest struct {
	Items           []checkoutItemRequest `json:"items" validate:"required,min=1,dive"`
	DiscountPercent decimal.Decimal       `json:"discountPercent"`
	TaxPercent      decimal.Decimal       `json:"taxPercent"`
	PaymentMethod   string                `json:"paymentMethod" validate:"required"`
	AmountPaid      decimal.Decimal       `json:"amountPaid"`
	PatientID       string                `json:"patientId,omitempty"`
	PatientName     string                `json:"patientName,omitempty"`
}

// Checkout finalizes the register's cart as a local transaction.
func Checkout(svc CheckoutService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "checkout service unavailable"))
			return
		}

		var payload checkoutRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		method, err := enums.ParsePaymentMethod(payload.PaymentMethod)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid payment method"))
			return
		}

		items := make([]checkoutsvc.ItemInput, 0, len(payload.Items))
		for _, item := range payload.Items {
			items = append(items, checkoutsvc.ItemInput{
				ProductID:       item.ProductID,
				ProductName:     item.ProductName,
				Quantity:        item.Quantity,
				UnitPrice:       item.UnitPrice,
				DiscountPercent: item.DiscountPercent,
			})
		}

		txn, err := svc.Complete(r.Context(), checkoutsvc.Input{
			CashierID:       middleware.UserIDFromContext(r.Context()),
			CashierName:     middleware.UserNameFromContext(r.Context()),
			PatientID:       payload.PatientID,
			PatientName:     payload.PatientName,
			Items:           items,
			DiscountPercent: payload.DiscountPercent,
			TaxPercent:      payload.TaxPercent,
			PaymentMethod:   method,
			AmountPaid:      payload.AmountPaid,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, txn)
	}
}
