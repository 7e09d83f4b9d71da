package checkout

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/apotekcloud/pos-terminal/internal/receipts"
	"github.com/apotekcloud/pos-terminal/internal/store"
	"github.com/apotekcloud/pos-terminal/internal/syncengine"
	"github.com/apotekcloud/pos-terminal/pkg/db/models"
	"github.com/apotekcloud/pos-terminal/pkg/enums"
	pkgerrors "github.com/apotekcloud/pos-terminal/pkg/errors"
	"github.com/apotekcloud/pos-terminal/pkg/logger"
	"github.com/apotekcloud/pos-terminal/pkg/types"
)

var hundred = decimal.NewFromInt(100)

type syncTrigger interface {
	TriggerAsync(ctx context.Context, reason syncengine.Reason) <-chan syncengine.Result
}

type onlineChecker interface {
	Online() bool
}

type numberGenerator interface {
	Next() string
}

type storeWriter interface {
	Put(ctx context.Context, entityType enums.EntityType, input store.PutInput) (*models.Record, error)
}

// ItemInput is one cart line as submitted by the register.
type ItemInput struct {
	ProductID       string
	ProductName     string
	Quantity        int
	UnitPrice       decimal.Decimal
	DiscountPercent decimal.Decimal
}

// Input is a sale ready to be finalized.
type Input struct {
	CashierID       string
	CashierName     string
	PatientID       string
	PatientName     string
	Items           []ItemInput
	DiscountPercent decimal.Decimal
	TaxPercent      decimal.Decimal
	PaymentMethod   enums.PaymentMethod
	AmountPaid      decimal.Decimal
}

// Service owns the transaction write path: validate, price, number, persist,
// then hand off to sync and the receipt printer.
type Service struct {
	writer  storeWriter
	numbers numberGenerator
	engine  syncTrigger
	online  onlineChecker
	printer receipts.Printer
	logg    *logger.Logger
	now     func() time.Time
}

// NewService builds the checkout service.
func NewService(
	writer storeWriter,
	numbers numberGenerator,
	engine syncTrigger,
	online onlineChecker,
	printer receipts.Printer,
	logg *logger.Logger,
) (*Service, error) {
	if writer == nil {
		return nil, fmt.Errorf("store writer required")
	}
	if numbers == nil {
		return nil, fmt.Errorf("number generator required")
	}
	if engine == nil {
		return nil, fmt.Errorf("sync engine required")
	}
	if online == nil {
		return nil, fmt.Errorf("online checker required")
	}
	if printer == nil {
		return nil, fmt.Errorf("receipt printer required")
	}
	return &Service{
		writer:  writer,
		numbers: numbers,
		engine:  engine,
		online:  online,
		printer: printer,
		logg:    logg,
		now:     time.Now,
	}, nil
}

// Complete finalizes a sale. The transaction is committed locally before the
// call returns; cloud sync happens in the background and never blocks or
// fails the sale. The receipt is handed off whether or not sync succeeds.
func (s *Service) Complete(ctx context.Context, input Input) (*types.Transaction, error) {
	if err := validate(input); err != nil {
		return nil, err
	}

	txn := s.price(input)
	if input.PaymentMethod == enums.PaymentMethodCash && txn.AmountPaid.LessThan(txn.Total) {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "amount paid is less than the total").
			WithDetails(map[string]string{
				"total":      txn.Total.String(),
				"amountPaid": txn.AmountPaid.String(),
			})
	}

	txn.ID = uuid.NewString()
	txn.TransactionNumber = s.numbers.Next()
	txn.CreatedAt = s.now().UTC()

	logCtx := ctx
	if s.logg != nil {
		logCtx = s.logg.WithTransactionNumber(ctx, txn.TransactionNumber)
	}

	_, err := s.writer.Put(ctx, enums.EntityTransaction, store.PutInput{
		ID:        txn.ID,
		UniqueKey: txn.TransactionNumber,
		Payload:   txn,
	})
	if err != nil {
		// Includes a transaction-number collision: the sale fails and nothing
		// is persisted.
		return nil, err
	}

	if s.logg != nil {
		s.logg.Info(s.logg.WithFields(logCtx, map[string]any{
			"total":   txn.Total.String(),
			"payment": string(txn.PaymentMethod),
		}), "transaction committed")
	}

	if s.online.Online() {
		s.engine.TriggerAsync(context.WithoutCancel(ctx), syncengine.ReasonPostCheckout)
	}

	if printErr := s.printer.Print(logCtx, receipts.FromTransaction(txn)); printErr != nil && s.logg != nil {
		s.logg.Warn(logCtx, "receipt handoff failed: "+printErr.Error())
	}
	return &txn, nil
}

func validate(input Input) error {
	if strings.TrimSpace(input.CashierID) == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "cashier is required")
	}
	if len(input.Items) == 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "cart is empty")
	}
	if !input.PaymentMethod.IsValid() {
		return pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("unknown payment method %q", input.PaymentMethod))
	}
	if !withinPercent(input.DiscountPercent) {
		return pkgerrors.New(pkgerrors.CodeValidation, "discount must be between 0 and 100")
	}
	if !withinPercent(input.TaxPercent) {
		return pkgerrors.New(pkgerrors.CodeValidation, "tax must be between 0 and 100")
	}
	if input.AmountPaid.IsNegative() {
		return pkgerrors.New(pkgerrors.CodeValidation, "amount paid cannot be negative")
	}
	for i, item := range input.Items {
		if item.Quantity < 1 {
			return pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("item %d: quantity must be at least 1", i+1))
		}
		if item.UnitPrice.IsNegative() {
			return pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("item %d: unit price cannot be negative", i+1))
		}
		if !withinPercent(item.DiscountPercent) {
			return pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("item %d: discount must be between 0 and 100", i+1))
		}
	}
	return nil
}

func withinPercent(value decimal.Decimal) bool {
	return !value.IsNegative() && value.LessThanOrEqual(hundred)
}

// price computes line totals and the transaction summary:
// total = subtotal - discountAmount + tax, change = amountPaid - total (cash).
func (s *Service) price(input Input) types.Transaction {
	items := make([]types.TransactionItem, 0, len(input.Items))
	subtotal := decimal.Zero
	for _, item := range input.Items {
		line := item.UnitPrice.Mul(decimal.NewFromInt(int64(item.Quantity)))
		line = line.Sub(line.Mul(item.DiscountPercent).Div(hundred))
		items = append(items, types.TransactionItem{
			ID:          uuid.NewString(),
			ProductID:   item.ProductID,
			ProductName: item.ProductName,
			Quantity:    item.Quantity,
			Price:       item.UnitPrice,
			Discount:    item.DiscountPercent,
			Total:       line,
		})
		subtotal = subtotal.Add(line)
	}

	discountAmount := subtotal.Mul(input.DiscountPercent).Div(hundred)
	taxable := subtotal.Sub(discountAmount)
	tax := taxable.Mul(input.TaxPercent).Div(hundred)
	total := taxable.Add(tax)

	amountPaid := input.AmountPaid
	change := decimal.Zero
	if input.PaymentMethod == enums.PaymentMethodCash {
		change = amountPaid.Sub(total)
	} else if amountPaid.IsZero() {
		// Non-cash payments settle exactly.
		amountPaid = total
	}

	return types.Transaction{
		CashierID:     input.CashierID,
		CashierName:   input.CashierName,
		PatientID:     input.PatientID,
		PatientName:   input.PatientName,
		Items:         items,
		Subtotal:      subtotal,
		Discount:      discountAmount,
		Tax:           tax,
		Total:         total,
		PaymentMethod: input.PaymentMethod,
		AmountPaid:    amountPaid,
		Change:        change,
	}
}
