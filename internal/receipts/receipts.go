package receipts

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/apotekcloud/pos-terminal/pkg/enums"
	"github.com/apotekcloud/pos-terminal/pkg/logger"
	"github.com/apotekcloud/pos-terminal/pkg/types"
)

// Line is one printed receipt row.
type Line struct {
	Name      string
	Quantity  int
	UnitPrice decimal.Decimal
	Total     decimal.Decimal
}

// Receipt is the complete data a printer needs. Formatting and the actual
// print mechanics live outside this repo.
type Receipt struct {
	TransactionNumber string
	CashierName       string
	CustomerName      string
	Items             []Line
	Subtotal          decimal.Decimal
	Discount          decimal.Decimal
	Tax               decimal.Decimal
	Total             decimal.Decimal
	PaymentMethod     enums.PaymentMethod
	PaymentLabel      string
	AmountPaid        decimal.Decimal
	Change            decimal.Decimal
	CreatedAt         time.Time
}

// Printer receives the finalized receipt. Implementations must not block the
// sale: a failed print never fails the transaction.
type Printer interface {
	Print(ctx context.Context, receipt Receipt) error
}

// FromTransaction builds the receipt data from a finalized sale.
func FromTransaction(txn types.Transaction) Receipt {
	lines := make([]Line, 0, len(txn.Items))
	for _, item := range txn.Items {
		lines = append(lines, Line{
			Name:      item.ProductName,
			Quantity:  item.Quantity,
			UnitPrice: item.Price,
			Total:     item.Total,
		})
	}
	return Receipt{
		TransactionNumber: txn.TransactionNumber,
		CashierName:       txn.CashierName,
		CustomerName:      txn.PatientName,
		Items:             lines,
		Subtotal:          txn.Subtotal,
		Discount:          txn.Discount,
		Tax:               txn.Tax,
		Total:             txn.Total,
		PaymentMethod:     txn.PaymentMethod,
		PaymentLabel:      txn.PaymentMethod.Label(),
		AmountPaid:        txn.AmountPaid,
		Change:            txn.Change,
		CreatedAt:         txn.CreatedAt,
	}
}

// LogPrinter is the development printer: it logs the receipt instead of
// driving hardware.
type LogPrinter struct {
	logg *logger.Logger
}

// NewLogPrinter builds the logging printer.
func NewLogPrinter(logg *logger.Logger) *LogPrinter {
	return &LogPrinter{logg: logg}
}

// Print implements Printer.
func (p *LogPrinter) Print(ctx context.Context, receipt Receipt) error {
	if p.logg == nil {
		return nil
	}
	p.logg.Info(p.logg.WithFields(ctx, map[string]any{
		"transaction_number": receipt.TransactionNumber,
		"total":              receipt.Total.String(),
		"payment":            receipt.PaymentLabel,
		"items":              len(receipt.Items),
	}), "receipt ready")
	return nil
}
