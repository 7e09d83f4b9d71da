package types

import (
	"time"

	"github.com/apotekcloud/pos-terminal/pkg/enums"
	"github.com/shopspring/decimal"
)

// TransactionItem is one settled cart line. The discount percentage has
// already been folded into Total when the transaction is finalized.
type TransactionItem struct {
	ID          string          `json:"id"`
	ProductID   string          `json:"productId"`
	ProductName string          `json:"productName"`
	Quantity    int             `json:"quantity"`
	Price       decimal.Decimal `json:"price"`
	Discount    decimal.Decimal `json:"discount"`
	Total       decimal.Decimal `json:"total"`
}

// Transaction is the finalized sale as persisted in the local store. It is
// immutable once written: sync only flips the record's sync status, never
// these fields.
type Transaction struct {
	ID                string              `json:"id"`
	TransactionNumber string              `json:"transactionNumber"`
	CashierID         string              `json:"cashierId"`
	CashierName       string              `json:"cashierName,omitempty"`
	PatientID         string              `json:"patientId,omitempty"`
	PatientName       string              `json:"patientName,omitempty"`
	Items             []TransactionItem   `json:"items"`
	Subtotal          decimal.Decimal     `json:"subtotal"`
	Discount          decimal.Decimal     `json:"discount"`
	Tax               decimal.Decimal     `json:"tax"`
	Total             decimal.Decimal     `json:"total"`
	PaymentMethod     enums.PaymentMethod `json:"paymentMethod"`
	AmountPaid        decimal.Decimal     `json:"amountPaid"`
	Change            decimal.Decimal     `json:"change"`
	CreatedAt         time.Time           `json:"createdAt"`
}
