package transactions

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"

	"github.com/apotekcloud/pos-terminal/pkg/db/models"
	"github.com/apotekcloud/pos-terminal/pkg/enums"
	pkgerrors "github.com/apotekcloud/pos-terminal/pkg/errors"
	"github.com/apotekcloud/pos-terminal/pkg/types"
)

type recordReader interface {
	Get(ctx context.Context, entityType enums.EntityType, id string) (*models.Record, error)
	GetAll(ctx context.Context, entityType enums.EntityType) ([]models.Record, error)
}

// View is a stored transaction together with its sync bookkeeping.
type View struct {
	types.Transaction
	SyncStatus enums.SyncStatus `json:"syncStatus"`
}

// Service reads finalized transactions from the local store.
type Service struct {
	reader recordReader
}

// NewService builds the transactions read service.
func NewService(reader recordReader) (*Service, error) {
	if reader == nil {
		return nil, fmt.Errorf("record reader required")
	}
	return &Service{reader: reader}, nil
}

// Get loads one transaction by id.
func (s *Service) Get(ctx context.Context, id string) (*View, error) {
	record, err := s.reader.Get(ctx, enums.EntityTransaction, id)
	if err != nil {
		return nil, err
	}
	view, err := decode(*record)
	if err != nil {
		return nil, err
	}
	return &view, nil
}

// List returns every local transaction, newest first.
func (s *Service) List(ctx context.Context) ([]View, error) {
	records, err := s.reader.GetAll(ctx, enums.EntityTransaction)
	if err != nil {
		return nil, err
	}
	views := make([]View, 0, len(records))
	for _, record := range records {
		view, err := decode(record)
		if err != nil {
			return nil, err
		}
		views = append(views, view)
	}
	sort.Slice(views, func(i, j int) bool {
		return views[i].CreatedAt.After(views[j].CreatedAt)
	})
	return views, nil
}

func decode(record models.Record) (View, error) {
	var txn types.Transaction
	if err := json.Unmarshal(record.Payload, &txn); err != nil {
		return View{}, pkgerrors.Wrap(pkgerrors.CodeInternal, err,
			fmt.Sprintf("decoding transaction record %s", record.ID))
	}
	return View{Transaction: txn, SyncStatus: record.SyncStatus}, nil
}
