package backup

import (
	"context"
	"fmt"
	"time"

	"github.com/apotekcloud/pos-terminal/pkg/db/models"
	"github.com/apotekcloud/pos-terminal/pkg/enums"
	pkgerrors "github.com/apotekcloud/pos-terminal/pkg/errors"
	"github.com/apotekcloud/pos-terminal/pkg/logger"
)

// Snapshot is the portable form of the terminal's data: every collection,
// records verbatim including their sync bookkeeping.
type Snapshot struct {
	TerminalID  string                     `json:"terminalId"`
	ExportedAt  time.Time                  `json:"exportedAt"`
	Collections map[string][]models.Record `json:"collections"`
}

type collectionReader interface {
	GetAll(ctx context.Context, entityType enums.EntityType) ([]models.Record, error)
}

type recordImporter interface {
	Upsert(ctx context.Context, record models.Record) error
}

// Service exports and restores full-terminal snapshots. Restore goes through
// the repository layer directly so a record's sync status survives the round
// trip; a restored synced transaction must not re-enter the outbox.
type Service struct {
	reader     collectionReader
	importer   recordImporter
	terminalID string
	logg       *logger.Logger
	now        func() time.Time
}

// NewService builds the backup service.
func NewService(reader collectionReader, importer recordImporter, terminalID string, logg *logger.Logger) (*Service, error) {
	if reader == nil {
		return nil, fmt.Errorf("collection reader required")
	}
	if importer == nil {
		return nil, fmt.Errorf("record importer required")
	}
	return &Service{
		reader:     reader,
		importer:   importer,
		terminalID: terminalID,
		logg:       logg,
		now:        time.Now,
	}, nil
}

var allCollections = []enums.EntityType{
	enums.EntityTransaction,
	enums.EntityProduct,
	enums.EntityCustomer,
	enums.EntityUser,
	enums.EntitySetting,
}

// Export collects every collection into a snapshot.
func (s *Service) Export(ctx context.Context) (*Snapshot, error) {
	snapshot := &Snapshot{
		TerminalID:  s.terminalID,
		ExportedAt:  s.now().UTC(),
		Collections: make(map[string][]models.Record, len(allCollections)),
	}
	for _, entityType := range allCollections {
		records, err := s.reader.GetAll(ctx, entityType)
		if err != nil {
			return nil, err
		}
		if records == nil {
			records = []models.Record{}
		}
		snapshot.Collections[string(entityType)] = records
	}
	return snapshot, nil
}

// Import restores a snapshot record by record. Unknown collections are
// rejected before anything is written.
func (s *Service) Import(ctx context.Context, snapshot Snapshot) (int, error) {
	for name := range snapshot.Collections {
		if !enums.EntityType(name).IsValid() {
			return 0, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("unknown collection %q", name))
		}
	}

	imported := 0
	for name, records := range snapshot.Collections {
		entityType := enums.EntityType(name)
		for _, record := range records {
			record.EntityType = entityType
			if !record.SyncStatus.IsValid() {
				record.SyncStatus = enums.SyncPending
			}
			if err := s.importer.Upsert(ctx, record); err != nil {
				return imported, pkgerrors.Wrap(pkgerrors.CodeDependency, err,
					fmt.Sprintf("restoring %s record %s", name, record.ID))
			}
			imported++
		}
	}

	if s.logg != nil {
		s.logg.Info(s.logg.WithField(ctx, "records", imported), "snapshot restored")
	}
	return imported, nil
}
