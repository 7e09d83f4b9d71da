package controllers

import (
	"context"
	"net/http"

	"github.com/apotekcloud/pos-terminal/api/responses"
	"github.com/apotekcloud/pos-terminal/api/validators"
	"github.com/apotekcloud/pos-terminal/internal/backup"
	pkgerrors "github.com/apotekcloud/pos-terminal/pkg/errors"
	"github.com/apotekcloud/pos-terminal/pkg/logger"
)

// ResetRunner wipes the ledger and restores factory defaults.
type ResetRunner interface {
	Run(ctx context.Context) error
}

// BackupService exports and restores full-terminal snapshots.
type BackupService interface {
	Export(ctx context.Context) (*backup.Snapshot, error)
	Import(ctx context.Context, snapshot backup.Snapshot) (int, error)
}

// AdminReset performs the administrative reset.
func AdminReset(svc ResetRunner, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "reset service unavailable"))
			return
		}
		if err := svc.Run(r.Context()); err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "reset failed"))
			return
		}
		responses.WriteSuccess(w, map[string]string{"status": "reset"})
	}
}

// BackupExport streams the full snapshot.
func BackupExport(svc BackupService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "backup service unavailable"))
			return
		}
		snapshot, err := svc.Export(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, snapshot)
	}
}

type backupImportResponse struct {
	Imported int `json:"imported"`
}

// BackupImport restores a previously exported snapshot.
func BackupImport(svc BackupService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "backup service unavailable"))
			return
		}
		var snapshot backup.Snapshot
		if err := validators.DecodeJSONBody(r, &snapshot); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		imported, err := svc.Import(r.Context(), snapshot)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, backupImportResponse{Imported: imported})
	}
}
