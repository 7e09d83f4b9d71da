package controllers

import (
	"context"
	"net/http"

	"github.com/apotekcloud/pos-terminal/api/responses"
	"github.com/apotekcloud/pos-terminal/internal/outbox"
	"github.com/apotekcloud/pos-terminal/internal/syncengine"
	"github.com/apotekcloud/pos-terminal/pkg/enums"
	pkgerrors "github.com/apotekcloud/pos-terminal/pkg/errors"
	"github.com/apotekcloud/pos-terminal/pkg/logger"
)

// SyncRunner drains the outbox on demand.
type SyncRunner interface {
	Drain(ctx context.Context, reason syncengine.Reason) (syncengine.Result, error)
}

// BacklogCounter reports the sync backlog per collection.
type BacklogCounter interface {
	CountsFor(ctx context.Context, entityType enums.EntityType) (outbox.Counts, error)
}

// OnlineChecker reports the last observed reachability state.
type OnlineChecker interface {
	Online() bool
}

// SyncNow runs a manual sync pass. While offline it fails fast with an
// OFFLINE error and touches nothing.
func SyncNow(engine SyncRunner, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if engine == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "sync engine unavailable"))
			return
		}
		result, err := engine.Drain(r.Context(), syncengine.ReasonManual)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, result)
	}
}

type syncStatusResponse struct {
	Online bool          `json:"online"`
	Counts outbox.Counts `json:"transactions"`
}

// SyncStatus reports the online flag and the transaction backlog, mirroring
// the register's online/offline indicator.
func SyncStatus(monitor OnlineChecker, tracker BacklogCounter, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if monitor == nil || tracker == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "sync status unavailable"))
			return
		}
		counts, err := tracker.CountsFor(r.Context(), enums.EntityTransaction)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, syncStatusResponse{
			Online: monitor.Online(),
			Counts: counts,
		})
	}
}
