package controllers

import (
	"context"
	"net/http"

	"github.com/apotekcloud/pos-terminal/api/responses"
	"github.com/apotekcloud/pos-terminal/pkg/config"
	pkgerrors "github.com/apotekcloud/pos-terminal/pkg/errors"
	"github.com/apotekcloud/pos-terminal/pkg/logger"
)

// DBPinger checks the embedded database.
type DBPinger interface {
	Ping(ctx context.Context) error
}

// Healthz reports daemon liveness and local store health. The terminal is
// healthy even while offline; connectivity is reported by /v1/sync/status.
func Healthz(cfg *config.Config, db DBPinger, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if db != nil {
			if err := db.Ping(r.Context()); err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "local store unavailable"))
				return
			}
		}
		responses.WriteSuccess(w, map[string]string{
			"status":   "ok",
			"terminal": cfg.App.TerminalID,
		})
	}
}
