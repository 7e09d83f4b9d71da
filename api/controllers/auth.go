package controllers

import (
	"context"
	"net/http"

	"github.com/apotekcloud/pos-terminal/api/responses"
	"github.com/apotekcloud/pos-terminal/api/validators"
	authsvc "github.com/apotekcloud/pos-terminal/internal/auth"
	pkgerrors "github.com/apotekcloud/pos-terminal/pkg/errors"
	"github.com/apotekcloud/pos-terminal/pkg/logger"
)

// LoginService authenticates an operator against the local user collection.
type LoginService interface {
	Login(ctx context.Context, username, password string) (*authsvc.LoginResult, error)
}

type loginRequest struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

// AuthLogin handles operator sign-in.
func AuthLogin(svc LoginService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "auth service unavailable"))
			return
		}

		var payload loginRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		result, err := svc.Login(r.Context(), payload.Username, payload.Password)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, result)
	}
}
