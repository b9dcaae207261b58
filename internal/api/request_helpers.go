package api

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/phrazzld/tasks-api/internal/api/shared"
	"github.com/phrazzld/tasks-api/internal/domain"
	"github.com/phrazzld/tasks-api/internal/platform/logger"
)

// getPathUUID extracts a UUID from the URL path parameters.
// A missing or malformed parameter yields a ValidationError whose message
// is invalidMessage.
func getPathUUID(r *http.Request, paramName, invalidMessage string) (uuid.UUID, error) {
	raw := chi.URLParam(r, paramName)
	id, err := uuid.Parse(raw)
	if raw == "" || err != nil {
		return uuid.Nil, &domain.ValidationError{Message: invalidMessage, Err: domain.ErrInvalidID}
	}
	return id, nil
}

// requireIdentity returns the authenticated caller or writes a 401.
func requireIdentity(w http.ResponseWriter, r *http.Request, log *slog.Logger) (domain.Identity, bool) {
	identity, ok := shared.IdentityFromContext(r.Context())
	if !ok {
		log.Warn("identity not found in request context")
		HandleAPIError(w, r, domain.ErrUnauthorized, "")
		return domain.Identity{}, false
	}
	return identity, true
}

// handleIdentityAndPathUUID is a composite helper that extracts both the
// caller from context and a UUID from the path parameters. It writes an error
// response if either extraction fails.
func handleIdentityAndPathUUID(
	w http.ResponseWriter,
	r *http.Request,
	paramName string,
	invalidMessage string,
	log *slog.Logger,
) (domain.Identity, uuid.UUID, bool) {
	if log == nil {
		log = logger.FromContextOrDefault(r.Context(), slog.Default())
	}

	identity, ok := requireIdentity(w, r, log)
	if !ok {
		return domain.Identity{}, uuid.Nil, false
	}

	id, err := getPathUUID(r, paramName, invalidMessage)
	if err != nil {
		log.Debug("invalid path parameter",
			slog.String("param_name", paramName),
			slog.String("value", chi.URLParam(r, paramName)))
		HandleAPIError(w, r, err, "")
		return domain.Identity{}, uuid.Nil, false
	}

	return identity, id, true
}

// decodeAndValidate reads the JSON body into req and runs struct validation.
// It writes a 400 and returns false on failure.
func decodeAndValidate(w http.ResponseWriter, r *http.Request, req interface{}) bool {
	if err := shared.DecodeJSON(r, req); err != nil {
		HandleAPIError(w, r, err, "")
		return false
	}
	if err := shared.ValidateRequest(req); err != nil {
		HandleAPIError(w, r, err, "")
		return false
	}
	return true
}
