package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/rankforge/rankforge/internal/credentials"
	"github.com/rankforge/rankforge/internal/generate"
	"github.com/rankforge/rankforge/internal/provider"
	"github.com/rankforge/rankforge/internal/store"
	"github.com/rankforge/rankforge/internal/validation"
	"github.com/rankforge/rankforge/internal/wordpress"
)

// ErrorCode is the machine-readable failure class clients branch on, carried
// alongside the RFC 7807 fields. RATE_LIMIT triggers the provider-switch
// prompt in the dashboard.
type ErrorCode string

const (
	CodeRateLimit     ErrorCode = "RATE_LIMIT"
	CodeNotConfigured ErrorCode = "NOT_CONFIGURED"
	CodeProviderError ErrorCode = "PROVIDER_ERROR"
	CodeParseError    ErrorCode = "PARSE_ERROR"
	CodeValidation    ErrorCode = "VALIDATION"
)

// Problem represents an RFC 7807 Problem Details response.
type Problem struct {
	Type      string    `json:"type"`
	Title     string    `json:"title"`
	Status    int       `json:"status"`
	Detail    string    `json:"detail"`
	Instance  string    `json:"instance,omitempty"`
	ErrorCode ErrorCode `json:"errorCode,omitempty"`
}

// problemTypes maps HTTP status codes to RFC 7807 type URIs and titles.
var problemTypes = map[int]struct {
	typeURI string
	title   string
}{
	http.StatusUnauthorized: {
		typeURI: "https://rankforge.dev/errors/unauthorized",
		title:   "Unauthorized",
	},
	http.StatusBadRequest: {
		typeURI: "https://rankforge.dev/errors/bad-request",
		title:   "Bad Request",
	},
	http.StatusNotFound: {
		typeURI: "https://rankforge.dev/errors/not-found",
		title:   "Not Found",
	},
	http.StatusInternalServerError: {
		typeURI: "https://rankforge.dev/errors/internal-error",
		title:   "Internal Server Error",
	},
	http.StatusUnprocessableEntity: {
		typeURI: "https://rankforge.dev/errors/validation-error",
		title:   "Validation Error",
	},
	http.StatusBadGateway: {
		typeURI: "https://rankforge.dev/errors/provider-error",
		title:   "Provider Error",
	},
	http.StatusConflict: {
		typeURI: "https://rankforge.dev/errors/conflict",
		title:   "Conflict",
	},
	http.StatusForbidden: {
		typeURI: "https://rankforge.dev/errors/forbidden",
		title:   "Forbidden",
	},
	http.StatusTooManyRequests: {
		typeURI: "https://rankforge.dev/errors/rate-limit",
		title:   "Too Many Requests",
	},
	http.StatusPreconditionFailed: {
		typeURI: "https://rankforge.dev/errors/not-configured",
		title:   "Provider Not Configured",
	},
}

func newProblem(r *http.Request, status int, detail string) Problem {
	pt, ok := problemTypes[status]
	if !ok {
		pt = struct {
			typeURI string
			title   string
		}{
			typeURI: "https://rankforge.dev/errors/unknown",
			title:   http.StatusText(status),
		}
	}
	return Problem{
		Type:     pt.typeURI,
		Title:    pt.title,
		Status:   status,
		Detail:   detail,
		Instance: r.URL.Path,
	}
}

func writeProblemJSON(w http.ResponseWriter, status int, p any) {
	w.Header().Set("Content-Type", "application/problem+json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(p); err != nil {
		slog.Error("failed to encode problem response", "error", err)
	}
}

// WriteProblem writes an RFC 7807 Problem Details response.
func WriteProblem(w http.ResponseWriter, r *http.Request, status int, detail string) {
	writeProblemJSON(w, status, newProblem(r, status, detail))
}

// WriteProblemCode writes a Problem Details response with a machine-readable
// error code attached.
func WriteProblemCode(w http.ResponseWriter, r *http.Request, status int, detail string, code ErrorCode) {
	p := newProblem(r, status, detail)
	p.ErrorCode = code
	writeProblemJSON(w, status, p)
}

// ProblemWithErrors extends Problem with validation error details.
type ProblemWithErrors struct {
	Problem
	Errors []validation.ValidationError `json:"errors,omitempty"`
}

// WriteProblemWithErrors writes a 422 Problem Details response with field errors.
func WriteProblemWithErrors(w http.ResponseWriter, r *http.Request, detail string, errs []validation.ValidationError) {
	p := ProblemWithErrors{
		Problem: newProblem(r, http.StatusUnprocessableEntity, detail),
		Errors:  errs,
	}
	p.ErrorCode = CodeValidation
	writeProblemJSON(w, http.StatusUnprocessableEntity, p)
}

// MapStoreError converts domain errors to Problem Details responses.
func MapStoreError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, store.ErrNotFound):
		WriteProblem(w, r, http.StatusNotFound, "Resource not found")
	case errors.Is(err, store.ErrAccessDenied):
		WriteProblem(w, r, http.StatusForbidden, "You do not have access to this project")
	case errors.Is(err, store.ErrDuplicateShare):
		WriteProblem(w, r, http.StatusConflict, "Project is already shared with this email")
	default:
		// Never expose internal error details to client
		WriteProblem(w, r, http.StatusInternalServerError, "Internal Server Error")
	}
}

// MapGenerateError converts generation-pipeline failures to Problem Details
// responses, attaching the error code the dashboard branches on.
func MapGenerateError(w http.ResponseWriter, r *http.Request, err error) {
	var provErr *provider.ProviderError
	var parseErr *generate.ParseError

	switch {
	case errors.Is(err, credentials.ErrNotConfigured):
		WriteProblemCode(w, r, http.StatusPreconditionFailed,
			"Please configure your API key in settings", CodeNotConfigured)
	case errors.As(err, &provErr):
		if provErr.Code == provider.CodeRateLimit {
			WriteProblemCode(w, r, http.StatusTooManyRequests,
				"The AI provider rate-limited this request; try again later or switch providers", CodeRateLimit)
			return
		}
		slog.Error("provider call failed",
			"provider", provErr.Provider,
			"status", provErr.StatusCode)
		WriteProblemCode(w, r, http.StatusBadGateway,
			"The AI provider rejected the request", CodeProviderError)
	case errors.As(err, &parseErr):
		WriteProblemCode(w, r, http.StatusBadGateway,
			"The AI response could not be parsed", CodeParseError)
	default:
		slog.Error("generation failed", "error", err)
		WriteProblem(w, r, http.StatusInternalServerError, "Internal Server Error")
	}
}

// MapPublishError converts WordPress failures to Problem Details responses.
func MapPublishError(w http.ResponseWriter, r *http.Request, err error) {
	var pubErr *wordpress.PublishError
	if errors.As(err, &pubErr) {
		WriteProblem(w, r, http.StatusBadGateway, pubErr.Message)
		return
	}
	slog.Error("publish failed", "error", err)
	WriteProblem(w, r, http.StatusInternalServerError, "Internal Server Error")
}
