// Package http serves the JSON API over the ledger service.
//
// This file holds the response builder. Every handler goes through it so
// that status, JSON body and HX-Trigger events are written consistently.

package http

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"homebudget/internal/core"
)

// Event names carried in the HX-Trigger header.
const (
	EventTransactionCreated = "transaction:created"
	EventTransactionDeleted = "transaction:deleted"
	EventBudgetCreated      = "budget:created"
	EventBudgetDeleted      = "budget:deleted"
	EventReportExported     = "report:exported"
	EventSettingsUpdated    = "settings:updated"
	EventTransactionsImport = "transactions:imported"
)

// ResponseBuilder provides a fluent API for building JSON responses.
type ResponseBuilder struct {
	triggers   map[string]any
	statusCode int
	body       any
	raw        []byte
	headers    map[string]string
}

// NewResponse creates a builder with a default 200 status.
func NewResponse() *ResponseBuilder {
	return &ResponseBuilder{
		triggers:   make(map[string]any),
		statusCode: http.StatusOK,
		headers:    make(map[string]string),
	}
}

func (b *ResponseBuilder) Status(code int) *ResponseBuilder {
	b.statusCode = code
	return b
}

// Trigger adds a named event with optional data to the HX-Trigger header.
func (b *ResponseBuilder) Trigger(name string, data any) *ResponseBuilder {
	if data == nil {
		data = struct{}{}
	}
	b.triggers[name] = data
	return b
}

// TriggerEntity adds an event carrying the affected id.
func (b *ResponseBuilder) TriggerEntity(name, id string) *ResponseBuilder {
	return b.Trigger(name, map[string]string{"id": id})
}

func (b *ResponseBuilder) Header(name, value string) *ResponseBuilder {
	b.headers[name] = value
	return b
}

// JSON sets v as the response body.
func (b *ResponseBuilder) JSON(v any) *ResponseBuilder {
	b.body = v
	b.raw = nil
	return b
}

// Raw sets a pre-rendered body with its content type.
func (b *ResponseBuilder) Raw(contentType string, content []byte) *ResponseBuilder {
	b.headers["Content-Type"] = contentType
	b.raw = content
	b.body = nil
	return b
}

// Write sends the built response.
func (b *ResponseBuilder) Write(w http.ResponseWriter) {
	for name, value := range b.headers {
		w.Header().Set(name, value)
	}

	if len(b.triggers) > 0 {
		if triggerJSON, err := json.Marshal(b.triggers); err == nil {
			w.Header().Set("HX-Trigger", string(triggerJSON))
		}
	}

	if b.body == nil {
		w.WriteHeader(b.statusCode)
		if len(b.raw) > 0 {
			_, _ = w.Write(b.raw)
		}
		return
	}

	payload, err := json.Marshal(b.body)
	if err != nil {
		slog.Error("Failed to encode response", "component", "http", "error", err)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"error":"internal error"}`))
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(b.statusCode)
	_, _ = w.Write(payload)
	_, _ = w.Write([]byte("\n"))
}

type errorBody struct {
	Error string `json:"error"`
	Field string `json:"field,omitempty"`
}

// ErrorResponse creates a standard JSON error response.
func ErrorResponse(statusCode int, message string) *ResponseBuilder {
	return NewResponse().Status(statusCode).JSON(errorBody{Error: message})
}

func BadRequestError(message string) *ResponseBuilder {
	return ErrorResponse(http.StatusBadRequest, message)
}

func NotFoundError(message string) *ResponseBuilder {
	return ErrorResponse(http.StatusNotFound, message)
}

func InternalServerError(message string) *ResponseBuilder {
	return ErrorResponse(http.StatusInternalServerError, message)
}

// ErrorFor maps a domain error to its HTTP response: validation failures
// are 422, duplicates 409, missing records 404 and everything else 500.
func ErrorFor(err error) *ResponseBuilder {
	var verr *core.ValidationError
	switch {
	case errors.As(err, &verr):
		return NewResponse().
			Status(http.StatusUnprocessableEntity).
			JSON(errorBody{Error: verr.Err.Error(), Field: verr.Field})
	case errors.Is(err, core.ErrValidation):
		return ErrorResponse(http.StatusUnprocessableEntity, err.Error())
	case errors.Is(err, core.ErrDuplicateCategory):
		return ErrorResponse(http.StatusConflict, err.Error())
	case errors.Is(err, core.ErrNotFound):
		return NotFoundError(err.Error())
	default:
		return InternalServerError("internal error")
	}
}
