// Package apierror provides standardized error response structures for the API
// plus the typed domain errors raised by the stock/order engine. All errors
// returned to clients go through this package to ensure consistency and to
// prevent leaking internal details (stack traces, DB errors, etc.).
package apierror

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// APIError is the canonical error envelope for all 4xx/5xx HTTP responses.
type APIError struct {
	Detail string `json:"detail"`
}

func New(msg string) *APIError {
	return &APIError{Detail: msg}
}

func (e *APIError) Error() string { return e.Detail }

// Validation wraps multiple field errors.
type ValidationError struct {
	Detail string            `json:"detail"`
	Fields map[string]string `json:"fields"`
}

func NewValidation(fields map[string]string) *ValidationError {
	return &ValidationError{Detail: "Error de validacion", Fields: fields}
}

// ─── Domain errors ───────────────────────────────────────────────────────────
// Typed errors raised by services. The error-handler middleware maps each type
// to its HTTP status; services never decide status codes themselves.

// NotFoundError indicates a missing pedido/turno/producto/venta.
type NotFoundError struct {
	Recurso string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("No se ha encontrado %s.", e.Recurso)
}

func NewNotFound(recurso string) *NotFoundError {
	return &NotFoundError{Recurso: recurso}
}

// IllegalTransitionError indicates a lifecycle operation attempted from the
// wrong state or by the wrong actor.
type IllegalTransitionError struct {
	Motivo string
}

func (e *IllegalTransitionError) Error() string { return e.Motivo }

func NewIllegalTransition(motivo string) *IllegalTransitionError {
	return &IllegalTransitionError{Motivo: motivo}
}

// StockInsuficienteError is raised per line when an incremental consumption
// exceeds the product's available stock. Reconciliation collects these instead
// of failing fast so the caller sees every problem in one response.
type StockInsuficienteError struct {
	Producto string
	Restante int
}

func (e *StockInsuficienteError) Error() string {
	return fmt.Sprintf("No hay suficiente stock para el producto %s, quedan %d.", e.Producto, e.Restante)
}

// ValidationErrors accumulates per-line errors from a reconciliation pass.
// When non-empty the whole container transaction rolls back.
type ValidationErrors struct {
	Errores []error
}

func (e *ValidationErrors) Error() string {
	msgs := make([]string, 0, len(e.Errores))
	for _, err := range e.Errores {
		msgs = append(msgs, err.Error())
	}
	return strings.Join(msgs, " ")
}

func (e *ValidationErrors) Agregar(err error) { e.Errores = append(e.Errores, err) }

func (e *ValidationErrors) Vacio() bool { return len(e.Errores) == 0 }

// ConsistencyFault signals that the ledger sum diverged from the cached stock
// counter at reconcile time. Not a business error: the cache is corrected to
// the ledger value and the triggering request fails.
type ConsistencyFault struct {
	ProductoID  uuid.UUID
	StockCache  int
	StockLedger int
}

func (e *ConsistencyFault) Error() string {
	return fmt.Sprintf(
		"Inconsistencia de stock del producto %s: cache %d, suma de movimientos %d.",
		e.ProductoID, e.StockCache, e.StockLedger,
	)
}
