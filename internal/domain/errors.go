package domain

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// Errores de dominio (sin dependencias externas).
var (
	ErrNotFound          = errors.New("recurso no encontrado")
	ErrInvalidInput      = errors.New("entrada inválida")
	ErrDuplicate         = errors.New("recurso duplicado")
	ErrUnauthorized      = errors.New("no autorizado")
	ErrForbidden         = errors.New("acceso denegado")
	ErrConflict          = errors.New("conflicto con el estado actual")
	ErrInsufficientStock = errors.New("stock insuficiente")
	ErrExpired           = errors.New("documento vencido")
	ErrTooManyRows       = errors.New("demasiadas filas para exportación síncrona")
)

// ValidationError dato faltante o inválido que el usuario puede corregir.
type ValidationError struct {
	Field   string
	Message string
}

// NewValidationError construye un ValidationError.
func NewValidationError(field, message string) *ValidationError {
	return &ValidationError{Field: field, Message: message}
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

func (e *ValidationError) Unwrap() error { return ErrInvalidInput }

// ExpiredError cotización fuera de su ventana de vigencia.
type ExpiredError struct {
	QuotationID string
	ExpiredAt   time.Time
}

func (e *ExpiredError) Error() string {
	return fmt.Sprintf("cotización %s vencida desde %s", e.QuotationID, e.ExpiredAt.Format("2006-01-02"))
}

func (e *ExpiredError) Unwrap() error { return ErrExpired }

// InsufficientStockError identifica la línea que no tiene existencia suficiente.
type InsufficientStockError struct {
	ProductID   string
	ProductName string
	WarehouseID string
	Requested   int
	Available   int
}

func (e *InsufficientStockError) Error() string {
	name := e.ProductName
	if name == "" {
		name = e.ProductID
	}
	return fmt.Sprintf("stock insuficiente para %s: solicitado %d, disponible %d", name, e.Requested, e.Available)
}

func (e *InsufficientStockError) Unwrap() error { return ErrInsufficientStock }

// DuplicateError colisión de identificador único (NCF, código, email).
type DuplicateError struct {
	Resource string
	Value    string
}

func (e *DuplicateError) Error() string {
	return fmt.Sprintf("%s duplicado: %s", e.Resource, e.Value)
}

func (e *DuplicateError) Unwrap() error { return ErrDuplicate }

// TooManyRowsError la exportación excede el máximo síncrono; debe pedirse en modo async.
type TooManyRowsError struct {
	Count int
	Limit int
}

func (e *TooManyRowsError) Error() string {
	return fmt.Sprintf("la exportación tiene %d filas (máximo %d); solicítela en modo asíncrono", e.Count, e.Limit)
}

func (e *TooManyRowsError) Unwrap() error { return ErrTooManyRows }

// NotFoundError búsqueda sin resultado dentro del alcance del tenant.
type NotFoundError struct {
	Resource string
	ID       string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s no encontrado: %s", e.Resource, e.ID)
}

func (e *NotFoundError) Unwrap() error { return ErrNotFound }

// RowError error de validación de una fila de importación.
type RowError struct {
	Line    int    `json:"line"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

// ImportError agrupa todos los errores de una importación rechazada.
type ImportError struct {
	Rows []RowError
}

func (e *ImportError) Error() string {
	parts := make([]string, 0, len(e.Rows))
	for _, r := range e.Rows {
		parts = append(parts, fmt.Sprintf("línea %d (%s): %s", r.Line, r.Code, r.Message))
	}
	return "importación rechazada: " + strings.Join(parts, "; ")
}

func (e *ImportError) Unwrap() error { return ErrInvalidInput }
