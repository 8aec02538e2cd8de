package services

import (
	"errors"
	"sort"
	"strings"

	"gorm.io/gorm"
)

type Kind uint8

const (
	KindValidation Kind = iota + 1
	KindUnauthenticated
	KindForbidden
	KindNotFound
	KindConflict
)

// Error описывает ошибку предметной области. Транспорт (HTTP, websocket) отображает Kind
// в свой код ответа, Message уходит клиенту как есть.
type Error struct {
	Kind    Kind
	Message string
	Fields  map[string]string
}

func (e *Error) Error() string {
	if len(e.Fields) == 0 {
		return e.Message
	}
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, len(keys))
	for i, k := range keys {
		parts[i] = k + ": " + e.Fields[k]
	}
	return e.Message + " (" + strings.Join(parts, "; ") + ")"
}

// Is сравнивает по Kind, чтобы errors.Is(err, ErrNotFound) работал для любого сообщения.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Kind == e.Kind
}

var (
	ErrValidation      = &Error{Kind: KindValidation, Message: "validation error"}
	ErrUnauthenticated = &Error{Kind: KindUnauthenticated, Message: "unauthenticated"}
	ErrForbidden       = &Error{Kind: KindForbidden, Message: "forbidden"}
	ErrNotFound        = &Error{Kind: KindNotFound, Message: "not found"}
	ErrConflict        = &Error{Kind: KindConflict, Message: "conflict"}
)

func validationError(fields map[string]string) error {
	return &Error{Kind: KindValidation, Message: "Validation Error", Fields: fields}
}

func unauthenticated(msg string) error { return &Error{Kind: KindUnauthenticated, Message: msg} }
func forbidden(msg string) error       { return &Error{Kind: KindForbidden, Message: msg} }
func notFound(msg string) error        { return &Error{Kind: KindNotFound, Message: msg} }
func conflict(msg string) error        { return &Error{Kind: KindConflict, Message: msg} }

// translate превращает "нет записи" в NotFound с заданным текстом, остальное отдает как есть.
func translate(err error, notFoundMsg string) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return notFound(notFoundMsg)
	}
	return err
}
