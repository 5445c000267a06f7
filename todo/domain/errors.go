package domain

import (
	"errors"
	"strings"
)

// Kind classifica um erro para a borda HTTP decidir o status.
type Kind int

const (
	KindUnknown Kind = iota
	KindValidation
	KindNotFound
	KindPool
	KindStore
	KindMapping
	KindConsistency
)

func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindNotFound:
		return "not_found"
	case KindPool:
		return "pool"
	case KindStore:
		return "store"
	case KindMapping:
		return "mapping"
	case KindConsistency:
		return "consistency"
	default:
		return "unknown"
	}
}

var (
	ErrNotFound           = errors.New("todo not found")
	ErrEmptyTitle         = errors.New("title is required")
	ErrInvalidID          = errors.New("id must be a positive integer")
	ErrPoolExhausted      = errors.New("connection pool exhausted")
	ErrBackendUnavailable = errors.New("store backend unavailable")
	ErrTimestampParse     = errors.New("malformed created_at")
	ErrDuplicateRow       = errors.New("more than one row for id")
)

// Error carrega o tipo do erro e a operação que falhou.
//
// Op é o nome lógico (ex: "todo.get", "pool.acquire"), nunca o conteúdo da linha.
type Error struct {
	Kind Kind
	Op   string
	Err  error
}

func (e *Error) Error() string {
	var b strings.Builder
	if e.Op != "" {
		b.WriteString(e.Op)
		b.WriteString(": ")
	}
	if e.Err != nil {
		b.WriteString(e.Err.Error())
	} else {
		b.WriteString(e.Kind.String())
	}
	return b.String()
}

func (e *Error) Unwrap() error { return e.Err }

// E monta um *Error. Atalho usado pelas camadas application e infra.
func E(kind Kind, op string, err error) error {
	return &Error{Kind: kind, Op: op, Err: err}
}

// KindOf retorna o Kind do primeiro *Error na cadeia, ou KindUnknown.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindUnknown
}
