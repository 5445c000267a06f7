package application

import (
	"context"
	"strings"
	"time"

	"todo-service/todo/domain"
)

// CreateRequest é a entrada já decodificada do POST /todo.
type CreateRequest struct {
	Title string
	Body  *string
}

// Service concentra as regras de aplicação do recurso todo.
//
// Ele não sabe nada sobre HTTP (status/headers): devolve valores ou erros
// classificados por domain.Kind.
type Service struct {
	Store domain.TodoStore
	// Now fornece o horário de created_at. nil usa time.Now (horário local,
	// com offset).
	Now func() time.Time
}

func (s Service) now() time.Time {
	if s.Now == nil {
		return time.Now()
	}
	return s.Now()
}

func (s Service) Get(ctx context.Context, id domain.ID) (domain.Todo, error) {
	if id <= 0 {
		return domain.Todo{}, domain.E(domain.KindValidation, "todo.get", domain.ErrInvalidID)
	}
	return s.Store.Get(ctx, id)
}

// Create rejeita título vazio ou só com espaços antes de chegar ao store.
// O título é gravado como veio, sem trim.
//
// created_at é capturado aqui, uma única vez, e não no commit do store.
func (s Service) Create(ctx context.Context, req CreateRequest) (domain.ID, error) {
	if strings.TrimSpace(req.Title) == "" {
		return 0, domain.E(domain.KindValidation, "todo.create", domain.ErrEmptyTitle)
	}
	return s.Store.Insert(ctx, domain.NewTodo{
		Title:     req.Title,
		Body:      req.Body,
		CreatedAt: domain.TimestampOf(s.now()),
	})
}

func (s Service) List(ctx context.Context) ([]domain.Todo, error) {
	return s.Store.List(ctx)
}
