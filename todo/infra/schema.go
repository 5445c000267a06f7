package infra

import (
	"fmt"
	"log/slog"

	"todo-service/todo/domain"
)

// InitStep identifica qual etapa da inicialização falhou.
type InitStep string

const (
	StepCreateTable InitStep = "create-table"
	StepSeed        InitStep = "seed"
)

// InitError é fatal para o startup: o serviço não deve aceitar tráfego
// contra um store inutilizável.
type InitError struct {
	Step InitStep
	Err  error
}

func (e *InitError) Error() string {
	return fmt.Sprintf("schema init (%s): %v", e.Step, e.Err)
}

func (e *InitError) Unwrap() error { return e.Err }

func seedRowError(i int, err error) error {
	return fmt.Errorf("insert seed row %d: %w", i, err)
}

// Seeder produz as linhas de exemplo. EnsureSchema só o chama com a tabela
// vazia, dentro da transação de seed; com a tabela populada o Seeder nem roda.
type Seeder func() ([]domain.NewTodo, error)

// SeedRows devolve um Seeder com linhas fixas.
func SeedRows(rows ...domain.NewTodo) Seeder {
	return func() ([]domain.NewTodo, error) { return rows, nil }
}

func logSeed(logger *slog.Logger, inserted int) {
	if inserted < 0 {
		logger.Info("seed skipped: table already populated")
		return
	}
	logger.Info("seed rows inserted", "rows", inserted)
}
