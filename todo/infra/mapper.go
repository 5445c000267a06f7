package infra

import (
	"database/sql"
	"fmt"

	"todo-service/todo/domain"
)

// Colunas posicionais: id, title, body, created_at.
const (
	createTableSQL = `
	CREATE TABLE IF NOT EXISTS todo (
		id          INTEGER PRIMARY KEY AUTOINCREMENT,
		title       TEXT,
		body        TEXT,
		created_at  TEXT
	);`
	selectByIDSQL = `SELECT id, title, body, created_at FROM todo WHERE id = ?`
	selectAllSQL  = `SELECT id, title, body, created_at FROM todo ORDER BY id`
	insertSQL     = `INSERT INTO todo (title, body, created_at) VALUES (?, ?, ?)`
	countSQL      = `SELECT COUNT(*) FROM todo`
)

// todoRow é a linha crua lida do cursor. Os backends copiam as colunas para
// cá antes de avançar o cursor; nada aqui aponta para a conexão.
type todoRow struct {
	ID        int64
	Title     sql.NullString
	Body      sql.NullString
	CreatedAt sql.NullString
}

func (r todoRow) toTodo() (domain.Todo, error) {
	t := domain.Todo{
		ID:    domain.ID(r.ID),
		Title: r.Title.String,
		Body:  r.Body.String,
	}
	if r.CreatedAt.Valid {
		ts, err := domain.ParseTimestamp(r.CreatedAt.String)
		if err != nil {
			// O texto da coluna não entra na mensagem: ela acaba no log.
			return domain.Todo{}, fmt.Errorf("%w: row %d", domain.ErrTimestampParse, r.ID)
		}
		t.CreatedAt = ts
	}
	return t, nil
}

// insertArgs segue a ordem de insertSQL. nil vira NULL nos dois drivers.
func insertArgs(t domain.NewTodo) []any {
	args := []any{t.Title, nil, nil}
	if t.Body != nil {
		args[1] = *t.Body
	}
	if t.CreatedAt.Valid {
		args[2] = t.CreatedAt.Format()
	}
	return args
}

// singleTodo aplica a regra do fetch por id: zero linhas é not-found, mais
// de uma é inconsistência (id é chave primária).
func singleTodo(op string, rows []todoRow) (domain.Todo, error) {
	switch len(rows) {
	case 0:
		return domain.Todo{}, domain.E(domain.KindNotFound, op, domain.ErrNotFound)
	case 1:
		t, err := rows[0].toTodo()
		if err != nil {
			return domain.Todo{}, domain.E(domain.KindMapping, op, err)
		}
		return t, nil
	default:
		return domain.Todo{}, domain.E(domain.KindConsistency, op,
			fmt.Errorf("%w: %d rows", domain.ErrDuplicateRow, len(rows)))
	}
}

func allTodos(op string, rows []todoRow) ([]domain.Todo, error) {
	out := make([]domain.Todo, 0, len(rows))
	for _, r := range rows {
		t, err := r.toTodo()
		if err != nil {
			return nil, domain.E(domain.KindMapping, op, err)
		}
		out = append(out, t)
	}
	return out, nil
}

// storeError preserva erros já classificados (ex: pool) e marca o resto como KindStore.
func storeError(op string, err error) error {
	if domain.KindOf(err) != domain.KindUnknown {
		return err
	}
	return domain.E(domain.KindStore, op, err)
}
