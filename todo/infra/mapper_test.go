package infra

import (
	"database/sql"
	"errors"
	"testing"
	"time"

	"todo-service/todo/domain"
)

func TestSingleTodo_MoreThanOneRowIsConsistencyError(t *testing.T) {
	rows := []todoRow{{ID: 1}, {ID: 1}}

	_, err := singleTodo("todo.get", rows)
	if domain.KindOf(err) != domain.KindConsistency {
		t.Fatalf("expected KindConsistency, got %v", err)
	}
	if !errors.Is(err, domain.ErrDuplicateRow) {
		t.Fatalf("expected ErrDuplicateRow in chain, got %v", err)
	}
}

func TestSingleTodo_NoRowsIsNotFound(t *testing.T) {
	_, err := singleTodo("todo.get", nil)
	if !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestTodoRow_ParsesCreatedAt(t *testing.T) {
	r := todoRow{
		ID:        7,
		Title:     sql.NullString{String: "t", Valid: true},
		CreatedAt: sql.NullString{String: "2024-05-17T10:30:00+09:00", Valid: true},
	}

	got, err := r.toTodo()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := time.Date(2024, 5, 17, 1, 30, 0, 0, time.UTC)
	if !got.CreatedAt.Valid || !got.CreatedAt.Time.Equal(want) {
		t.Fatalf("expected %s, got %+v", want, got.CreatedAt)
	}
	if got.Body != "" {
		t.Fatalf("expected NULL body to map to empty string, got %q", got.Body)
	}
}

func TestTodoRow_MalformedCreatedAtFails(t *testing.T) {
	r := todoRow{ID: 3, CreatedAt: sql.NullString{String: "2024-13-45", Valid: true}}

	if _, err := r.toTodo(); !errors.Is(err, domain.ErrTimestampParse) {
		t.Fatalf("expected ErrTimestampParse, got %v", err)
	}
}

func TestInsertArgs_NullsForAbsentFields(t *testing.T) {
	args := insertArgs(domain.NewTodo{Title: "só título"})

	if len(args) != 3 {
		t.Fatalf("expected 3 args, got %d", len(args))
	}
	if args[0] != "só título" {
		t.Fatalf("expected title verbatim, got %v", args[0])
	}
	if args[1] != nil || args[2] != nil {
		t.Fatalf("expected nil body and created_at, got %v, %v", args[1], args[2])
	}
}

func TestInsertArgs_FormatsCreatedAt(t *testing.T) {
	body := "corpo"
	ts := domain.TimestampOf(time.Date(2024, 1, 2, 3, 4, 5, 0, time.FixedZone("", 3600)))

	args := insertArgs(domain.NewTodo{Title: "t", Body: &body, CreatedAt: ts})
	if args[1] != "corpo" {
		t.Fatalf("expected body %q, got %v", body, args[1])
	}
	if args[2] != "2024-01-02T03:04:05+01:00" {
		t.Fatalf("unexpected created_at %v", args[2])
	}
}
