package domain

import "time"

// ID é o identificador atribuído pelo store (AUTOINCREMENT). Nunca é reutilizado.
type ID int64

// Timestamp é um horário opcional. Valid=false representa coluna NULL.
type Timestamp struct {
	Time  time.Time
	Valid bool
}

// TimestampOf retorna um Timestamp válido para t.
func TimestampOf(t time.Time) Timestamp {
	return Timestamp{Time: t, Valid: true}
}

// Format serializa no formato persistido (RFC 3339 com offset).
// Retorna "" quando o valor é ausente.
func (ts Timestamp) Format() string {
	if !ts.Valid {
		return ""
	}
	return ts.Time.Format(time.RFC3339Nano)
}

// ParseTimestamp faz o caminho inverso de Format.
func ParseTimestamp(s string) (Timestamp, error) {
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return Timestamp{}, err
	}
	return TimestampOf(t), nil
}

// Todo é uma cópia em memória de uma linha da tabela todo.
// Não guarda nenhuma referência à conexão de origem.
type Todo struct {
	ID        ID
	Title     string
	Body      string
	CreatedAt Timestamp
}

// NewTodo é a entrada do insert. Body nil grava NULL.
type NewTodo struct {
	Title     string
	Body      *string
	CreatedAt Timestamp
}
