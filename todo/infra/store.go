package infra

import (
	"context"
	"database/sql"
	"log/slog"

	"todo-service/todo/domain"

	"zombiezen.com/go/sqlite"
	"zombiezen.com/go/sqlite/sqlitex"
)

// Store implementa domain.TodoStore sobre um Pool sqlitex.
type Store struct {
	pool   *Pool
	logger *slog.Logger
}

var _ domain.TodoStore = (*Store)(nil)

// OpenStore abre o pool e devolve um Store dono dele. Close fecha o pool.
func OpenStore(cfg PoolConfig) (*Store, error) {
	cfg = cfg.withDefaults()
	pool, err := OpenPool(cfg)
	if err != nil {
		return nil, err
	}
	return &Store{pool: pool, logger: cfg.Logger}, nil
}

func (s *Store) Close() error { return s.pool.Close() }

func (s *Store) Get(ctx context.Context, id domain.ID) (domain.Todo, error) {
	const op = "todo.get"

	rows, err := s.query(ctx, selectByIDSQL, int64(id))
	if err != nil {
		return domain.Todo{}, storeError(op, err)
	}
	return singleTodo(op, rows)
}

func (s *Store) Insert(ctx context.Context, t domain.NewTodo) (domain.ID, error) {
	const op = "todo.insert"

	var id int64
	err := s.pool.Do(ctx, func(conn *sqlite.Conn) error {
		// Com a conexão em mãos o insert vai até o fim, mesmo se o cliente cair.
		conn.SetInterrupt(nil)
		if err := sqlitex.Execute(conn, insertSQL, &sqlitex.ExecOptions{Args: insertArgs(t)}); err != nil {
			return err
		}
		// last_insert_rowid é por conexão: precisa ser lido na mesma conexão do insert.
		id = conn.LastInsertRowID()
		return nil
	})
	if err != nil {
		return 0, storeError(op, err)
	}
	return domain.ID(id), nil
}

func (s *Store) List(ctx context.Context) ([]domain.Todo, error) {
	const op = "todo.list"

	rows, err := s.query(ctx, selectAllSQL)
	if err != nil {
		return nil, storeError(op, err)
	}
	return allTodos(op, rows)
}

// query roda uma leitura. Ao contrário do insert, ela desiste se ctx
// encerrar, mesmo com a conexão já alugada.
func (s *Store) query(ctx context.Context, query string, args ...any) ([]todoRow, error) {
	var rows []todoRow
	err := s.pool.Do(ctx, func(conn *sqlite.Conn) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		return sqlitex.Execute(conn, query, &sqlitex.ExecOptions{
			Args: args,
			ResultFunc: func(stmt *sqlite.Stmt) error {
				rows = append(rows, scanStmt(stmt))
				return nil
			},
		})
	})
	return rows, err
}

// EnsureSchema cria a tabela (idempotente) e, se seed não for nil e a tabela
// estiver vazia, insere as linhas de exemplo numa única transação.
func (s *Store) EnsureSchema(ctx context.Context, seed Seeder) error {
	conn, release, err := s.pool.Acquire(ctx)
	if err != nil {
		return &InitError{Step: StepCreateTable, Err: err}
	}
	defer release()

	if err := sqlitex.ExecuteScript(conn, createTableSQL, nil); err != nil {
		return &InitError{Step: StepCreateTable, Err: err}
	}
	if seed == nil {
		return nil
	}
	inserted, err := s.seed(conn, seed)
	if err != nil {
		return &InitError{Step: StepSeed, Err: err}
	}
	logSeed(s.logger, inserted)
	return nil
}

// seed devolve -1 quando a tabela já tem linhas.
func (s *Store) seed(conn *sqlite.Conn, seed Seeder) (inserted int, err error) {
	endFn, err := sqlitex.ImmediateTransaction(conn)
	if err != nil {
		return 0, err
	}
	defer endFn(&err)

	var count int64
	err = sqlitex.Execute(conn, countSQL, &sqlitex.ExecOptions{
		ResultFunc: func(stmt *sqlite.Stmt) error {
			count = stmt.ColumnInt64(0)
			return nil
		},
	})
	if err != nil {
		return 0, err
	}
	if count > 0 {
		return -1, nil
	}

	rows, err := seed()
	if err != nil {
		return 0, err
	}
	for i, t := range rows {
		if err = sqlitex.Execute(conn, insertSQL, &sqlitex.ExecOptions{Args: insertArgs(t)}); err != nil {
			return 0, seedRowError(i, err)
		}
	}
	return len(rows), nil
}

func scanStmt(stmt *sqlite.Stmt) todoRow {
	return todoRow{
		ID:        stmt.ColumnInt64(0),
		Title:     columnText(stmt, 1),
		Body:      columnText(stmt, 2),
		CreatedAt: columnText(stmt, 3),
	}
}

func columnText(stmt *sqlite.Stmt, col int) sql.NullString {
	if stmt.ColumnType(col) == sqlite.TypeNull {
		return sql.NullString{}
	}
	return sql.NullString{String: stmt.ColumnText(col), Valid: true}
}
