package infra

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"net/url"
	"sync"
	"time"

	"todo-service/todo/domain"

	_ "modernc.org/sqlite"
)

// SQLStore implementa domain.TodoStore com database/sql e o driver
// modernc.org/sqlite. O pool é o do próprio *sql.DB; cada operação aluga um
// *sql.Conn com db.Conn e o fecha (devolve) ao terminar.
type SQLStore struct {
	db             *sql.DB
	logger         *slog.Logger
	path           string
	acquireTimeout time.Duration
}

var _ domain.TodoStore = (*SQLStore)(nil)

func OpenSQLStore(cfg PoolConfig) (*SQLStore, error) {
	if cfg.Path == "" {
		return nil, fmt.Errorf("sql store: path is required")
	}
	cfg = cfg.withDefaults()

	db, err := sql.Open("sqlite", sqliteDSN(cfg.Path))
	if err != nil {
		return nil, fmt.Errorf("sql store: open %s: %w", cfg.Path, err)
	}
	db.SetMaxOpenConns(cfg.MaxConnections)
	db.SetMaxIdleConns(cfg.MaxConnections)
	// Em memória, fechar a conexão ociosa apagaria o banco.
	if cfg.Path != MemoryPath {
		db.SetConnMaxIdleTime(cfg.IdleTimeout)
	}
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("sql store: ping %s: %w", cfg.Path, err)
	}

	cfg.Logger.Info("sql pool opened",
		"path", cfg.Path,
		"max_connections", cfg.MaxConnections,
		"idle_timeout", cfg.IdleTimeout,
	)

	return &SQLStore{
		db:             db,
		logger:         cfg.Logger,
		path:           cfg.Path,
		acquireTimeout: cfg.AcquireTimeout,
	}, nil
}

// sqliteDSN aplica os mesmos pragmas do Pool via parâmetros _pragma do driver.
func sqliteDSN(path string) string {
	q := url.Values{}
	for _, p := range []string{
		"busy_timeout(5000)",
		"journal_mode(WAL)",
		"synchronous(NORMAL)",
		"foreign_keys(OFF)",
		"temp_store(MEMORY)",
	} {
		q.Add("_pragma", p)
	}
	q.Set("_txlock", "immediate")
	return "file:" + path + "?" + q.Encode()
}

func (s *SQLStore) Close() error {
	if err := s.db.Close(); err != nil {
		s.logger.Error("sql pool close error", "path", s.path, "error", err)
		return fmt.Errorf("sql store: closing %s: %w", s.path, err)
	}
	s.logger.Info("sql pool closed", "path", s.path)
	return nil
}

func (s *SQLStore) acquire(ctx context.Context) (*sql.Conn, func(), error) {
	acqCtx, cancel := withAcquireTimeout(ctx, s.acquireTimeout)
	defer cancel()

	// O ctx de db.Conn só vale para a aquisição.
	conn, err := s.db.Conn(acqCtx)
	if err != nil {
		return nil, func() {}, acquireError(ctx, acqCtx, err)
	}
	testHookLeased()

	var once sync.Once
	release := func() {
		once.Do(func() { _ = conn.Close() })
	}
	return conn, release, nil
}

func (s *SQLStore) Get(ctx context.Context, id domain.ID) (domain.Todo, error) {
	const op = "todo.get"

	conn, release, err := s.acquire(ctx)
	if err != nil {
		return domain.Todo{}, err
	}
	defer release()

	rows, err := queryRows(ctx, conn, selectByIDSQL, int64(id))
	if err != nil {
		return domain.Todo{}, storeError(op, err)
	}
	return singleTodo(op, rows)
}

func (s *SQLStore) Insert(ctx context.Context, t domain.NewTodo) (domain.ID, error) {
	const op = "todo.insert"

	conn, release, err := s.acquire(ctx)
	if err != nil {
		return 0, err
	}
	defer release()

	// Sem cancelamento: o statement não pode ficar pela metade.
	res, err := conn.ExecContext(context.WithoutCancel(ctx), insertSQL, insertArgs(t)...)
	if err != nil {
		return 0, storeError(op, err)
	}
	// O resultado vem da mesma conexão do insert.
	id, err := res.LastInsertId()
	if err != nil {
		return 0, storeError(op, err)
	}
	return domain.ID(id), nil
}

func (s *SQLStore) List(ctx context.Context) ([]domain.Todo, error) {
	const op = "todo.list"

	conn, release, err := s.acquire(ctx)
	if err != nil {
		return nil, err
	}
	defer release()

	rows, err := queryRows(ctx, conn, selectAllSQL)
	if err != nil {
		return nil, storeError(op, err)
	}
	return allTodos(op, rows)
}

func (s *SQLStore) EnsureSchema(ctx context.Context, seed Seeder) error {
	conn, release, err := s.acquire(ctx)
	if err != nil {
		return &InitError{Step: StepCreateTable, Err: err}
	}
	defer release()

	if _, err := conn.ExecContext(ctx, createTableSQL); err != nil {
		return &InitError{Step: StepCreateTable, Err: err}
	}
	if seed == nil {
		return nil
	}
	inserted, err := seedSQL(ctx, conn, seed)
	if err != nil {
		return &InitError{Step: StepSeed, Err: err}
	}
	logSeed(s.logger, inserted)
	return nil
}

func seedSQL(ctx context.Context, conn *sql.Conn, seed Seeder) (int, error) {
	tx, err := conn.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	var count int64
	if err := tx.QueryRowContext(ctx, countSQL).Scan(&count); err != nil {
		return 0, fmt.Errorf("count rows: %w", err)
	}
	if count > 0 {
		return -1, nil
	}

	rows, err := seed()
	if err != nil {
		return 0, err
	}
	for i, t := range rows {
		if _, err := tx.ExecContext(ctx, insertSQL, insertArgs(t)...); err != nil {
			return 0, seedRowError(i, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit: %w", err)
	}
	return len(rows), nil
}

// queryRows desiste se ctx já encerrou: o driver só interrompe o statement
// de forma assíncrona.
func queryRows(ctx context.Context, conn *sql.Conn, query string, args ...any) ([]todoRow, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	rows, err := conn.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []todoRow
	for rows.Next() {
		var r todoRow
		if err := rows.Scan(&r.ID, &r.Title, &r.Body, &r.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}
