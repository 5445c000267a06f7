package infra

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"todo-service/todo/domain"

	"zombiezen.com/go/sqlite"
	"zombiezen.com/go/sqlite/sqlitex"
)

const (
	// MemoryPath abre um banco em memória. Cada conexão em memória é um banco
	// independente, então o pool fica com uma única conexão.
	MemoryPath = ":memory:"

	DefaultMaxConnections = 4
	DefaultIdleTimeout    = 5 * time.Minute
	DefaultAcquireTimeout = 5 * time.Second
)

// PoolConfig vale para os dois backends (sqlitex e database/sql).
type PoolConfig struct {
	Path           string
	MaxConnections int
	// IdleTimeout só é aplicado pelo backend database/sql; o sqlitex.Pool
	// mantém as conexões abertas enquanto o pool existir.
	IdleTimeout time.Duration
	// AcquireTimeout limita a espera por uma conexão livre. Estourado, a
	// aquisição falha com domain.ErrPoolExhausted. <= 0 espera até o ctx encerrar.
	AcquireTimeout time.Duration
	Logger         *slog.Logger
}

func (c PoolConfig) withDefaults() PoolConfig {
	if c.MaxConnections <= 0 {
		c.MaxConnections = DefaultMaxConnections
	}
	if c.IdleTimeout == 0 {
		c.IdleTimeout = DefaultIdleTimeout
	}
	if c.AcquireTimeout == 0 {
		c.AcquireTimeout = DefaultAcquireTimeout
	}
	if c.Path == MemoryPath {
		c.MaxConnections = 1
	}
	if c.Logger == nil {
		c.Logger = slog.New(slog.DiscardHandler)
	}
	return c
}

// busy_timeout vem primeiro: a troca para WAL num arquivo novo disputa lock
// com as outras conexões que o pool abre em paralelo.
var connPragmas = []string{
	"PRAGMA busy_timeout=5000",
	"PRAGMA journal_mode=WAL",
	"PRAGMA synchronous=NORMAL",
	"PRAGMA foreign_keys=OFF",
	"PRAGMA temp_store=MEMORY",
}

// Pool é um pool de tamanho fixo de conexões SQLite.
//
// Seguro para uso concorrente. As conexões não são: cada operação aluga a
// sua e devolve ao terminar.
type Pool struct {
	inner          *sqlitex.Pool
	logger         *slog.Logger
	path           string
	size           int
	acquireTimeout time.Duration

	closeOnce sync.Once
	closeErr  error
}

// testHookLeased roda logo depois de uma conexão ser alugada, nos dois backends.
var testHookLeased = func() {}

func OpenPool(cfg PoolConfig) (*Pool, error) {
	if cfg.Path == "" {
		return nil, fmt.Errorf("sqlite pool: path is required")
	}
	cfg = cfg.withDefaults()

	inner, err := sqlitex.NewPool(cfg.Path, sqlitex.PoolOptions{
		PoolSize:    cfg.MaxConnections,
		PrepareConn: prepareConn,
	})
	if err != nil {
		return nil, fmt.Errorf("sqlite pool: opening %s: %w", cfg.Path, err)
	}

	cfg.Logger.Info("sqlite pool opened", "path", cfg.Path, "pool_size", cfg.MaxConnections)

	return &Pool{
		inner:          inner,
		logger:         cfg.Logger,
		path:           cfg.Path,
		size:           cfg.MaxConnections,
		acquireTimeout: cfg.AcquireTimeout,
	}, nil
}

func prepareConn(conn *sqlite.Conn) error {
	for _, pragma := range connPragmas {
		if err := sqlitex.ExecuteTransient(conn, pragma, nil); err != nil {
			return fmt.Errorf("sqlite pool: %s: %w", pragma, err)
		}
	}
	return nil
}

func (p *Pool) Size() int { return p.size }

// Acquire aluga uma conexão. A função de release devolve a conexão ao pool e
// pode ser chamada mais de uma vez; use com defer logo após o erro ser checado.
//
// Statements na conexão são interrompidos quando ctx encerra. Quem precisa
// terminar o statement mesmo com o cliente desconectado chama
// conn.SetInterrupt(nil).
func (p *Pool) Acquire(ctx context.Context) (*sqlite.Conn, func(), error) {
	acqCtx, cancel := withAcquireTimeout(ctx, p.acquireTimeout)
	defer cancel()

	conn, err := p.inner.Take(acqCtx)
	if err != nil {
		return nil, func() {}, acquireError(ctx, acqCtx, err)
	}
	// Take amarrou o interrupt ao acqCtx, que é cancelado no retorno.
	conn.SetInterrupt(ctx.Done())
	testHookLeased()

	var once sync.Once
	release := func() {
		once.Do(func() { p.inner.Put(conn) })
	}
	return conn, release, nil
}

// Do aluga uma conexão, executa fn e devolve a conexão em qualquer saída,
// inclusive panic.
func (p *Pool) Do(ctx context.Context, fn func(conn *sqlite.Conn) error) error {
	conn, release, err := p.Acquire(ctx)
	if err != nil {
		return err
	}
	defer release()
	return fn(conn)
}

// Close bloqueia até todas as conexões alugadas voltarem. Chamadas seguintes
// devolvem o resultado da primeira.
func (p *Pool) Close() error {
	p.closeOnce.Do(func() {
		if err := p.inner.Close(); err != nil {
			p.logger.Error("sqlite pool close error", "path", p.path, "error", err)
			p.closeErr = fmt.Errorf("sqlite pool: closing %s: %w", p.path, err)
			return
		}
		p.logger.Info("sqlite pool closed", "path", p.path)
	})
	return p.closeErr
}

// withAcquireTimeout:
// - timeout <= 0: espera indefinidamente (até ctx cancelar)
// - timeout > 0: espera até o timeout
func withAcquireTimeout(ctx context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	if timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, timeout)
}

// acquireError distingue cliente que desistiu, pool sem vaga dentro do
// timeout e backend inutilizável (pool fechado, arquivo inacessível).
func acquireError(ctx, acqCtx context.Context, err error) error {
	const op = "pool.acquire"
	switch {
	case ctx.Err() != nil:
		return domain.E(domain.KindPool, op, ctx.Err())
	case acqCtx.Err() != nil:
		return domain.E(domain.KindPool, op, domain.ErrPoolExhausted)
	default:
		return domain.E(domain.KindPool, op, fmt.Errorf("%w: %v", domain.ErrBackendUnavailable, err))
	}
}
