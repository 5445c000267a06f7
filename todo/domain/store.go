package domain

import "context"

// TodoStore é o contrato das três operações sobre a tabela todo.
//
// Cada chamada aluga uma conexão do pool, executa um único statement e
// devolve a conexão antes de retornar, inclusive em caso de erro.
// Nenhuma implementação faz retry: Insert não é idempotente.
type TodoStore interface {
	Get(ctx context.Context, id ID) (Todo, error)
	Insert(ctx context.Context, t NewTodo) (ID, error)
	// List retorna todas as linhas em ordem de id. Não há paginação:
	// pensado para volumes pequenos.
	List(ctx context.Context) ([]Todo, error)
}
