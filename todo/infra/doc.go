// Package infra contém as implementações concretas de domain.TodoStore.
//
//   - Store: pool fixo de conexões zombiezen.com/go/sqlite (sqlitex.Pool), padrão
//   - SQLStore: database/sql com o driver modernc.org/sqlite (STORE_DRIVER=sql)
//
// Os dois compartilham o DDL, o mapper de linhas e a classificação de erros
// de aquisição do pool.
package infra
