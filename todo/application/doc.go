// Package application contém os casos de uso do recurso todo.
//
// Depende apenas do pacote domain e não conhece net/http nem SQL.
// Ex.: Service.Create valida o título e captura created_at antes de chamar o store.
package application
