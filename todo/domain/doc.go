// Package domain define o tipo Todo, a taxonomia de erros e os contratos de
// persistência do serviço.
//
// Este pacote não depende de net/http nem de drivers SQL. A camada infra
// implementa TodoStore sobre SQLite e a camada application aplica validação
// e a política de created_at.
package domain
