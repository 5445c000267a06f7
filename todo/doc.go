// Package todo fornece o adapter HTTP (net/http) do recurso todo.
//
// Visão geral (camadas):
//
//   - domain: tipo Todo, erros classificados e o contrato TodoStore
//   - application: casos de uso (validação, created_at) sem net/http
//   - infra: pool de conexões SQLite, schema, mapper e as três operações
//   - todo (este pacote): rotas, decodificação da entrada e tradução de erro para status
//
// Fluxo de uma requisição:
//
//  1. Decodifica path/body em valores tipados (id inteiro, título, corpo)
//  2. Chama a camada application
//  3. Traduz o domain.Kind do erro em status (400, 404, 500, 503)
//  4. Serializa a resposta em JSON, ou CBOR quando o cliente pede application/cbor
package todo
