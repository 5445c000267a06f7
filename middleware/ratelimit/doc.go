// Package ratelimit fornece middlewares net/http de rate limit por cliente e
// de limite de requisições simultâneas para o todo-server.
//
//   - Middleware: token bucket por rota e cliente (IP, header ou X-Forwarded-For) usando
//     golang.org/x/time/rate; por padrão só limita métodos de escrita
//   - ConcurrencyMiddleware: semáforo de vagas com timeout de aquisição
//   - Buckets: um token bucket por (rota, cliente), varrido conforme o uso
//
// Bloqueios respondem 429 (rate) ou 503 (concorrência).
package ratelimit
