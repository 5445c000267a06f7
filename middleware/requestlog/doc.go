// Package requestlog registra cada requisição HTTP: atribui um request id
// (header X-Request-Id), escreve uma linha de access log via log/slog e
// alimenta um StatsStore com contadores por rota e classe de status.
//
// Os contadores são best-effort: falha ao gravar estatística nunca derruba
// a requisição.
package requestlog
