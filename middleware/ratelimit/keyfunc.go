package ratelimit

import (
	"net"
	"net/http"
	"strings"
)

// KeyFunc extrai a chave do cliente de uma requisição.
type KeyFunc func(r *http.Request) string

// DefaultKeyFunc usa, nesta ordem: o header keyHeader (se configurado), o
// primeiro IP do X-Forwarded-For (se trustXFF) e o host de RemoteAddr.
func DefaultKeyFunc(keyHeader string, trustXFF bool) KeyFunc {
	return func(r *http.Request) string {
		if keyHeader != "" {
			if v := strings.TrimSpace(r.Header.Get(keyHeader)); v != "" {
				return v
			}
		}
		if trustXFF {
			first, _, _ := strings.Cut(r.Header.Get("X-Forwarded-For"), ",")
			if ip := strings.TrimSpace(first); ip != "" {
				return ip
			}
		}
		addr := strings.TrimSpace(r.RemoteAddr)
		if host, _, err := net.SplitHostPort(addr); err == nil && host != "" {
			return host
		}
		if addr != "" {
			return addr
		}
		return "unknown"
	}
}
