package ratelimit

import (
	"log/slog"
	"net/http"
	"slices"
	"strconv"
	"strings"
)

type Options struct {
	Buckets *Buckets
	KeyFn   KeyFunc
	// KeyHeader e TrustXForwardedFor só valem quando KeyFn é nil.
	KeyHeader          string
	TrustXForwardedFor bool
	// Route nomeia o bucket da requisição (ex: o padrão do ServeMux). nil
	// põe todas as rotas de um cliente no mesmo bucket.
	Route func(r *http.Request) string
	// Methods limita apenas esses métodos. Vazio usa DefaultMethods.
	Methods             []string
	RejectStatus        int
	AddRateLimitHeaders bool
	Logger              *slog.Logger
}

// DefaultMethods: só escrita é limitada; GET/HEAD passam direto.
var DefaultMethods = []string{http.MethodPost}

// Middleware aplica token bucket por rota e cliente. Sem Buckets é um no-op.
func Middleware(opts Options) func(next http.Handler) http.Handler {
	if opts.Buckets == nil {
		return func(next http.Handler) http.Handler { return next }
	}
	if opts.RejectStatus == 0 {
		opts.RejectStatus = http.StatusTooManyRequests
	}
	if opts.KeyFn == nil {
		opts.KeyFn = DefaultKeyFunc(opts.KeyHeader, opts.TrustXForwardedFor)
	}
	if opts.Route == nil {
		opts.Route = func(*http.Request) string { return "" }
	}
	if len(opts.Methods) == 0 {
		opts.Methods = DefaultMethods
	}
	methods := make([]string, 0, len(opts.Methods))
	for _, m := range opts.Methods {
		methods = append(methods, strings.ToUpper(strings.TrimSpace(m)))
	}
	if opts.Logger == nil {
		opts.Logger = slog.New(slog.DiscardHandler)
	}
	limit := strconv.Itoa(opts.Buckets.Burst())

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !slices.Contains(methods, r.Method) {
				next.ServeHTTP(w, r)
				return
			}

			client := opts.KeyFn(r)
			route := opts.Route(r)
			v := opts.Buckets.Take(route, client)
			if opts.AddRateLimitHeaders {
				w.Header().Set("X-RateLimit-Limit", limit)
				w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(v.Remaining))
			}

			if !v.Allowed {
				opts.Logger.WarnContext(r.Context(), "rate limited",
					"client", client,
					"route", route,
					"retry_in", v.RetryIn,
				)
				w.Header().Set("Retry-After", strconv.Itoa(v.RetryAfterSeconds()))
				http.Error(w, http.StatusText(opts.RejectStatus), opts.RejectStatus)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
