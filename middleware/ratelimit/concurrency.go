package ratelimit

import (
	"context"
	"net/http"
	"time"
)

type ConcurrencyOptions struct {
	Max          int
	RejectStatus int
	// AcquireTimeout <= 0 espera por uma vaga até o cliente desistir.
	AcquireTimeout time.Duration
}

// slots é um semáforo baseado em channel com capacidade fixa.
type slots chan struct{}

// acquire bloqueia até conseguir uma vaga, estourar o timeout ou ctx encerrar.
// O release retornado deve ser chamado exatamente uma vez.
func (s slots) acquire(ctx context.Context, timeout time.Duration) (func(), bool) {
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}
	select {
	case s <- struct{}{}:
		return func() { <-s }, true
	case <-ctx.Done():
		return nil, false
	}
}

// ConcurrencyMiddleware limita requisições em andamento. Max <= 0 desliga.
func ConcurrencyMiddleware(opts ConcurrencyOptions) func(next http.Handler) http.Handler {
	if opts.Max <= 0 {
		return func(next http.Handler) http.Handler { return next }
	}
	if opts.RejectStatus == 0 {
		opts.RejectStatus = http.StatusServiceUnavailable
	}
	sem := make(slots, opts.Max)

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			release, ok := sem.acquire(r.Context(), opts.AcquireTimeout)
			if !ok {
				http.Error(w, http.StatusText(opts.RejectStatus), opts.RejectStatus)
				return
			}
			defer release()

			next.ServeHTTP(w, r)
		})
	}
}
