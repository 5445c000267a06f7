package ratelimit

import (
	"math"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// DefaultIdleTTL é quanto um bucket parado sobrevive antes de ser descartado.
const DefaultIdleTTL = 15 * time.Minute

// Buckets guarda um token bucket por (rota, cliente). Rotas não dividem
// saldo: esgotar POST /todo não afeta outra rota limitada do mesmo cliente.
//
// Buckets parados há mais de idleTTL somem durante o próprio Take; não há
// goroutine de limpeza.
type Buckets struct {
	limit   rate.Limit
	burst   int
	idleTTL time.Duration
	now     func() time.Time

	mu        sync.Mutex
	byKey     map[bucketKey]*bucket
	lastSweep time.Time
}

type bucketKey struct {
	route  string
	client string
}

type bucket struct {
	lim     *rate.Limiter
	touched time.Time
}

// Verdict é a decisão de Take para uma requisição.
type Verdict struct {
	Allowed bool
	// Remaining é o saldo inteiro após consumir o token.
	Remaining int
	// RetryIn é a espera até o próximo token quando Allowed é false.
	RetryIn time.Duration
}

// RetryAfterSeconds arredonda RetryIn para cima, mínimo 1.
func (v Verdict) RetryAfterSeconds() int {
	s := int(math.Ceil(v.RetryIn.Seconds()))
	if s < 1 {
		return 1
	}
	return s
}

// NewBuckets cria buckets de rps tokens/s com capacidade burst. idleTTL <= 0
// usa DefaultIdleTTL.
func NewBuckets(rps float64, burst int, idleTTL time.Duration) *Buckets {
	if idleTTL <= 0 {
		idleTTL = DefaultIdleTTL
	}
	return &Buckets{
		limit:   rate.Limit(rps),
		burst:   burst,
		idleTTL: idleTTL,
		now:     time.Now,
		byKey:   make(map[bucketKey]*bucket),
	}
}

func (b *Buckets) Burst() int { return b.burst }

// Len conta os buckets vivos. Vai para o /stats como gauge.
func (b *Buckets) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.byKey)
}

// Take consome um token do bucket (route, client). Sem saldo, nada é
// consumido e RetryIn diz quanto esperar.
func (b *Buckets) Take(route, client string) Verdict {
	now := b.now()

	b.mu.Lock()
	defer b.mu.Unlock()

	b.sweepLocked(now)

	k := bucketKey{route: route, client: client}
	bk, ok := b.byKey[k]
	if !ok {
		bk = &bucket{lim: rate.NewLimiter(b.limit, b.burst)}
		b.byKey[k] = bk
	}
	bk.touched = now

	res := bk.lim.ReserveN(now, 1)
	if !res.OK() {
		// burst 0: nunca libera
		return Verdict{RetryIn: b.idleTTL}
	}
	if wait := res.DelayFrom(now); wait > 0 {
		res.CancelAt(now)
		return Verdict{RetryIn: wait}
	}
	return Verdict{Allowed: true, Remaining: int(bk.lim.TokensAt(now))}
}

func (b *Buckets) sweepLocked(now time.Time) {
	if now.Sub(b.lastSweep) < b.idleTTL {
		return
	}
	for k, bk := range b.byKey {
		if now.Sub(bk.touched) >= b.idleTTL {
			delete(b.byKey, k)
		}
	}
	b.lastSweep = now
}
