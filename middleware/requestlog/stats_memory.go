package requestlog

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
)

// Counters conta respostas por classe de status.
type Counters map[string]int64

// Snapshot é o que GET /stats devolve. Gauges são lidos na hora do snapshot.
type Snapshot struct {
	Total   Counters            `json:"total"`
	ByRoute map[string]Counters `json:"by_route"`
	Gauges  map[string]int64    `json:"gauges,omitempty"`
}

// MemoryStatsStore guarda os contadores em memória, sem expiração.
// Útil em desenvolvimento e testes; some quando o processo reinicia.
type MemoryStatsStore struct {
	mu      sync.Mutex
	total   Counters
	byRoute map[string]Counters
	gauges  map[string]func() int
}

func NewMemoryStatsStore() *MemoryStatsStore {
	return &MemoryStatsStore{
		total:   make(Counters),
		byRoute: make(map[string]Counters),
		gauges:  make(map[string]func() int),
	}
}

// Gauge publica o valor de fn no snapshot sob name (ex: buckets de rate limit vivos).
func (s *MemoryStatsStore) Gauge(name string, fn func() int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.gauges[name] = fn
}

func (s *MemoryStatsStore) Record(_ context.Context, ev Event) error {
	class := ev.StatusClass()

	s.mu.Lock()
	defer s.mu.Unlock()

	s.total[class]++
	c, ok := s.byRoute[ev.Route]
	if !ok {
		c = make(Counters)
		s.byRoute[ev.Route] = c
	}
	c[class]++
	return nil
}

// Snapshot devolve uma cópia dos contadores.
func (s *MemoryStatsStore) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := Snapshot{
		Total:   make(Counters, len(s.total)),
		ByRoute: make(map[string]Counters, len(s.byRoute)),
	}
	for k, v := range s.total {
		out.Total[k] = v
	}
	for route, c := range s.byRoute {
		cc := make(Counters, len(c))
		for k, v := range c {
			cc[k] = v
		}
		out.ByRoute[route] = cc
	}
	if len(s.gauges) > 0 {
		out.Gauges = make(map[string]int64, len(s.gauges))
		for name, fn := range s.gauges {
			out.Gauges[name] = int64(fn())
		}
	}
	return out
}

// Handler serve o Snapshot em JSON.
func (s *MemoryStatsStore) Handler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(s.Snapshot())
	})
}
