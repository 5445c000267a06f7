package requestlog

import (
	"context"
	"time"
)

// Event descreve uma requisição já respondida.
//
// Route é o padrão do ServeMux (ex: "GET /todo/{id}"), não o path cru, para
// manter a cardinalidade baixa no Redis.
type Event struct {
	Method   string
	Route    string
	Status   int
	Duration time.Duration
	At       time.Time
}

// StatusClass agrupa o status em "2xx", "4xx", "5xx"...
func (e Event) StatusClass() string {
	if e.Status < 100 || e.Status > 599 {
		return "other"
	}
	return string(rune('0'+e.Status/100)) + "xx"
}

// StatsStore é a estratégia de persistência das estatísticas.
type StatsStore interface {
	Record(ctx context.Context, ev Event) error
}
