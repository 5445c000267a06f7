package infra

import (
	"fmt"
	"os"
	"strings"
	"time"

	"todo-service/todo/domain"

	"gopkg.in/yaml.v3"
)

// SeedFile é o formato do arquivo de seed:
//
//	todos:
//	  - title: comprar leite
//	    body: "2%"
//	    created_at: "2024-05-17T10:30:00-03:00" # opcional
type SeedFile struct {
	Todos []SeedTodo `yaml:"todos"`
}

type SeedTodo struct {
	Title     string  `yaml:"title"`
	Body      *string `yaml:"body"`
	CreatedAt string  `yaml:"created_at"`
}

// LoadSeedFile lê e valida o arquivo. Linhas sem created_at recebem now,
// capturado uma vez pelo chamador.
func LoadSeedFile(path string, now time.Time) ([]domain.NewTodo, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read seed file: %w", err)
	}
	return ParseSeed(data, now)
}

// SeedFromFile adia a leitura de path até EnsureSchema encontrar a tabela
// vazia. Com a tabela populada o arquivo nem é aberto, então um seed quebrado
// não impede o startup.
func SeedFromFile(path string, now time.Time) Seeder {
	return func() ([]domain.NewTodo, error) {
		return LoadSeedFile(path, now)
	}
}

func ParseSeed(data []byte, now time.Time) ([]domain.NewTodo, error) {
	var f SeedFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse seed file: %w", err)
	}

	out := make([]domain.NewTodo, 0, len(f.Todos))
	for i, st := range f.Todos {
		if strings.TrimSpace(st.Title) == "" {
			return nil, fmt.Errorf("seed todo %d: %w", i, domain.ErrEmptyTitle)
		}
		t := domain.NewTodo{
			Title:     st.Title,
			Body:      st.Body,
			CreatedAt: domain.TimestampOf(now),
		}
		if st.CreatedAt != "" {
			ts, err := domain.ParseTimestamp(st.CreatedAt)
			if err != nil {
				return nil, fmt.Errorf("seed todo %d: %w: %v", i, domain.ErrTimestampParse, err)
			}
			t.CreatedAt = ts
		}
		out = append(out, t)
	}
	return out, nil
}
