package todo

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"todo-service/todo/application"
	"todo-service/todo/domain"
)

// Service é o que o handler consome da camada application.
type Service interface {
	Get(ctx context.Context, id domain.ID) (domain.Todo, error)
	Create(ctx context.Context, req application.CreateRequest) (domain.ID, error)
	List(ctx context.Context) ([]domain.Todo, error)
}

type todoView struct {
	ID        int64   `json:"id"`
	Title     string  `json:"title"`
	Body      string  `json:"body"`
	CreatedAt *string `json:"created_at"`
}

type getResponse struct {
	Todo todoView `json:"todo"`
}

type listResponse struct {
	Todos []todoView `json:"todos"`
}

type createRequest struct {
	Title *string `json:"title"`
	Body  *string `json:"body"`
}

type createResponse struct {
	ID int64 `json:"id"`
}

type errorResponse struct {
	Error string `json:"error"`
}

type handler struct {
	svc    Service
	logger *slog.Logger
}

// NewHandler registra as rotas do serviço num ServeMux novo. O chamador pode
// acrescentar rotas (ex: /stats) antes de aplicar os middlewares.
func NewHandler(svc Service, logger *slog.Logger) *http.ServeMux {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	h := &handler{svc: svc, logger: logger}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /health", h.health)
	mux.HandleFunc("GET /todo/{id}", h.getTodo)
	mux.HandleFunc("GET /todo", h.listTodos)
	mux.HandleFunc("POST /todo", h.postTodo)
	return mux
}

func (h *handler) health(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("OK!!"))
}

func (h *handler) getTodo(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil || id <= 0 {
		h.writeError(w, r, domain.E(domain.KindValidation, "todo.get", domain.ErrInvalidID))
		return
	}

	t, err := h.svc.Get(r.Context(), domain.ID(id))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.write(w, r, http.StatusOK, getResponse{Todo: viewOf(t)})
}

func (h *handler) listTodos(w http.ResponseWriter, r *http.Request) {
	todos, err := h.svc.List(r.Context())
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	views := make([]todoView, 0, len(todos))
	for _, t := range todos {
		views = append(views, viewOf(t))
	}
	h.write(w, r, http.StatusOK, listResponse{Todos: views})
}

func (h *handler) postTodo(w http.ResponseWriter, r *http.Request) {
	var req createRequest
	if err := decodeBody(w, r, &req); err != nil {
		h.writeError(w, r, domain.E(domain.KindValidation, "todo.create", errors.New("malformed request body")))
		return
	}

	in := application.CreateRequest{Body: req.Body}
	if req.Title != nil {
		in.Title = *req.Title
	}
	id, err := h.svc.Create(r.Context(), in)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.write(w, r, http.StatusOK, createResponse{ID: int64(id)})
}

func (h *handler) write(w http.ResponseWriter, r *http.Request, status int, v any) {
	if err := writeBody(w, r, status, v); err != nil {
		h.logger.ErrorContext(r.Context(), "write response", "error", err)
	}
}

// writeError é o único ponto que traduz domain.Kind em status. Erros internos
// vão para o log com a operação; o cliente recebe só a mensagem genérica.
func (h *handler) writeError(w http.ResponseWriter, r *http.Request, err error) {
	kind := domain.KindOf(err)
	status := statusFor(kind)

	msg := http.StatusText(status)
	switch kind {
	case domain.KindValidation, domain.KindNotFound:
		msg = causeOf(err).Error()
	default:
		h.logger.ErrorContext(r.Context(), "todo request failed",
			"method", r.Method,
			"path", r.URL.Path,
			"kind", kind.String(),
			"error", err,
		)
	}
	h.write(w, r, status, errorResponse{Error: msg})
}

func statusFor(kind domain.Kind) int {
	switch kind {
	case domain.KindValidation:
		return http.StatusBadRequest
	case domain.KindNotFound:
		return http.StatusNotFound
	case domain.KindPool:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// causeOf devolve o erro embrulhado pelo *domain.Error, sem o prefixo da operação.
func causeOf(err error) error {
	var e *domain.Error
	if errors.As(err, &e) && e.Err != nil {
		return e.Err
	}
	return err
}

func viewOf(t domain.Todo) todoView {
	v := todoView{ID: int64(t.ID), Title: t.Title, Body: t.Body}
	if t.CreatedAt.Valid {
		s := t.CreatedAt.Format()
		v.CreatedAt = &s
	}
	return v
}
