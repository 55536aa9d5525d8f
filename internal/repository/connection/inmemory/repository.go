package inmemory

import (
	"log/slog"
	"slices"
	"sync"

	"github.com/mediaviewer/server/internal/repository/connection"
	"golang.org/x/exp/maps"
)

type repo struct {
	conns  map[string]connection.Conn
	order  map[string]int
	seq    int
	mu     sync.RWMutex
	logger *slog.Logger
}

func NewRepo(logger *slog.Logger) *repo {
	return &repo{
		conns:  make(map[string]connection.Conn),
		order:  make(map[string]int),
		logger: logger,
	}
}

func (r *repo) Add(conn connection.Conn) error {
	funcName := "connection.inmemory.Add"
	r.mu.Lock()
	defer r.mu.Unlock()

	r.logger.Debug(funcName, "conn_id", conn.ID(), "role", conn.Role())
	if _, ok := r.conns[conn.ID()]; ok {
		r.logger.Info(funcName, "error", connection.ErrAlreadyExists)
		return connection.ErrAlreadyExists
	}

	r.seq++
	r.conns[conn.ID()] = conn
	r.order[conn.ID()] = r.seq

	r.logger.Debug(funcName, "result", "OK")
	return nil
}

func (r *repo) Remove(id string) error {
	funcName := "connection.inmemory.Remove"
	r.mu.Lock()
	defer r.mu.Unlock()

	r.logger.Debug(funcName, "conn_id", id)
	if _, ok := r.conns[id]; !ok {
		r.logger.Info(funcName, "error", connection.ErrNotFound)
		return connection.ErrNotFound
	}

	delete(r.conns, id)
	delete(r.order, id)

	r.logger.Debug(funcName, "result", "OK")
	return nil
}

func (r *repo) Get(id string) (connection.Conn, error) {
	funcName := "connection.inmemory.Get"
	r.mu.RLock()
	defer r.mu.RUnlock()

	r.logger.Debug(funcName, "conn_id", id)
	conn, ok := r.conns[id]
	if !ok {
		r.logger.Info(funcName, "error", connection.ErrNotFound)
		return nil, connection.ErrNotFound
	}

	return conn, nil
}

// ListByRole returns the connections with role in the order they were added.
func (r *repo) ListByRole(role connection.Role) []connection.Conn {
	r.mu.RLock()
	defer r.mu.RUnlock()

	ids := maps.Keys(r.conns)
	slices.SortFunc(ids, func(a, b string) int {
		return r.order[a] - r.order[b]
	})

	conns := make([]connection.Conn, 0, len(ids))
	for _, id := range ids {
		if c := r.conns[id]; c.Role() == role {
			conns = append(conns, c)
		}
	}
	return conns
}

func (r *repo) Count(role connection.Role) int {
	return len(r.ListByRole(role))
}
