package server

import (
	"errors"
	"net/http"
	"sync"

	"github.com/google/uuid"
	"github.com/matst80/slask-filterset/pkg/common"
	"github.com/matst80/slask-filterset/pkg/filterset"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var ErrSessionNotFound = errors.New("session not found")

var activeSessions = promauto.NewGauge(prometheus.GaugeOpts{
	Name: "filterset_sessions",
	Help: "Filter set sessions held by the server",
})

type session struct {
	id         string
	controller *filterset.Controller
}

func (s *session) view() SessionView {
	return SessionView{Id: s.id, View: s.controller.View()}
}

type sessionStore struct {
	mu       sync.RWMutex
	sessions map[string]*session
}

func newSessionStore() *sessionStore {
	return &sessionStore{sessions: make(map[string]*session)}
}

func (st *sessionStore) add(c *filterset.Controller) *session {
	s := &session{id: uuid.New().String(), controller: c}
	st.mu.Lock()
	st.sessions[s.id] = s
	st.mu.Unlock()
	activeSessions.Inc()
	return s
}

func (st *sessionStore) get(id string) (*session, error) {
	st.mu.RLock()
	defer st.mu.RUnlock()
	s, ok := st.sessions[id]
	if !ok {
		return nil, common.WithStatus(http.StatusNotFound, ErrSessionNotFound)
	}
	return s, nil
}

func (st *sessionStore) remove(id string) bool {
	st.mu.Lock()
	defer st.mu.Unlock()
	if _, ok := st.sessions[id]; !ok {
		return false
	}
	delete(st.sessions, id)
	activeSessions.Dec()
	return true
}
