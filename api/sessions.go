package api

import (
	"context"
	"net/http"
	"sync"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"

	"roofquote/core/workflow"
	"roofquote/internal/errors"
	"roofquote/internal/logging"
)

// session holds the latest committed snapshot of one workflow. Transitions on
// the same session are serialized by mu; readers only take snapMu, so a GET
// never waits on a renderer or sender call in flight.
type session struct {
	mu sync.Mutex

	snapMu sync.RWMutex
	snap   workflow.Snapshot
}

func (sess *session) load() workflow.Snapshot {
	sess.snapMu.RLock()
	defer sess.snapMu.RUnlock()
	return sess.snap
}

func (sess *session) commit(snap workflow.Snapshot) {
	sess.snapMu.Lock()
	sess.snap = snap
	sess.snapMu.Unlock()
}

type sessionStore struct {
	mu       sync.RWMutex
	sessions map[string]*session
}

func newSessionStore() *sessionStore {
	return &sessionStore{sessions: make(map[string]*session)}
}

func (st *sessionStore) create(id string) (workflow.Snapshot, error) {
	st.mu.Lock()
	defer st.mu.Unlock()
	if _, ok := st.sessions[id]; ok {
		return workflow.Snapshot{}, errors.Newf(errors.TypeInvalidTransition, "session %s already exists", id)
	}
	snap := workflow.Start(id)
	st.sessions[id] = &session{snap: snap}
	return snap, nil
}

func (st *sessionStore) get(id string) (*session, error) {
	st.mu.RLock()
	defer st.mu.RUnlock()
	sess, ok := st.sessions[id]
	if !ok {
		return nil, errors.NotFound("session", id)
	}
	return sess, nil
}

type transitionFunc func(ctx context.Context, snap workflow.Snapshot) (workflow.Snapshot, error)

// transition runs fn against the session's snapshot and keeps whatever
// snapshot comes back. On failure the workflow hands back the snapshot it was
// given, so the stored state is unchanged.
func (s *Server) transition(w http.ResponseWriter, r *http.Request, fn transitionFunc) {
	id := chi.URLParam(r, "id")
	sess, err := s.sessions.get(id)
	if err != nil {
		s.fail(w, err)
		return
	}

	ctx := r.Context()
	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	sess.mu.Lock()
	defer sess.mu.Unlock()

	prev := sess.load()
	next, err := fn(ctx, prev)
	sess.commit(next)
	if err != nil {
		s.fail(w, err)
		return
	}
	logging.ForSession(s.logger, id, middleware.GetReqID(r.Context())).
		Debug("session updated", logging.Transition(prev.State, next.State))
	s.writeJSON(w, sessionResponse(next), http.StatusOK)
}

func sessionResponse(snap workflow.Snapshot) SessionResponse {
	return SessionResponse{Snapshot: snap, Terminal: snap.State.IsTerminal()}
}

// handleCreateSession handles POST /v1/sessions
func (s *Server) handleCreateSession(w http.ResponseWriter, r *http.Request) {
	var req SessionRequest
	if r.ContentLength != 0 {
		if err := decode(r, &req); err != nil {
			s.fail(w, err)
			return
		}
	}
	if req.SessionID == "" {
		req.SessionID = uuid.New().String()
	}

	snap, err := s.sessions.create(req.SessionID)
	if err != nil {
		s.fail(w, err)
		return
	}
	s.logger.Debug("session created", logging.SessionID(snap.SessionID))
	s.writeJSON(w, sessionResponse(snap), http.StatusCreated)
}

// handleGetSession handles GET /v1/sessions/{id}
func (s *Server) handleGetSession(w http.ResponseWriter, r *http.Request) {
	sess, err := s.sessions.get(chi.URLParam(r, "id"))
	if err != nil {
		s.fail(w, err)
		return
	}
	s.writeJSON(w, sessionResponse(sess.load()), http.StatusOK)
}

func (s *Server) handleSubmitMeasurements(w http.ResponseWriter, r *http.Request) {
	in := s.calc.Defaults()
	if err := decode(r, &in); err != nil {
		s.fail(w, err)
		return
	}
	s.transition(w, r, func(ctx context.Context, snap workflow.Snapshot) (workflow.Snapshot, error) {
		return s.flow.SubmitMeasurements(ctx, snap, in)
	})
}

func (s *Server) handleSelectTier(w http.ResponseWriter, r *http.Request) {
	var req SelectTierRequest
	if err := decode(r, &req); err != nil {
		s.fail(w, err)
		return
	}
	s.transition(w, r, func(_ context.Context, snap workflow.Snapshot) (workflow.Snapshot, error) {
		return s.flow.SelectTier(snap, req.Tier)
	})
}

func (s *Server) handleGenerateProposal(w http.ResponseWriter, r *http.Request) {
	var req ProposalRequest
	if err := decode(r, &req); err != nil {
		s.fail(w, err)
		return
	}
	s.transition(w, r, func(ctx context.Context, snap workflow.Snapshot) (workflow.Snapshot, error) {
		return s.flow.GenerateProposal(ctx, snap, req.ScopeOfWork)
	})
}

func (s *Server) handleSendProposal(w http.ResponseWriter, r *http.Request) {
	var req SendRequest
	if err := decode(r, &req); err != nil {
		s.fail(w, err)
		return
	}
	s.transition(w, r, func(ctx context.Context, snap workflow.Snapshot) (workflow.Snapshot, error) {
		return s.flow.SendProposal(ctx, snap, req.Recipient)
	})
}

func (s *Server) handleReviseMeasurements(w http.ResponseWriter, r *http.Request) {
	s.transition(w, r, func(_ context.Context, snap workflow.Snapshot) (workflow.Snapshot, error) {
		return s.flow.ReviseMeasurements(snap)
	})
}

func (s *Server) handleReviseTier(w http.ResponseWriter, r *http.Request) {
	s.transition(w, r, func(_ context.Context, snap workflow.Snapshot) (workflow.Snapshot, error) {
		return s.flow.ReviseTier(snap)
	})
}

func (s *Server) handleAbandon(w http.ResponseWriter, r *http.Request) {
	s.transition(w, r, func(_ context.Context, snap workflow.Snapshot) (workflow.Snapshot, error) {
		return s.flow.Abandon(snap)
	})
}
