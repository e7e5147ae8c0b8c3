package memory

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"github.com/rigsync/backend/internal/domain"
)

// SessionStore holds import sessions, their rows and candidates. Values are
// copied on the way in and out so callers never share state with the store.
type SessionStore struct {
	sessions   map[uuid.UUID]domain.ImportSession
	rows       map[uuid.UUID][]domain.ImportRow
	candidates map[uuid.UUID][]domain.MatchCandidate
	mutex      sync.RWMutex
}

func NewSessionStore() *SessionStore {
	return &SessionStore{
		sessions:   make(map[uuid.UUID]domain.ImportSession),
		rows:       make(map[uuid.UUID][]domain.ImportRow),
		candidates: make(map[uuid.UUID][]domain.MatchCandidate),
	}
}

func (s *SessionStore) CreateSession(ctx context.Context, session *domain.ImportSession) error {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	if session.ID == uuid.Nil {
		session.ID = uuid.New()
	}
	if _, exists := s.sessions[session.ID]; exists {
		return domain.ErrDuplicateKey
	}
	s.sessions[session.ID] = copySession(*session)
	return nil
}

func (s *SessionStore) FindSession(ctx context.Context, id uuid.UUID) (*domain.ImportSession, error) {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	session, ok := s.sessions[id]
	if !ok {
		return nil, domain.ErrSessionNotFound
	}
	out := copySession(session)
	return &out, nil
}

func (s *SessionStore) UpdateSession(ctx context.Context, session *domain.ImportSession) error {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	if _, ok := s.sessions[session.ID]; !ok {
		return domain.ErrSessionNotFound
	}
	s.sessions[session.ID] = copySession(*session)
	return nil
}

func (s *SessionStore) ReplaceRows(ctx context.Context, sessionID uuid.UUID, rows []domain.ImportRow) error {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	if _, ok := s.sessions[sessionID]; !ok {
		return domain.ErrSessionNotFound
	}
	for _, old := range s.rows[sessionID] {
		delete(s.candidates, old.ID)
	}

	stored := make([]domain.ImportRow, len(rows))
	for i := range rows {
		if rows[i].ID == uuid.Nil {
			rows[i].ID = uuid.New()
		}
		rows[i].SessionID = sessionID
		stored[i] = copyRow(rows[i])
	}
	s.rows[sessionID] = stored
	return nil
}

// ListRows returns rows in staging order without candidates
func (s *SessionStore) ListRows(ctx context.Context, sessionID uuid.UUID) ([]domain.ImportRow, error) {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	stored := s.rows[sessionID]
	out := make([]domain.ImportRow, len(stored))
	for i, row := range stored {
		out[i] = copyRow(row)
	}
	return out, nil
}

func (s *SessionStore) UpdateRow(ctx context.Context, row *domain.ImportRow) error {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	stored := s.rows[row.SessionID]
	for i := range stored {
		if stored[i].ID == row.ID {
			stored[i] = copyRow(*row)
			return nil
		}
	}
	return domain.ErrRowNotFound
}

func (s *SessionStore) ReplaceCandidates(ctx context.Context, rowID uuid.UUID, candidates []domain.MatchCandidate) error {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	if len(candidates) == 0 {
		delete(s.candidates, rowID)
		return nil
	}
	s.candidates[rowID] = append([]domain.MatchCandidate(nil), candidates...)
	return nil
}

func (s *SessionStore) ListCandidates(ctx context.Context, sessionID uuid.UUID) (map[uuid.UUID][]domain.MatchCandidate, error) {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	out := make(map[uuid.UUID][]domain.MatchCandidate)
	for _, row := range s.rows[sessionID] {
		if c, ok := s.candidates[row.ID]; ok {
			out[row.ID] = append([]domain.MatchCandidate(nil), c...)
		}
	}
	return out, nil
}

// rowState is the stored rows and candidates of one session
type rowState struct {
	rows       []domain.ImportRow
	candidates map[uuid.UUID][]domain.MatchCandidate
}

func (s *SessionStore) saveRows(sessionID uuid.UUID) rowState {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	state := rowState{candidates: make(map[uuid.UUID][]domain.MatchCandidate)}
	if stored, ok := s.rows[sessionID]; ok {
		state.rows = make([]domain.ImportRow, len(stored))
		for i, row := range stored {
			state.rows[i] = copyRow(row)
			if c, ok := s.candidates[row.ID]; ok {
				state.candidates[row.ID] = append([]domain.MatchCandidate(nil), c...)
			}
		}
	}
	return state
}

func (s *SessionStore) restoreRows(sessionID uuid.UUID, state rowState) {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	for _, row := range s.rows[sessionID] {
		delete(s.candidates, row.ID)
	}
	if state.rows == nil {
		delete(s.rows, sessionID)
	} else {
		s.rows[sessionID] = state.rows
	}
	for id, c := range state.candidates {
		s.candidates[id] = c
	}
}

func (s *SessionStore) rowCandidates(rowID uuid.UUID) []domain.MatchCandidate {
	s.mutex.RLock()
	defer s.mutex.RUnlock()
	return append([]domain.MatchCandidate(nil), s.candidates[rowID]...)
}

// restoreSession puts back session, or drops id when session is nil
func (s *SessionStore) restoreSession(id uuid.UUID, session *domain.ImportSession) {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	if session == nil {
		delete(s.sessions, id)
		return
	}
	s.sessions[id] = copySession(*session)
}

func copySession(session domain.ImportSession) domain.ImportSession {
	if session.CompletedAt != nil {
		completed := *session.CompletedAt
		session.CompletedAt = &completed
	}
	return session
}

// copyRow drops candidates; they are stored separately
func copyRow(row domain.ImportRow) domain.ImportRow {
	row.Candidates = nil
	if row.Price != nil {
		price := *row.Price
		row.Price = &price
	}
	if row.ProductID != nil {
		id := *row.ProductID
		row.ProductID = &id
	}
	return row
}
