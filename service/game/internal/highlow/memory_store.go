package highlow

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"
)

// MemoryStore tiene sessioni e round in memoria.
// Un mutex per sessione serializza InSession; sessioni diverse non si bloccano.
type MemoryStore struct {
	mu       sync.RWMutex
	sessions map[uuid.UUID]*memorySession
}

type memorySession struct {
	mu      sync.Mutex
	session Session
	rounds  []Round
}

// NewMemoryStore crea uno store vuoto.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{sessions: make(map[uuid.UUID]*memorySession)}
}

// InsertSession registra una nuova sessione.
func (m *MemoryStore) InsertSession(_ context.Context, session Session) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.sessions[session.ID]; ok {
		return fmt.Errorf("session %s already exists", session.ID)
	}
	m.sessions[session.ID] = &memorySession{session: session}
	return nil
}

// GetSession ritorna una copia della sessione.
func (m *MemoryStore) GetSession(_ context.Context, id uuid.UUID) (Session, error) {
	entry, ok := m.entry(id)
	if !ok {
		return Session{}, ErrSessionNotFound
	}
	entry.mu.Lock()
	defer entry.mu.Unlock()
	return entry.session, nil
}

// ListRounds ritorna una copia dello storico in ordine di numero.
func (m *MemoryStore) ListRounds(_ context.Context, sessionID uuid.UUID) ([]Round, error) {
	entry, ok := m.entry(sessionID)
	if !ok {
		return nil, ErrSessionNotFound
	}
	entry.mu.Lock()
	defer entry.mu.Unlock()
	out := make([]Round, len(entry.rounds))
	copy(out, entry.rounds)
	return out, nil
}

// Snapshot legge sessione e numero di round sotto il lock della sessione.
func (m *MemoryStore) Snapshot(_ context.Context, id uuid.UUID) (Snapshot, error) {
	entry, ok := m.entry(id)
	if !ok {
		return Snapshot{}, ErrSessionNotFound
	}
	entry.mu.Lock()
	defer entry.mu.Unlock()
	return Snapshot{Session: entry.session, RoundCount: len(entry.rounds)}, nil
}

// InSession tiene il lock della sessione per tutta fn e applica le
// scritture accumulate solo se fn ritorna nil.
func (m *MemoryStore) InSession(ctx context.Context, id uuid.UUID, fn func(tx SessionTx) error) error {
	entry, ok := m.entry(id)
	if !ok {
		return ErrSessionNotFound
	}
	entry.mu.Lock()
	defer entry.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return err
	}

	tx := &memoryTx{entry: entry, session: entry.session}
	if err := fn(tx); err != nil {
		return err
	}
	if tx.round != nil {
		entry.rounds = append(entry.rounds, *tx.round)
	}
	if tx.dirty {
		entry.session = tx.session
	}
	return nil
}

func (m *MemoryStore) entry(id uuid.UUID) (*memorySession, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	entry, ok := m.sessions[id]
	return entry, ok
}

type memoryTx struct {
	entry   *memorySession
	session Session
	dirty   bool
	round   *Round
}

func (t *memoryTx) Session() Session {
	return t.session
}

func (t *memoryTx) RoundCount(_ context.Context) (int, error) {
	return len(t.entry.rounds), nil
}

func (t *memoryTx) InsertRound(_ context.Context, round Round) error {
	if t.round != nil {
		return fmt.Errorf("round already staged for session %s", t.session.ID)
	}
	if round.Number != len(t.entry.rounds)+1 {
		return fmt.Errorf("round number %d out of sequence for session %s", round.Number, t.session.ID)
	}
	t.round = &round
	return nil
}

func (t *memoryTx) UpdateSession(_ context.Context, session Session) error {
	if session.ID != t.session.ID {
		return fmt.Errorf("session id mismatch: %s != %s", session.ID, t.session.ID)
	}
	t.session = session
	t.dirty = true
	return nil
}
