// =============================
// File: internal/mint/state.go
// =============================
package mint

import (
	"sync"
	"time"

	"github.com/rovshanmuradov/candy-minter/internal/candymachine"
)

// Snapshot – пара снимков, прочитанных одним вызовом Initialize.
type Snapshot struct {
	Machine   candymachine.Machine
	Guard     candymachine.Guard
	FetchedAt time.Time
}

// State хранит последний успешно прочитанный Snapshot.
// Обе части заменяются атомарно; до первой загрузки состояние пусто.
type State struct {
	mu   sync.RWMutex
	snap *Snapshot
}

// NewState создает пустое состояние
func NewState() *State {
	return &State{}
}

// Snapshot возвращает копию снимка и признак его наличия.
func (s *State) Snapshot() (Snapshot, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.snap == nil {
		return Snapshot{}, false
	}
	return *s.snap, true
}

// Store заменяет снимок целиком.
func (s *State) Store(machine candymachine.Machine, guard candymachine.Guard) {
	snap := &Snapshot{Machine: machine, Guard: guard, FetchedAt: time.Now()}
	s.mu.Lock()
	s.snap = snap
	s.mu.Unlock()
}
