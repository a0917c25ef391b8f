package settings

import "sync"

// Store общее состояние настроек биллинга по пространствам.
// Живёт в памяти процесса: источник правды биллинг, сюда кладём то, что он вернул.
type Store struct {
	mu   sync.RWMutex
	byWS map[string]Settings
}

func NewStore() *Store {
	return &Store{byWS: make(map[string]Settings)}
}

func (s *Store) Get(workspaceID string) Settings {
	s.mu.RLock()
	defer s.mu.RUnlock()
	st := s.byWS[workspaceID]
	st.Balances = append([]Balance(nil), st.Balances...)
	return st
}

func (s *Store) SetOffer(workspaceID string, o Offer) {
	s.mu.Lock()
	defer s.mu.Unlock()
	st := s.byWS[workspaceID]
	st.Offer = o
	s.byWS[workspaceID] = st
}

func (s *Store) SetSigned(workspaceID string, signed bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	st := s.byWS[workspaceID]
	st.Offer.Signed = signed
	s.byWS[workspaceID] = st
}

func (s *Store) SetBalances(workspaceID string, balances []Balance) {
	s.mu.Lock()
	defer s.mu.Unlock()
	st := s.byWS[workspaceID]
	st.Balances = append([]Balance(nil), balances...)
	s.byWS[workspaceID] = st
}
