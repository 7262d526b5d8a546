package api

import "sync"

// GenerationStore keeps finished generations for later retrieval. When max is
// positive the oldest entries are evicted past that count.
type GenerationStore struct {
	mu    sync.Mutex
	max   int
	order []string
	gens  map[string]GenerateResponse
}

func NewGenerationStore(max int) *GenerationStore {
	return &GenerationStore{
		max:  max,
		gens: make(map[string]GenerateResponse),
	}
}

func (s *GenerationStore) Save(resp GenerateResponse) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.gens[resp.ID]; !ok {
		s.order = append(s.order, resp.ID)
	}
	s.gens[resp.ID] = resp
	for s.max > 0 && len(s.order) > s.max {
		delete(s.gens, s.order[0])
		s.order = s.order[1:]
	}
}

func (s *GenerationStore) Get(id string) (GenerateResponse, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	resp, ok := s.gens[id]
	return resp, ok
}

func (s *GenerationStore) Delete(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.gens[id]; !ok {
		return false
	}
	delete(s.gens, id)
	for i, v := range s.order {
		if v == id {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
	return true
}

func (s *GenerationStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.gens)
}
