// Package state keeps the client's view of its jobs: the job being worked
// on, a bounded most-recent-first history and the pair of local images
// picked for the next submission. Nothing here is persisted.
package state

import (
	"sync"

	"github.com/dmitrijs2005/draped/internal/client/models"
)

// MaxRecentJobs bounds the history kept by AddJob.
const MaxRecentJobs = 50

// Previews are the local file paths of the selected photo and garment.
type Previews struct {
	Photo   string
	Garment string
}

type Store struct {
	mu       sync.RWMutex
	current  *models.Job
	recent   []models.Job
	previews Previews
}

func NewStore() *Store {
	return &Store{}
}

// SetCurrentJob replaces the current job; nil clears it.
func (s *Store) SetCurrentJob(j *models.Job) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if j == nil {
		s.current = nil
		return
	}
	c := *j
	s.current = &c
}

func (s *Store) CurrentJob() (models.Job, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.current == nil {
		return models.Job{}, false
	}
	return *s.current, true
}

// AddJob puts j at the front of the history, dropping the oldest entries
// beyond MaxRecentJobs.
func (s *Store) AddJob(j models.Job) {
	s.mu.Lock()
	defer s.mu.Unlock()

	recent := make([]models.Job, 0, min(len(s.recent)+1, MaxRecentJobs))
	recent = append(recent, j)
	for _, r := range s.recent {
		if len(recent) == MaxRecentJobs {
			break
		}
		recent = append(recent, r)
	}
	s.recent = recent
}

// RecentJobs returns a copy of the history, most recent first.
func (s *Store) RecentJobs() []models.Job {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]models.Job, len(s.recent))
	copy(out, s.recent)
	return out
}

// Job looks id up in the current job, then in the history.
func (s *Store) Job(id string) (models.Job, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.current != nil && s.current.ID == id {
		return *s.current, true
	}
	for _, j := range s.recent {
		if j.ID == id {
			return j, true
		}
	}
	return models.Job{}, false
}

// UpdateJobStatus merges patch into the current job and the history entry
// with the given id. Unknown ids and jobs already in a terminal status are
// left alone. It reports whether anything changed.
func (s *Store) UpdateJobStatus(id string, patch models.JobPatch) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	changed := false
	if s.current != nil && s.current.ID == id && !s.current.Status.IsTerminal() {
		j := patch.Apply(*s.current)
		s.current = &j
		changed = true
	}
	for i := range s.recent {
		if s.recent[i].ID == id && !s.recent[i].Status.IsTerminal() {
			s.recent[i] = patch.Apply(s.recent[i])
			changed = true
		}
	}
	return changed
}

func (s *Store) SetPreviews(photo, garment string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.previews = Previews{Photo: photo, Garment: garment}
}

func (s *Store) Previews() Previews {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.previews
}

func (s *Store) ClearPreviews() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.previews = Previews{}
}

// Reset clears the current job and previews. History is kept.
func (s *Store) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.current = nil
	s.previews = Previews{}
}
