package rest

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/gofrs/uuid/v5"

	"showcase/core/profile/domain"
)

// memoryStore is an in-memory ProfileReadStore and ProfileWriteStore.
type memoryStore struct {
	mu       sync.Mutex
	rows     []domain.GitHubProfile
	inserts  int
	writeErr error
	now      time.Time
}

func (s *memoryStore) CreateProfile(_ context.Context, p *domain.CreateProfileParams) (*domain.GitHubProfile, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.inserts++
	if s.writeErr != nil {
		return nil, s.writeErr
	}
	for _, r := range s.rows {
		if r.Login == p.Login {
			return nil, &domain.ConstraintError{
				Kind:       domain.ErrDuplicateProfile,
				Constraint: "github_profiles_login_key",
				Column:     "login",
				Cause:      errors.New("unique violation"),
			}
		}
	}
	s.now = s.now.Add(time.Second)
	row := domain.GitHubProfile{
		ID:          p.ID,
		Login:       p.Login,
		Name:        p.Name,
		AvatarURL:   p.AvatarURL,
		Bio:         p.Bio,
		Followers:   p.Followers,
		Following:   p.Following,
		PublicRepos: p.PublicRepos,
		CreatedAt:   s.now,
	}
	s.rows = append(s.rows, row)
	return &row, nil
}

func (s *memoryStore) GetProfileByLogin(_ context.Context, login string) (*domain.GitHubProfile, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, r := range s.rows {
		if r.Login == login {
			return &r, nil
		}
	}
	return nil, domain.ErrProfileNotFound
}

func (s *memoryStore) sorted() []domain.GitHubProfile {
	out := append([]domain.GitHubProfile(nil), s.rows...)
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].ID.String() > out[j].ID.String()
	})
	return out
}

func (s *memoryStore) ListProfilesFirstPage(_ context.Context, limit int) ([]domain.GitHubProfile, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := s.sorted()
	return out[:min(limit, len(out))], nil
}

func (s *memoryStore) ListProfilesAfter(_ context.Context, at time.Time, id uuid.UUID, limit int) ([]domain.GitHubProfile, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []domain.GitHubProfile
	for _, r := range s.sorted() {
		if r.CreatedAt.Before(at) || (r.CreatedAt.Equal(at) && r.ID.String() < id.String()) {
			out = append(out, r)
		}
	}
	return out[:min(limit, len(out))], nil
}

type fakeHealth struct{ err error }

func (f fakeHealth) HealthCheck(context.Context) error { return f.err }
