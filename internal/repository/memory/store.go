// Package memory is an in-process repository.Store used as a test double.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/ahmetcoskunkizilkaya/flancer-api/internal/models"
	"github.com/ahmetcoskunkizilkaya/flancer-api/internal/repository"
)

var _ repository.Store = (*Store)(nil)

type Store struct {
	mu       sync.RWMutex
	users    map[string]models.User
	projects map[string]models.Project
	tokens   map[string]models.RefreshToken
	logs     []models.SystemLog
	// PingErr is returned from Ping when set.
	PingErr error
}

func NewStore() *Store {
	return &Store{
		users:    make(map[string]models.User),
		projects: make(map[string]models.Project),
		tokens:   make(map[string]models.RefreshToken),
	}
}

func (s *Store) Users() repository.UserRepository                 { return (*userRepo)(s) }
func (s *Store) Projects() repository.ProjectRepository           { return (*projectRepo)(s) }
func (s *Store) RefreshTokens() repository.RefreshTokenRepository { return (*tokenRepo)(s) }
func (s *Store) Logs() repository.LogRepository                   { return (*logRepo)(s) }

func (s *Store) Ping(_ context.Context) error  { return s.PingErr }
func (s *Store) Close(_ context.Context) error { return nil }

// SystemLogs returns a copy of the stored logs.
func (s *Store) SystemLogs() []models.SystemLog {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]models.SystemLog(nil), s.logs...)
}

type userRepo Store

func (r *userRepo) Create(_ context.Context, user *models.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.users[user.ID]; ok {
		return repository.ErrDuplicate
	}
	for _, u := range r.users {
		if u.Email == user.Email {
			return repository.ErrDuplicate
		}
	}
	r.users[user.ID] = *user
	return nil
}

func (r *userRepo) FindByID(_ context.Context, id string) (*models.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	u, ok := r.users[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &u, nil
}

func (r *userRepo) FindByEmail(_ context.Context, email string) (*models.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, u := range r.users {
		if u.Email == email {
			return &u, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r *userRepo) UpdateProfile(_ context.Context, id string, update models.ProfileUpdate) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[id]
	if !ok {
		return false, nil
	}
	modified := false
	if update.Name != nil && u.Name != *update.Name {
		u.Name = *update.Name
		modified = true
	}
	if update.Bio != nil && (u.Bio == nil || *u.Bio != *update.Bio) {
		bio := *update.Bio
		u.Bio = &bio
		modified = true
	}
	r.users[id] = u
	return modified, nil
}

func (r *userRepo) UpdateImage(_ context.Context, id, image string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[id]
	if !ok || (u.Image != nil && *u.Image == image) {
		return false, nil
	}
	u.Image = &image
	r.users[id] = u
	return true, nil
}

func (r *userRepo) Delete(_ context.Context, id string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.users[id]; !ok {
		return false, nil
	}
	delete(r.users, id)
	return true, nil
}

type projectRepo Store

func (r *projectRepo) Insert(_ context.Context, project *models.Project) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.projects[project.ID]; ok {
		return repository.ErrDuplicate
	}
	r.projects[project.ID] = cloneProject(*project)
	return nil
}

func (r *projectRepo) FindByID(_ context.Context, id string) (*models.Project, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.projects[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	p = cloneProject(p)
	return &p, nil
}

func (r *projectRepo) List(_ context.Context, filter models.ProjectFilter) ([]models.Project, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]models.Project, 0)
	for _, p := range r.projects {
		if matches(p, filter) {
			out = append(out, cloneProject(p))
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})

	if filter.Skip >= len(out) {
		return []models.Project{}, nil
	}
	out = out[filter.Skip:]
	if filter.Limit > 0 && filter.Limit < len(out) {
		out = out[:filter.Limit]
	}
	return out, nil
}

func matches(p models.Project, f models.ProjectFilter) bool {
	if f.OwnerID != "" && p.UserID != f.OwnerID {
		return false
	}
	if f.MinBudget != nil && p.Budget < *f.MinBudget {
		return false
	}
	if f.MaxBudget != nil && p.Budget > *f.MaxBudget {
		return false
	}
	if len(f.TechStack) == 0 {
		return true
	}
	for _, want := range f.TechStack {
		for _, have := range p.TechStack {
			if want == have {
				return true
			}
		}
	}
	return false
}

func (r *projectRepo) mutate(id string, fn func(p *models.Project) bool) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.projects[id]
	if !ok {
		return false, nil
	}
	if !fn(&p) {
		return false, nil
	}
	r.projects[id] = p
	return true, nil
}

func (r *projectRepo) Update(_ context.Context, id string, update models.ProjectUpdate) (bool, error) {
	return r.mutate(id, func(p *models.Project) bool {
		modified := false
		if update.Title != nil && p.Title != *update.Title {
			p.Title, modified = *update.Title, true
		}
		if update.Description != nil && p.Description != *update.Description {
			p.Description, modified = *update.Description, true
		}
		if update.Budget != nil && p.Budget != *update.Budget {
			p.Budget, modified = *update.Budget, true
		}
		if update.TechStack != nil && !equalStrings(p.TechStack, update.TechStack) {
			p.TechStack, modified = append([]string{}, update.TechStack...), true
		}
		if update.Images != nil && !equalStrings(p.Images, update.Images) {
			p.Images, modified = append([]string{}, update.Images...), true
		}
		return modified
	})
}

func (r *projectRepo) SetStatus(_ context.Context, id string, status models.ProjectStatus) (bool, error) {
	return r.mutate(id, func(p *models.Project) bool {
		if p.Status == status {
			return false
		}
		p.Status = status
		return true
	})
}

func (r *projectRepo) AddLike(_ context.Context, id, userID string) (bool, error) {
	return r.mutate(id, func(p *models.Project) bool {
		if p.LikedBy(userID) {
			return false
		}
		p.Likes = append(append([]string{}, p.Likes...), userID)
		return true
	})
}

func (r *projectRepo) RemoveLike(_ context.Context, id, userID string) (bool, error) {
	return r.mutate(id, func(p *models.Project) bool {
		kept := make([]string, 0, len(p.Likes))
		for _, l := range p.Likes {
			if l != userID {
				kept = append(kept, l)
			}
		}
		if len(kept) == len(p.Likes) {
			return false
		}
		p.Likes = kept
		return true
	})
}

func (r *projectRepo) AppendComment(_ context.Context, id string, comment models.Comment) (bool, error) {
	return r.mutate(id, func(p *models.Project) bool {
		p.Comments = append(append([]models.Comment{}, p.Comments...), comment)
		return true
	})
}

func (r *projectRepo) Delete(_ context.Context, id string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.projects[id]; !ok {
		return false, nil
	}
	delete(r.projects, id)
	return true, nil
}

type tokenRepo Store

func (r *tokenRepo) Create(_ context.Context, token *models.RefreshToken) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.tokens[token.TokenHash]; ok {
		return repository.ErrDuplicate
	}
	r.tokens[token.TokenHash] = *token
	return nil
}

func (r *tokenRepo) FindActive(_ context.Context, tokenHash string) (*models.RefreshToken, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	t, ok := r.tokens[tokenHash]
	if !ok || t.Revoked {
		return nil, repository.ErrNotFound
	}
	return &t, nil
}

func (r *tokenRepo) Revoke(_ context.Context, tokenHash string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if t, ok := r.tokens[tokenHash]; ok {
		t.Revoked = true
		r.tokens[tokenHash] = t
	}
	return nil
}

func (r *tokenRepo) DeleteForUser(_ context.Context, userID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for hash, t := range r.tokens {
		if t.UserID == userID {
			delete(r.tokens, hash)
		}
	}
	return nil
}

type logRepo Store

func (r *logRepo) InsertLogs(_ context.Context, logs []models.SystemLog) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.logs = append(r.logs, logs...)
	return nil
}

func (r *logRepo) DeleteLogsBefore(_ context.Context, cutoff time.Time) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	kept := r.logs[:0]
	var deleted int64
	for _, l := range r.logs {
		if l.Timestamp.Before(cutoff) {
			deleted++
			continue
		}
		kept = append(kept, l)
	}
	r.logs = kept
	return deleted, nil
}

func cloneProject(p models.Project) models.Project {
	p.TechStack = append([]string(nil), p.TechStack...)
	p.Images = append([]string(nil), p.Images...)
	p.Likes = append([]string(nil), p.Likes...)
	p.Comments = append([]models.Comment(nil), p.Comments...)
	return p
}

func equalStrings(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
