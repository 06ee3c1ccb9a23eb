package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/ahmetcoskunkizilkaya/flancer-api/internal/dto"
	"github.com/ahmetcoskunkizilkaya/flancer-api/internal/models"
	"github.com/ahmetcoskunkizilkaya/flancer-api/internal/repository"
	"github.com/google/uuid"
)

var (
	ErrProjectNotFound   = errors.New("project not found")
	ErrUpdateForbidden   = errors.New("not authorized to update this project")
	ErrDeleteForbidden   = errors.New("not authorized to delete this project")
	ErrProjectNotUpdated = errors.New("project not updated")
	ErrStatusNotUpdated  = errors.New("project status not updated")
	ErrCommentNotAdded   = errors.New("failed to add comment")
	ErrProjectNotDeleted = errors.New("project not deleted")
	ErrValidation        = errors.New("validation failed")
)

const (
	DefaultListLimit = 10
	MaxListLimit     = 100
	filteredComment  = "[content filtered]"
)

// UserLookup resolves comment authors during shaping.
type UserLookup interface {
	FindByID(ctx context.Context, id string) (*models.User, error)
}

type ProjectService struct {
	projects   repository.ProjectRepository
	users      UserLookup
	moderation *ModerationService
	now        func() time.Time
}

// NewProjectService creates a ProjectService. moderation may be nil to store
// comment text as submitted.
func NewProjectService(store repository.Store, moderation *ModerationService) *ProjectService {
	return &ProjectService{
		projects:   store.Projects(),
		users:      store.Users(),
		moderation: moderation,
		now:        time.Now,
	}
}

// Shape turns a stored project into its response form: likes become a count
// and each comment carries its author's current name and image. Comments whose
// author no longer exists are left out.
func (s *ProjectService) Shape(ctx context.Context, p *models.Project) (*dto.ProjectResponse, error) {
	authors := make(map[string]*models.User)
	comments := make([]dto.CommentResponse, 0, len(p.Comments))
	for _, c := range p.Comments {
		author, ok := authors[c.UserID]
		if !ok {
			u, err := s.users.FindByID(ctx, c.UserID)
			if err != nil && !errors.Is(err, repository.ErrNotFound) {
				return nil, fmt.Errorf("failed to load comment author: %w", err)
			}
			author = u
			authors[c.UserID] = u
		}
		if author == nil {
			continue
		}
		comments = append(comments, dto.CommentResponse{
			ID:        c.ID,
			Text:      c.Text,
			CreatedAt: c.CreatedAt,
			User: dto.CommentUser{
				ID:    author.ID,
				Name:  author.Name,
				Image: author.Image,
			},
		})
	}

	return &dto.ProjectResponse{
		ID:          p.ID,
		Title:       p.Title,
		Description: p.Description,
		Budget:      p.Budget,
		TechStack:   orEmpty(p.TechStack),
		Status:      p.Status,
		CreatedAt:   p.CreatedAt,
		UserID:      p.UserID,
		Images:      orEmpty(p.Images),
		Likes:       len(p.Likes),
		Comments:    comments,
	}, nil
}

func (s *ProjectService) shapeAll(ctx context.Context, projects []models.Project) ([]dto.ProjectResponse, error) {
	out := make([]dto.ProjectResponse, 0, len(projects))
	for i := range projects {
		shaped, err := s.Shape(ctx, &projects[i])
		if err != nil {
			return nil, err
		}
		out = append(out, *shaped)
	}
	return out, nil
}

// List returns projects newest first with the given filters applied by the store.
func (s *ProjectService) List(ctx context.Context, q dto.ProjectListQuery) ([]dto.ProjectResponse, error) {
	projects, err := s.projects.List(ctx, models.ProjectFilter{
		TechStack: q.TechStack,
		MinBudget: q.MinBudget,
		MaxBudget: q.MaxBudget,
		Skip:      q.Skip,
		Limit:     q.Limit,
	})
	if err != nil {
		return nil, err
	}
	return s.shapeAll(ctx, projects)
}

// ListByOwner returns every project owned by userID, newest first.
func (s *ProjectService) ListByOwner(ctx context.Context, userID string) ([]dto.ProjectResponse, error) {
	projects, err := s.projects.List(ctx, models.ProjectFilter{OwnerID: userID})
	if err != nil {
		return nil, err
	}
	return s.shapeAll(ctx, projects)
}

func (s *ProjectService) Get(ctx context.Context, id string) (*dto.ProjectResponse, error) {
	project, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}
	return s.Shape(ctx, project)
}

func (s *ProjectService) Create(ctx context.Context, ownerID string, req *dto.ProjectCreateRequest) (*dto.ProjectResponse, error) {
	if strings.TrimSpace(req.Title) == "" {
		return nil, fmt.Errorf("%w: title is required", ErrValidation)
	}
	if req.Budget == nil {
		return nil, fmt.Errorf("%w: budget is required", ErrValidation)
	}
	if *req.Budget < 0 {
		return nil, fmt.Errorf("%w: budget must not be negative", ErrValidation)
	}
	if req.TechStack == nil {
		return nil, fmt.Errorf("%w: tech_stack is required", ErrValidation)
	}

	project := &models.Project{
		ID:          uuid.NewString(),
		Title:       req.Title,
		Description: req.Description,
		Budget:      *req.Budget,
		TechStack:   req.TechStack,
		Status:      models.StatusOpen,
		CreatedAt:   s.now().UTC(),
		UserID:      ownerID,
		Images:      orEmpty(req.Images),
		Likes:       []string{},
		Comments:    []models.Comment{},
	}
	if err := s.projects.Insert(ctx, project); err != nil {
		return nil, fmt.Errorf("failed to create project: %w", err)
	}
	return s.refetch(ctx, project.ID)
}

// Update applies the fields present in req. Only the owner may update.
func (s *ProjectService) Update(ctx context.Context, callerID, id string, req *dto.ProjectUpdateRequest) (*dto.ProjectResponse, error) {
	project, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}
	if project.UserID != callerID {
		return nil, ErrUpdateForbidden
	}

	if req.Title != nil && strings.TrimSpace(*req.Title) == "" {
		return nil, fmt.Errorf("%w: title must not be empty", ErrValidation)
	}
	if req.Budget != nil && *req.Budget < 0 {
		return nil, fmt.Errorf("%w: budget must not be negative", ErrValidation)
	}

	update := models.ProjectUpdate{
		Title:       req.Title,
		Description: req.Description,
		Budget:      req.Budget,
		TechStack:   req.TechStack,
		Images:      req.Images,
	}
	if !update.Empty() {
		modified, err := s.projects.Update(ctx, id, update)
		if err != nil {
			return nil, fmt.Errorf("failed to update project: %w", err)
		}
		if !modified {
			return nil, ErrProjectNotUpdated
		}
	}
	return s.refetch(ctx, id)
}

// UpdateStatus sets the lifecycle status, COMPLETED when none is given.
func (s *ProjectService) UpdateStatus(ctx context.Context, id string, req *dto.ProjectStatusRequest) (*dto.ProjectResponse, error) {
	status := models.StatusCompleted
	if req != nil && req.Status != nil {
		status = *req.Status
	}
	if !status.Valid() {
		return nil, fmt.Errorf("%w: status must be OPEN or COMPLETED", ErrValidation)
	}

	if _, err := s.find(ctx, id); err != nil {
		return nil, err
	}
	modified, err := s.projects.SetStatus(ctx, id, status)
	if err != nil {
		return nil, fmt.Errorf("failed to update project status: %w", err)
	}
	if !modified {
		return nil, ErrStatusNotUpdated
	}
	return s.refetch(ctx, id)
}

// ToggleLike removes the caller from the likes set when present and adds it
// otherwise. Concurrent toggles by the same user are last-write-wins.
func (s *ProjectService) ToggleLike(ctx context.Context, callerID, id string) (*dto.LikeResponse, error) {
	project, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}

	liked := !project.LikedBy(callerID)
	if liked {
		_, err = s.projects.AddLike(ctx, id, callerID)
	} else {
		_, err = s.projects.RemoveLike(ctx, id, callerID)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to toggle like: %w", err)
	}

	updated, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}
	return &dto.LikeResponse{Liked: liked, Likes: len(updated.Likes)}, nil
}

func (s *ProjectService) LikeStatus(ctx context.Context, callerID, id string) (*dto.LikeResponse, error) {
	project, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}
	return &dto.LikeResponse{Liked: project.LikedBy(callerID), Likes: len(project.Likes)}, nil
}

// AddComment appends a comment by caller and returns it shaped.
func (s *ProjectService) AddComment(ctx context.Context, caller *models.User, id, text string) (*dto.CommentResponse, error) {
	if strings.TrimSpace(text) == "" {
		return nil, fmt.Errorf("%w: text is required", ErrValidation)
	}
	if _, err := s.find(ctx, id); err != nil {
		return nil, err
	}

	if s.moderation != nil {
		if clean, reason := s.moderation.FilterContent(text); !clean {
			slog.Info("comment filtered", "project_id", id, "user_id", caller.ID, "reason", reason)
			text = filteredComment
		}
	}

	comment := models.Comment{
		ID:        uuid.NewString(),
		UserID:    caller.ID,
		Text:      text,
		CreatedAt: s.now().UTC(),
	}
	modified, err := s.projects.AppendComment(ctx, id, comment)
	if err != nil {
		return nil, fmt.Errorf("failed to add comment: %w", err)
	}
	if !modified {
		return nil, ErrCommentNotAdded
	}

	shaped, err := s.refetch(ctx, id)
	if err != nil {
		return nil, err
	}
	for i := range shaped.Comments {
		if shaped.Comments[i].ID == comment.ID {
			return &shaped.Comments[i], nil
		}
	}
	// The author vanished between append and re-read; answer from the caller.
	return &dto.CommentResponse{
		ID:        comment.ID,
		Text:      comment.Text,
		CreatedAt: comment.CreatedAt,
		User:      dto.CommentUser{ID: caller.ID, Name: caller.Name, Image: caller.Image},
	}, nil
}

// Delete removes the project. Only the owner may delete.
func (s *ProjectService) Delete(ctx context.Context, callerID, id string) error {
	project, err := s.find(ctx, id)
	if err != nil {
		return err
	}
	if project.UserID != callerID {
		return ErrDeleteForbidden
	}

	deleted, err := s.projects.Delete(ctx, id)
	if err != nil {
		return fmt.Errorf("failed to delete project: %w", err)
	}
	if !deleted {
		return ErrProjectNotDeleted
	}
	return nil
}

func (s *ProjectService) find(ctx context.Context, id string) (*models.Project, error) {
	project, err := s.projects.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrProjectNotFound
		}
		return nil, err
	}
	return project, nil
}

func (s *ProjectService) refetch(ctx context.Context, id string) (*dto.ProjectResponse, error) {
	project, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}
	return s.Shape(ctx, project)
}

func orEmpty(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
