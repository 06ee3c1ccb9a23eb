package postgres

import (
	"context"
	"fmt"

	"github.com/ahmetcoskunkizilkaya/flancer-api/internal/models"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// ProjectRepository stores projects as rows with jsonb list columns. Like and
// comment mutations are single UPDATE statements so they stay atomic per row.
type ProjectRepository struct {
	db *gorm.DB
}

func (r *ProjectRepository) Insert(ctx context.Context, project *models.Project) error {
	return translate(r.db.WithContext(ctx).Create(newProjectRow(project)).Error)
}

func (r *ProjectRepository) FindByID(ctx context.Context, id string) (*models.Project, error) {
	var row projectRow
	if err := r.db.WithContext(ctx).First(&row, "id = ?", id).Error; err != nil {
		return nil, translate(err)
	}
	return row.model(), nil
}

func (r *ProjectRepository) List(ctx context.Context, filter models.ProjectFilter) ([]models.Project, error) {
	q := r.db.WithContext(ctx).Model(&projectRow{})
	if filter.OwnerID != "" {
		q = q.Where("user_id = ?", filter.OwnerID)
	}
	if len(filter.TechStack) > 0 {
		q = q.Where("EXISTS (SELECT 1 FROM jsonb_array_elements_text(tech_stack) AS t(tag) WHERE t.tag IN ?)", filter.TechStack)
	}
	if filter.MinBudget != nil {
		q = q.Where("budget >= ?", *filter.MinBudget)
	}
	if filter.MaxBudget != nil {
		q = q.Where("budget <= ?", *filter.MaxBudget)
	}
	q = q.Order("created_at DESC").Offset(filter.Skip)
	if filter.Limit > 0 {
		q = q.Limit(filter.Limit)
	}

	var rows []projectRow
	if err := q.Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to query projects: %w", err)
	}

	projects := make([]models.Project, len(rows))
	for i := range rows {
		projects[i] = *rows[i].model()
	}
	return projects, nil
}

func (r *ProjectRepository) Update(ctx context.Context, id string, update models.ProjectUpdate) (bool, error) {
	updates := map[string]interface{}{}
	changed := r.db.Where("1 = 0")
	if update.Title != nil {
		updates["title"] = *update.Title
		changed = changed.Or("title IS DISTINCT FROM ?", *update.Title)
	}
	if update.Description != nil {
		updates["description"] = *update.Description
		changed = changed.Or("description IS DISTINCT FROM ?", *update.Description)
	}
	if update.Budget != nil {
		updates["budget"] = *update.Budget
		changed = changed.Or("budget IS DISTINCT FROM ?", *update.Budget)
	}
	if update.TechStack != nil {
		v := datatypes.JSONSlice[string](update.TechStack)
		updates["tech_stack"] = v
		changed = changed.Or("tech_stack IS DISTINCT FROM ?", v)
	}
	if update.Images != nil {
		v := datatypes.JSONSlice[string](update.Images)
		updates["images"] = v
		changed = changed.Or("images IS DISTINCT FROM ?", v)
	}
	if len(updates) == 0 {
		return false, nil
	}

	res := r.db.WithContext(ctx).Model(&projectRow{}).
		Where("id = ?", id).
		Where(changed).
		Updates(updates)
	return res.RowsAffected > 0, res.Error
}

func (r *ProjectRepository) SetStatus(ctx context.Context, id string, status models.ProjectStatus) (bool, error) {
	res := r.db.WithContext(ctx).Model(&projectRow{}).
		Where("id = ? AND status <> ?", id, string(status)).
		Update("status", string(status))
	return res.RowsAffected > 0, res.Error
}

// AddLike appends userID only when it is not already present.
func (r *ProjectRepository) AddLike(ctx context.Context, id, userID string) (bool, error) {
	res := r.db.WithContext(ctx).Model(&projectRow{}).
		Where("id = ? AND NOT jsonb_exists(likes, ?)", id, userID).
		Update("likes", gorm.Expr("likes || jsonb_build_array(?::text)", userID))
	return res.RowsAffected > 0, res.Error
}

func (r *ProjectRepository) RemoveLike(ctx context.Context, id, userID string) (bool, error) {
	res := r.db.WithContext(ctx).Model(&projectRow{}).
		Where("id = ? AND jsonb_exists(likes, ?)", id, userID).
		Update("likes", gorm.Expr("likes - ?::text", userID))
	return res.RowsAffected > 0, res.Error
}

func (r *ProjectRepository) AppendComment(ctx context.Context, id string, comment models.Comment) (bool, error) {
	element, err := commentArray(comment)
	if err != nil {
		return false, fmt.Errorf("failed to encode comment: %w", err)
	}
	res := r.db.WithContext(ctx).Model(&projectRow{}).
		Where("id = ?", id).
		Update("comments", gorm.Expr("comments || ?::jsonb", element))
	return res.RowsAffected > 0, res.Error
}

func (r *ProjectRepository) Delete(ctx context.Context, id string) (bool, error) {
	res := r.db.WithContext(ctx).Where("id = ?", id).Delete(&projectRow{})
	return res.RowsAffected > 0, res.Error
}
