package postgres

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	pgdriver "gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/ahmetcoskunkizilkaya/flancer-api/internal/models"
)

type renderedSQL struct {
	sql  string
	vars []interface{}
}

// dryRunDB builds statements without a server and records each rendered
// query and update.
func dryRunDB(t *testing.T) (*gorm.DB, *[]renderedSQL) {
	t.Helper()
	db, err := gorm.Open(pgdriver.New(pgdriver.Config{
		DSN: "host=localhost user=flancer dbname=flancer sslmode=disable",
	}), &gorm.Config{
		DryRun:               true,
		DisableAutomaticPing: true,
		Logger:               logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	var rendered []renderedSQL
	capture := func(tx *gorm.DB) {
		rendered = append(rendered, renderedSQL{
			sql:  tx.Statement.SQL.String(),
			vars: append([]interface{}(nil), tx.Statement.Vars...),
		})
	}
	require.NoError(t, db.Callback().Query().After("gorm:query").Register("test:capture_query", capture))
	require.NoError(t, db.Callback().Update().After("gorm:update").Register("test:capture_update", capture))
	return db, &rendered
}

func TestProjectRepository_ListSQL(t *testing.T) {
	db, rendered := dryRunDB(t)
	repo := &ProjectRepository{db: db}
	minBudget, maxBudget := 100, 500

	_, err := repo.List(context.Background(), models.ProjectFilter{
		OwnerID:   "u1",
		TechStack: []string{"Go", "Rust"},
		MinBudget: &minBudget,
		MaxBudget: &maxBudget,
		Skip:      20,
		Limit:     10,
	})
	require.NoError(t, err)
	require.Len(t, *rendered, 1)

	got := (*rendered)[0]
	assert.Contains(t, got.sql, `SELECT * FROM "projects" WHERE user_id = $1`)
	assert.Contains(t, got.sql, "jsonb_array_elements_text(tech_stack) AS t(tag) WHERE t.tag IN ($2,$3))")
	assert.Contains(t, got.sql, "budget >= $4 AND budget <= $5")
	assert.Contains(t, got.sql, "ORDER BY created_at DESC LIMIT")
	assert.Contains(t, got.sql, "OFFSET")
	assert.NotContains(t, got.sql, "ARRAY[")
	require.GreaterOrEqual(t, len(got.vars), 5)
	assert.Equal(t, []interface{}{"u1", "Go", "Rust", 100, 500}, got.vars[:5])
}

func TestProjectRepository_ListSQLWithoutFilters(t *testing.T) {
	db, rendered := dryRunDB(t)
	repo := &ProjectRepository{db: db}

	_, err := repo.List(context.Background(), models.ProjectFilter{})
	require.NoError(t, err)
	require.Len(t, *rendered, 1)

	got := (*rendered)[0]
	assert.Equal(t, `SELECT * FROM "projects" ORDER BY created_at DESC`, got.sql)
	assert.Empty(t, got.vars)
}

func TestProjectRepository_LikeSQL(t *testing.T) {
	db, rendered := dryRunDB(t)
	repo := &ProjectRepository{db: db}
	ctx := context.Background()

	_, err := repo.AddLike(ctx, "p1", "u1")
	require.NoError(t, err)
	_, err = repo.RemoveLike(ctx, "p1", "u1")
	require.NoError(t, err)
	require.Len(t, *rendered, 2)

	add := (*rendered)[0]
	assert.Contains(t, add.sql, `UPDATE "projects" SET "likes"=likes || jsonb_build_array($1::text)`)
	assert.Contains(t, add.sql, "WHERE id = $2 AND NOT jsonb_exists(likes, $3)")
	assert.Equal(t, []interface{}{"u1", "p1", "u1"}, add.vars)

	remove := (*rendered)[1]
	assert.Contains(t, remove.sql, `UPDATE "projects" SET "likes"=likes - $1::text`)
	assert.Contains(t, remove.sql, "WHERE id = $2 AND jsonb_exists(likes, $3)")
	assert.Equal(t, []interface{}{"u1", "p1", "u1"}, remove.vars)
}

func TestProjectRepository_UpdateSQLGuards(t *testing.T) {
	db, rendered := dryRunDB(t)
	repo := &ProjectRepository{db: db}
	ctx := context.Background()
	title, budget := "New title", 300

	_, err := repo.Update(ctx, "p1", models.ProjectUpdate{Title: &title, Budget: &budget})
	require.NoError(t, err)
	require.Len(t, *rendered, 1)

	got := (*rendered)[0]
	assert.Contains(t, got.sql, `UPDATE "projects" SET "budget"=$1,"title"=$2 WHERE id = $3`)
	assert.Contains(t, got.sql, "1 = 0 OR title IS DISTINCT FROM $4 OR budget IS DISTINCT FROM $5")
	assert.Equal(t, []interface{}{300, "New title", "p1", "New title", 300}, got.vars)

	modified, err := repo.Update(ctx, "p1", models.ProjectUpdate{})
	require.NoError(t, err)
	assert.False(t, modified)
	assert.Len(t, *rendered, 1, "empty update must not reach the database")
}

func TestProjectRepository_SetStatusSQL(t *testing.T) {
	db, rendered := dryRunDB(t)
	repo := &ProjectRepository{db: db}

	_, err := repo.SetStatus(context.Background(), "p1", models.StatusCompleted)
	require.NoError(t, err)
	require.Len(t, *rendered, 1)

	got := (*rendered)[0]
	assert.Contains(t, got.sql, `UPDATE "projects" SET "status"=$1 WHERE id = $2 AND status <> $3`)
	assert.Equal(t, []interface{}{"COMPLETED", "p1", "COMPLETED"}, got.vars)
}
