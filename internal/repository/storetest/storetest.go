// Package storetest holds behaviour checks shared by every repository.Store
// implementation.
package storetest

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ahmetcoskunkizilkaya/flancer-api/internal/models"
	"github.com/ahmetcoskunkizilkaya/flancer-api/internal/repository"
)

// Run exercises store. Each subtest uses fresh ids so a shared database is fine.
func Run(t *testing.T, store repository.Store) {
	t.Run("users", func(t *testing.T) { testUsers(t, store) })
	t.Run("projects", func(t *testing.T) { testProjects(t, store) })
	t.Run("listing", func(t *testing.T) { testListing(t, store) })
	t.Run("refresh_tokens", func(t *testing.T) { testRefreshTokens(t, store) })
	t.Run("logs", func(t *testing.T) { testLogs(t, store) })
}

func strPtr(s string) *string { return &s }
func intPtr(v int) *int       { return &v }

// ts truncates to milliseconds, the precision every backend keeps.
func ts(t time.Time) time.Time { return t.UTC().Truncate(time.Millisecond) }

func newUser() *models.User {
	id := uuid.NewString()
	return &models.User{
		ID:             id,
		Email:          id + "@example.com",
		Name:           "User " + id[:8],
		HashedPassword: "hash",
		IsActive:       true,
		CreatedAt:      ts(time.Now()),
	}
}

func newProject(ownerID string, budget int, created time.Time, tech ...string) *models.Project {
	return &models.Project{
		ID:          uuid.NewString(),
		Title:       "Project",
		Description: "Description",
		Budget:      budget,
		TechStack:   tech,
		Status:      models.StatusOpen,
		CreatedAt:   ts(created),
		UserID:      ownerID,
		Images:      []string{},
		Likes:       []string{},
		Comments:    []models.Comment{},
	}
}

func testUsers(t *testing.T, store repository.Store) {
	ctx := context.Background()
	users := store.Users()
	u := newUser()
	require.NoError(t, users.Create(ctx, u))

	dup := newUser()
	dup.Email = u.Email
	assert.ErrorIs(t, users.Create(ctx, dup), repository.ErrDuplicate)

	got, err := users.FindByID(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, u.Email, got.Email)
	assert.Equal(t, u.HashedPassword, got.HashedPassword)
	assert.Nil(t, got.Image)

	got, err = users.FindByEmail(ctx, u.Email)
	require.NoError(t, err)
	assert.Equal(t, u.ID, got.ID)

	_, err = users.FindByID(ctx, uuid.NewString())
	assert.ErrorIs(t, err, repository.ErrNotFound)

	modified, err := users.UpdateProfile(ctx, u.ID, models.ProfileUpdate{Name: strPtr("Renamed"), Bio: strPtr("bio")})
	require.NoError(t, err)
	assert.True(t, modified)

	modified, err = users.UpdateProfile(ctx, u.ID, models.ProfileUpdate{Name: strPtr("Renamed")})
	require.NoError(t, err)
	assert.False(t, modified, "same value is not a modification")

	modified, err = users.UpdateImage(ctx, u.ID, "https://cdn.example.com/a.png")
	require.NoError(t, err)
	assert.True(t, modified)
	modified, err = users.UpdateImage(ctx, u.ID, "https://cdn.example.com/a.png")
	require.NoError(t, err)
	assert.False(t, modified)

	got, err = users.FindByID(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, "Renamed", got.Name)
	require.NotNil(t, got.Bio)
	assert.Equal(t, "bio", *got.Bio)
	require.NotNil(t, got.Image)

	deleted, err := users.Delete(ctx, u.ID)
	require.NoError(t, err)
	assert.True(t, deleted)
	deleted, err = users.Delete(ctx, u.ID)
	require.NoError(t, err)
	assert.False(t, deleted)
}

func testProjects(t *testing.T, store repository.Store) {
	ctx := context.Background()
	projects := store.Projects()
	owner := uuid.NewString()
	p := newProject(owner, 200, time.Now(), "Go")
	require.NoError(t, projects.Insert(ctx, p))

	got, err := projects.FindByID(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, owner, got.UserID)
	assert.Equal(t, []string{"Go"}, got.TechStack)
	assert.Equal(t, models.StatusOpen, got.Status)
	assert.True(t, p.CreatedAt.Equal(got.CreatedAt))
	assert.Empty(t, got.Likes)

	_, err = projects.FindByID(ctx, uuid.NewString())
	assert.ErrorIs(t, err, repository.ErrNotFound)

	t.Run("update", func(t *testing.T) {
		modified, err := projects.Update(ctx, p.ID, models.ProjectUpdate{
			Title:     strPtr("Renamed"),
			Budget:    intPtr(300),
			TechStack: []string{"Go", "Rust"},
		})
		require.NoError(t, err)
		assert.True(t, modified)

		modified, err = projects.Update(ctx, p.ID, models.ProjectUpdate{Budget: intPtr(300)})
		require.NoError(t, err)
		assert.False(t, modified)

		modified, err = projects.Update(ctx, uuid.NewString(), models.ProjectUpdate{Budget: intPtr(1)})
		require.NoError(t, err)
		assert.False(t, modified)

		got, err := projects.FindByID(ctx, p.ID)
		require.NoError(t, err)
		assert.Equal(t, "Renamed", got.Title)
		assert.Equal(t, "Description", got.Description)
		assert.Equal(t, 300, got.Budget)
		assert.Equal(t, []string{"Go", "Rust"}, got.TechStack)
	})

	t.Run("status", func(t *testing.T) {
		modified, err := projects.SetStatus(ctx, p.ID, models.StatusCompleted)
		require.NoError(t, err)
		assert.True(t, modified)
		modified, err = projects.SetStatus(ctx, p.ID, models.StatusCompleted)
		require.NoError(t, err)
		assert.False(t, modified)
	})

	t.Run("likes are a set", func(t *testing.T) {
		for _, user := range []string{"a", "b", "a"} {
			_, err := projects.AddLike(ctx, p.ID, user)
			require.NoError(t, err)
		}
		got, err := projects.FindByID(ctx, p.ID)
		require.NoError(t, err)
		assert.ElementsMatch(t, []string{"a", "b"}, got.Likes)

		removed, err := projects.RemoveLike(ctx, p.ID, "a")
		require.NoError(t, err)
		assert.True(t, removed)
		removed, err = projects.RemoveLike(ctx, p.ID, "a")
		require.NoError(t, err)
		assert.False(t, removed)

		got, err = projects.FindByID(ctx, p.ID)
		require.NoError(t, err)
		assert.Equal(t, []string{"b"}, got.Likes)
	})

	t.Run("comments append in order", func(t *testing.T) {
		base := ts(time.Now())
		for i, text := range []string{"first", "second", "third"} {
			ok, err := projects.AppendComment(ctx, p.ID, models.Comment{
				ID:        uuid.NewString(),
				UserID:    "commenter",
				Text:      text,
				CreatedAt: base.Add(time.Duration(i) * time.Second),
			})
			require.NoError(t, err)
			assert.True(t, ok)
		}
		ok, err := projects.AppendComment(ctx, uuid.NewString(), models.Comment{ID: uuid.NewString(), Text: "x"})
		require.NoError(t, err)
		assert.False(t, ok)

		got, err := projects.FindByID(ctx, p.ID)
		require.NoError(t, err)
		require.Len(t, got.Comments, 3)
		for i, text := range []string{"first", "second", "third"} {
			assert.Equal(t, text, got.Comments[i].Text)
			assert.Equal(t, "commenter", got.Comments[i].UserID)
			assert.True(t, base.Add(time.Duration(i)*time.Second).Equal(got.Comments[i].CreatedAt))
		}
	})

	t.Run("delete", func(t *testing.T) {
		deleted, err := projects.Delete(ctx, p.ID)
		require.NoError(t, err)
		assert.True(t, deleted)
		deleted, err = projects.Delete(ctx, p.ID)
		require.NoError(t, err)
		assert.False(t, deleted)
	})
}

func testListing(t *testing.T, store repository.Store) {
	ctx := context.Background()
	projects := store.Projects()
	owner := uuid.NewString()
	// Far-future timestamps keep these ahead of anything else in a shared store.
	base := time.Now().Add(1000 * time.Hour)

	seed := []*models.Project{
		newProject(owner, 50, base.Add(1*time.Second), "Go"),
		newProject(owner, 300, base.Add(2*time.Second), "Rust", "Wasm"),
		newProject(owner, 900, base.Add(3*time.Second), "Python"),
		newProject(owner, 500, base.Add(4*time.Second), "Go", "React"),
	}
	for _, p := range seed {
		require.NoError(t, projects.Insert(ctx, p))
	}
	ids := func(ps []models.Project) []string {
		out := make([]string, len(ps))
		for i, p := range ps {
			out[i] = p.ID
		}
		return out
	}

	tests := []struct {
		name   string
		filter models.ProjectFilter
		want   []string
	}{
		{"newest first", models.ProjectFilter{OwnerID: owner}, []string{seed[3].ID, seed[2].ID, seed[1].ID, seed[0].ID}},
		{"skip and limit", models.ProjectFilter{OwnerID: owner, Skip: 1, Limit: 2}, []string{seed[2].ID, seed[1].ID}},
		{"tech intersection", models.ProjectFilter{OwnerID: owner, TechStack: []string{"Go", "Rust"}}, []string{seed[3].ID, seed[1].ID, seed[0].ID}},
		{"inclusive budget", models.ProjectFilter{OwnerID: owner, MinBudget: intPtr(300), MaxBudget: intPtr(500)}, []string{seed[3].ID, seed[1].ID}},
		{"max only", models.ProjectFilter{OwnerID: owner, MaxBudget: intPtr(50)}, []string{seed[0].ID}},
		{"no match", models.ProjectFilter{OwnerID: owner, TechStack: []string{"Cobol"}}, []string{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := projects.List(ctx, tt.filter)
			require.NoError(t, err)
			assert.Equal(t, tt.want, ids(got))
		})
	}

	t.Run("unfiltered list starts with newest", func(t *testing.T) {
		got, err := projects.List(ctx, models.ProjectFilter{Limit: 1})
		require.NoError(t, err)
		require.Len(t, got, 1)
		assert.Equal(t, seed[3].ID, got[0].ID)
	})
}

func testRefreshTokens(t *testing.T, store repository.Store) {
	ctx := context.Background()
	tokens := store.RefreshTokens()
	userID := uuid.NewString()

	tok := &models.RefreshToken{
		ID:        uuid.NewString(),
		UserID:    userID,
		TokenHash: uuid.NewString(),
		ExpiresAt: ts(time.Now().Add(time.Hour)),
		CreatedAt: ts(time.Now()),
	}
	require.NoError(t, tokens.Create(ctx, tok))

	got, err := tokens.FindActive(ctx, tok.TokenHash)
	require.NoError(t, err)
	assert.Equal(t, userID, got.UserID)

	require.NoError(t, tokens.Revoke(ctx, tok.TokenHash))
	_, err = tokens.FindActive(ctx, tok.TokenHash)
	assert.ErrorIs(t, err, repository.ErrNotFound)

	other := *tok
	other.ID = uuid.NewString()
	other.TokenHash = uuid.NewString()
	require.NoError(t, tokens.Create(ctx, &other))
	require.NoError(t, tokens.DeleteForUser(ctx, userID))
	_, err = tokens.FindActive(ctx, other.TokenHash)
	assert.ErrorIs(t, err, repository.ErrNotFound)
}

func testLogs(t *testing.T, store repository.Store) {
	ctx := context.Background()
	logs := store.Logs()
	userID := "u1"
	// Far in the past so the purge below touches only these rows.
	old := ts(time.Date(2001, 1, 1, 0, 0, 0, 0, time.UTC))

	require.NoError(t, logs.InsertLogs(ctx, []models.SystemLog{
		{ID: uuid.NewString(), Timestamp: old, Level: "ERROR", Message: "old", UserID: &userID, Extra: map[string]interface{}{"k": "v"}},
		{ID: uuid.NewString(), Timestamp: old.Add(time.Hour), Level: "ERROR", Message: "old too"},
	}))
	require.NoError(t, logs.InsertLogs(ctx, nil))

	deleted, err := logs.DeleteLogsBefore(ctx, old.Add(24*time.Hour))
	require.NoError(t, err)
	assert.Equal(t, int64(2), deleted)
}
