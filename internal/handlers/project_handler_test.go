package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ahmetcoskunkizilkaya/flancer-api/internal/dto"
	"github.com/ahmetcoskunkizilkaya/flancer-api/internal/services"
)

func TestParseListQuery(t *testing.T) {
	app := fiber.New()
	app.Get("/", func(c *fiber.Ctx) error {
		q, msg := parseListQuery(c)
		if msg != "" {
			return c.Status(fiber.StatusUnprocessableEntity).SendString(msg)
		}
		return c.JSON(q)
	})

	budget := func(v int) *int { return &v }

	tests := []struct {
		name       string
		query      string
		wantStatus int
		want       dto.ProjectListQuery
	}{
		{"defaults", "", http.StatusOK, dto.ProjectListQuery{Limit: services.DefaultListLimit}},
		{"zero limit uses default", "?limit=0", http.StatusOK, dto.ProjectListQuery{Limit: services.DefaultListLimit}},
		{"large limit is capped", "?limit=500", http.StatusOK, dto.ProjectListQuery{Limit: services.MaxListLimit}},
		{"skip and limit", "?skip=5&limit=20", http.StatusOK, dto.ProjectListQuery{Skip: 5, Limit: 20}},
		{"tech stack is split and trimmed", "?tech_stack=Go,%20Rust,,", http.StatusOK, dto.ProjectListQuery{
			Limit: services.DefaultListLimit, TechStack: []string{"Go", "Rust"},
		}},
		{"budget bounds", "?min_budget=100&max_budget=500", http.StatusOK, dto.ProjectListQuery{
			Limit: services.DefaultListLimit, MinBudget: budget(100), MaxBudget: budget(500),
		}},
		{"negative skip", "?skip=-1", http.StatusUnprocessableEntity, dto.ProjectListQuery{}},
		{"negative limit", "?limit=-5", http.StatusUnprocessableEntity, dto.ProjectListQuery{}},
		{"malformed limit", "?limit=ten", http.StatusUnprocessableEntity, dto.ProjectListQuery{}},
		{"malformed budget", "?max_budget=lots", http.StatusUnprocessableEntity, dto.ProjectListQuery{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/"+tt.query, nil))
			require.NoError(t, err)
			defer resp.Body.Close()
			require.Equal(t, tt.wantStatus, resp.StatusCode)
			if tt.wantStatus != http.StatusOK {
				return
			}

			var got dto.ProjectListQuery
			require.NoError(t, json.NewDecoder(resp.Body).Decode(&got))
			assert.Equal(t, tt.want, got)
		})
	}
}
