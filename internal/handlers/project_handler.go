package handlers

import (
	"strconv"
	"strings"

	"github.com/ahmetcoskunkizilkaya/flancer-api/internal/dto"
	"github.com/ahmetcoskunkizilkaya/flancer-api/internal/middleware"
	"github.com/ahmetcoskunkizilkaya/flancer-api/internal/services"
	"github.com/gofiber/fiber/v2"
)

type ProjectHandler struct {
	service *services.ProjectService
}

func NewProjectHandler(service *services.ProjectService) *ProjectHandler {
	return &ProjectHandler{service: service}
}

// List handles GET /api/projects
func (h *ProjectHandler) List(c *fiber.Ctx) error {
	q, msg := parseListQuery(c)
	if msg != "" {
		return c.Status(fiber.StatusUnprocessableEntity).JSON(dto.ErrorResponse{
			Error: true, Message: msg,
		})
	}

	projects, err := h.service.List(c.UserContext(), q)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(projects)
}

func parseListQuery(c *fiber.Ctx) (dto.ProjectListQuery, string) {
	q := dto.ProjectListQuery{Skip: 0, Limit: services.DefaultListLimit}

	// c.QueryInt falls back silently on garbage; malformed values must be 422.
	var ok bool
	if q.Skip, ok = queryInt(c, "skip", 0); !ok || q.Skip < 0 {
		return q, "skip must be a non-negative integer"
	}
	if q.Limit, ok = queryInt(c, "limit", services.DefaultListLimit); !ok || q.Limit < 0 {
		return q, "limit must be a non-negative integer"
	}
	switch {
	case q.Limit == 0:
		q.Limit = services.DefaultListLimit
	case q.Limit > services.MaxListLimit:
		q.Limit = services.MaxListLimit
	}

	if raw := c.Query("tech_stack"); raw != "" {
		for _, tech := range strings.Split(raw, ",") {
			if tech = strings.TrimSpace(tech); tech != "" {
				q.TechStack = append(q.TechStack, tech)
			}
		}
	}

	for _, bound := range []struct {
		key string
		dst **int
	}{{"min_budget", &q.MinBudget}, {"max_budget", &q.MaxBudget}} {
		raw := c.Query(bound.key)
		if raw == "" {
			continue
		}
		v, err := strconv.Atoi(raw)
		if err != nil {
			return q, bound.key + " must be an integer"
		}
		*bound.dst = &v
	}
	return q, ""
}

func queryInt(c *fiber.Ctx, key string, fallback int) (int, bool) {
	raw := c.Query(key)
	if raw == "" {
		return fallback, true
	}
	v, err := strconv.Atoi(raw)
	return v, err == nil
}

// ListMine handles GET /api/projects/user
func (h *ProjectHandler) ListMine(c *fiber.Ctx) error {
	user, ok := middleware.CurrentUser(c)
	if !ok {
		return unauthorized(c)
	}

	projects, err := h.service.ListByOwner(c.UserContext(), user.ID)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(projects)
}

// Create handles POST /api/projects
func (h *ProjectHandler) Create(c *fiber.Ctx) error {
	user, ok := middleware.CurrentUser(c)
	if !ok {
		return unauthorized(c)
	}

	var req dto.ProjectCreateRequest
	if err := c.BodyParser(&req); err != nil {
		return badBody(c)
	}

	project, err := h.service.Create(c.UserContext(), user.ID, &req)
	if err != nil {
		return writeError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(project)
}

// Get handles GET /api/projects/:id
func (h *ProjectHandler) Get(c *fiber.Ctx) error {
	project, err := h.service.Get(c.UserContext(), c.Params("id"))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(project)
}

// Update handles PATCH /api/projects/:id
func (h *ProjectHandler) Update(c *fiber.Ctx) error {
	user, ok := middleware.CurrentUser(c)
	if !ok {
		return unauthorized(c)
	}

	var req dto.ProjectUpdateRequest
	if err := c.BodyParser(&req); err != nil {
		return badBody(c)
	}

	project, err := h.service.Update(c.UserContext(), user.ID, c.Params("id"), &req)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(project)
}

// UpdateStatus handles PATCH /api/projects/:id/status
func (h *ProjectHandler) UpdateStatus(c *fiber.Ctx) error {
	var req dto.ProjectStatusRequest
	if len(c.Body()) > 0 {
		if err := c.BodyParser(&req); err != nil {
			return badBody(c)
		}
	}

	project, err := h.service.UpdateStatus(c.UserContext(), c.Params("id"), &req)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(project)
}

// ToggleLike handles POST /api/projects/:id/like
func (h *ProjectHandler) ToggleLike(c *fiber.Ctx) error {
	user, ok := middleware.CurrentUser(c)
	if !ok {
		return unauthorized(c)
	}

	resp, err := h.service.ToggleLike(c.UserContext(), user.ID, c.Params("id"))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(resp)
}

// LikeStatus handles GET /api/projects/:id/like
func (h *ProjectHandler) LikeStatus(c *fiber.Ctx) error {
	user, ok := middleware.CurrentUser(c)
	if !ok {
		return unauthorized(c)
	}

	resp, err := h.service.LikeStatus(c.UserContext(), user.ID, c.Params("id"))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(resp)
}

// AddComment handles POST /api/projects/:id/comments
func (h *ProjectHandler) AddComment(c *fiber.Ctx) error {
	user, ok := middleware.CurrentUser(c)
	if !ok {
		return unauthorized(c)
	}

	var req dto.CommentCreateRequest
	if err := c.BodyParser(&req); err != nil {
		return badBody(c)
	}

	comment, err := h.service.AddComment(c.UserContext(), user, c.Params("id"), req.Text)
	if err != nil {
		return writeError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(comment)
}

// Delete handles DELETE /api/projects/:id
func (h *ProjectHandler) Delete(c *fiber.Ctx) error {
	user, ok := middleware.CurrentUser(c)
	if !ok {
		return unauthorized(c)
	}

	if err := h.service.Delete(c.UserContext(), user.ID, c.Params("id")); err != nil {
		return writeError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}
