package handlers

import (
	"github.com/ahmetcoskunkizilkaya/flancer-api/internal/middleware"
	"github.com/ahmetcoskunkizilkaya/flancer-api/internal/services"
	"github.com/gofiber/fiber/v2"
)

type UploadHandler struct {
	service *services.UploadService
}

func NewUploadHandler(service *services.UploadService) *UploadHandler {
	return &UploadHandler{service: service}
}

// UploadImage handles POST /api/uploads (multipart field "file").
func (h *UploadHandler) UploadImage(c *fiber.Ctx) error {
	user, ok := middleware.CurrentUser(c)
	if !ok {
		return unauthorized(c)
	}

	header, err := c.FormFile("file")
	if err != nil {
		return badBody(c)
	}
	file, err := header.Open()
	if err != nil {
		return badBody(c)
	}
	defer file.Close()

	resp, err := h.service.UploadImage(c.UserContext(), user.ID, header.Header.Get(fiber.HeaderContentType), header.Size, file)
	if err != nil {
		return writeError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(resp)
}
