package server

import (
	"io"
	"strings"

	"inkwell/internal/models"
	"inkwell/internal/service"

	"github.com/gofiber/fiber/v2"
)

// ImageUploadResponse is the API response after uploading an image.
type ImageUploadResponse struct {
	ID          uint     `json:"id"`
	ObjectKey   string   `json:"object_key"`
	ContentType string   `json:"content_type"`
	Width       int      `json:"width"`
	Height      int      `json:"height"`
	URL         string   `json:"url"`
	Variants    []string `json:"variants"`
}

// UploadImage handles POST /api/images/upload
func (s *Server) UploadImage(c *fiber.Ctx) error {
	userID := c.Locals("userID").(uint)
	file, err := c.FormFile("image")
	if err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest, models.NewValidationError("No file uploaded"))
	}

	src, err := file.Open()
	if err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest, models.NewValidationError("Unable to read uploaded file"))
	}
	defer func() { _ = src.Close() }()

	content, err := io.ReadAll(src)
	if err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest, models.NewValidationError("Unable to read uploaded file"))
	}

	uploaded, err := s.imageService.Upload(c.UserContext(), service.UploadImageInput{
		UserID:      userID,
		Filename:    file.Filename,
		ContentType: file.Header.Get("Content-Type"),
		Content:     content,
	})
	if err != nil {
		return models.RespondWithError(c, mapServiceError(err), err)
	}

	return c.Status(fiber.StatusCreated).JSON(toImageUploadResponse(uploaded))
}

// ServeImage handles GET /api/images/:key?w=... It streams the stored WebP,
// falling back to the original when the requested variant width was never
// generated.
func (s *Server) ServeImage(c *fiber.Ctx) error {
	key := strings.TrimSpace(c.Params("key"))
	width := c.QueryInt("w", 0)

	img, path, err := s.imageService.ResolveForServing(c.UserContext(), key, width)
	if err != nil {
		return models.RespondWithError(c, mapServiceError(err), err)
	}

	c.Set(fiber.HeaderContentType, img.ContentType)
	c.Set(fiber.HeaderCacheControl, "public, max-age=31536000, immutable")
	return c.SendFile(path)
}

// GetMyImages handles GET /api/images/mine
func (s *Server) GetMyImages(c *fiber.Ctx) error {
	userID := c.Locals("userID").(uint)
	page := parsePagination(c, 20)

	images, err := s.imageService.ListUserImages(c.UserContext(), userID, page.Limit, page.Offset)
	if err != nil {
		return models.RespondWithError(c, mapServiceError(err), err)
	}

	out := make([]ImageUploadResponse, 0, len(images))
	for i := range images {
		out = append(out, toImageUploadResponse(&images[i]))
	}
	return c.JSON(out)
}

func toImageUploadResponse(image *models.Image) ImageUploadResponse {
	var variants []string
	if image.Variants != "" {
		variants = strings.Split(image.Variants, ",")
	}
	return ImageUploadResponse{
		ID:          image.ID,
		ObjectKey:   image.ObjectKey,
		ContentType: image.ContentType,
		Width:       image.Width,
		Height:      image.Height,
		URL:         "/api/images/" + image.ObjectKey,
		Variants:    variants,
	}
}
