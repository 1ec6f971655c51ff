package http

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"github.com/melih/imagedispatch/internal/core/domain"
	"github.com/melih/imagedispatch/internal/core/ports"
)

type DispatchHandler struct {
	service ports.DispatchService
}

func NewDispatchHandler(service ports.DispatchService) *DispatchHandler {
	return &DispatchHandler{service: service}
}

// Register mounts the dispatch routes on app.
func (h *DispatchHandler) Register(app *fiber.App) {
	app.Get("/healthz", h.Health)

	api := app.Group("/api")
	v1 := api.Group("/v1")

	v1.Post("/dispatches", h.Dispatch)
	v1.Get("/tags", h.PreviewTags)
}

// DispatchRequest mirrors the manual trigger inputs. PushImage is a pointer so
// an omitted field keeps its default of true.
type DispatchRequest struct {
	Branch    string `json:"branch"`
	CommitSHA string `json:"commit_sha"`
	TagSuffix string `json:"tag_suffix"`
	PushImage *bool  `json:"push_image"`
}

func (r DispatchRequest) toDomain() domain.BuildRequest {
	req := domain.BuildRequest{
		Branch:    r.Branch,
		CommitSHA: r.CommitSHA,
		TagSuffix: r.TagSuffix,
		PushImage: true,
	}
	if r.PushImage != nil {
		req.PushImage = *r.PushImage
	}
	return req.WithDefaults()
}

func (h *DispatchHandler) Dispatch(c *fiber.Ctx) error {
	var req DispatchRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}

	// Note: This is a blocking operation and might take time!
	report, err := h.service.Run(c.UserContext(), req.toDomain())
	if err != nil {
		body := fiber.Map{"error": err.Error()}
		if step, ok := domain.FailedStep(err); ok {
			body["step"] = step
		}
		status := fiber.StatusInternalServerError
		if errors.Is(err, domain.ErrRefNotFound) || errors.Is(err, domain.ErrInvalidTag) {
			status = fiber.StatusUnprocessableEntity
		}
		return c.Status(status).JSON(body)
	}

	return c.Status(fiber.StatusCreated).JSON(report)
}

// PreviewTags returns the tag set a dispatch would produce for a given short sha.
func (h *DispatchHandler) PreviewTags(c *fiber.Ctx) error {
	shortSHA := c.Query("short_sha")
	if shortSHA == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "short_sha is required",
		})
	}

	req := domain.BuildRequest{
		Branch:    c.Query("branch"),
		CommitSHA: c.Query("commit_sha"),
		TagSuffix: c.Query("tag_suffix"),
	}.WithDefaults()

	return c.JSON(fiber.Map{
		"tags": domain.DeriveTags(req, domain.ShortSHA(shortSHA)),
	})
}

func (h *DispatchHandler) Health(c *fiber.Ctx) error {
	return c.SendStatus(fiber.StatusOK)
}
