package controller

import (
	"ai-qa-rag-be/internal/dto"
	"ai-qa-rag-be/internal/pkg/serverutils"
	"ai-qa-rag-be/internal/service"

	"github.com/gofiber/fiber/v2"
)

type ISettingsController interface {
	RegisterRoutes(r fiber.Router)
	List(ctx *fiber.Ctx) error
	Update(ctx *fiber.Ctx) error
}

type settingsController struct {
	settingsService service.ISettingsService
	jwtSecret       string
}

func NewSettingsController(settingsService service.ISettingsService, jwtSecret string) ISettingsController {
	return &settingsController{
		settingsService: settingsService,
		jwtSecret:       jwtSecret,
	}
}

func (c *settingsController) RegisterRoutes(r fiber.Router) {
	h := r.Group("/settings/v1")
	if c.jwtSecret != "" {
		h.Use(serverutils.JwtMiddleware(c.jwtSecret))
	}
	h.Get("", c.List)
	h.Put(":key", c.Update)
}

func (c *settingsController) List(ctx *fiber.Ctx) error {
	res, err := c.settingsService.List(ctx.UserContext())
	if err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("Success get settings", res))
}

func (c *settingsController) Update(ctx *fiber.Ctx) error {
	var req dto.UpdateAiConfigurationRequest
	if err := ctx.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}

	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}

	res, err := c.settingsService.Update(ctx.UserContext(), ctx.Params("key"), req)
	if err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("Success update setting", res))
}
