package controller

import (
	"ai-qa-rag-be/internal/dto"
	"ai-qa-rag-be/internal/pkg/serverutils"
	"ai-qa-rag-be/internal/service"

	"github.com/gofiber/fiber/v2"
)

type IQAController interface {
	RegisterRoutes(r fiber.Router)
	Ask(ctx *fiber.Ctx) error
	ListUnanswered(ctx *fiber.Ctx) error
}

type qaController struct {
	qaService         service.IQAService
	unansweredService service.IUnansweredService
	jwtSecret         string
}

func NewQAController(qaService service.IQAService, unansweredService service.IUnansweredService, jwtSecret string) IQAController {
	return &qaController{
		qaService:         qaService,
		unansweredService: unansweredService,
		jwtSecret:         jwtSecret,
	}
}

func (c *qaController) RegisterRoutes(r fiber.Router) {
	h := r.Group("/qa/v1")
	h.Post("ask", serverutils.OptionalUserMiddleware(c.jwtSecret), c.Ask)

	review := h.Group("/unanswered")
	if c.jwtSecret != "" {
		review.Use(serverutils.JwtMiddleware(c.jwtSecret))
	}
	review.Get("", c.ListUnanswered)
}

func (c *qaController) Ask(ctx *fiber.Ctx) error {
	var req dto.AskRequest
	if err := ctx.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}
	req.UserId = serverutils.UserId(ctx)

	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}

	res, err := c.qaService.Ask(ctx.UserContext(), &req)
	if err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("Success answer question", res))
}

func (c *qaController) ListUnanswered(ctx *fiber.Ctx) error {
	res, err := c.unansweredService.List(ctx.UserContext(), ctx.Query("status"), ctx.QueryInt("limit", 20), ctx.QueryInt("offset", 0))
	if err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("Success list unanswered questions", res))
}
