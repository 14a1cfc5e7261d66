package controller

import (
	"freightchat/internal/dto"
	"freightchat/internal/pkg/serverutils"
	"freightchat/internal/service"

	"github.com/gofiber/fiber/v2"
)

type ISessionController interface {
	RegisterRoutes(r fiber.Router)
	Authenticate(ctx *fiber.Ctx) error
	Logout(ctx *fiber.Ctx) error
	State(ctx *fiber.Ctx) error
	DismissNotice(ctx *fiber.Ctx) error
}

type sessionController struct {
	service service.IAgentService
}

func NewSessionController(service service.IAgentService) ISessionController {
	return &sessionController{service: service}
}

func (c *sessionController) RegisterRoutes(r fiber.Router) {
	h := r.Group("/session")
	h.Post("/authenticate", c.Authenticate)
	h.Post("/logout", c.Logout)
	h.Get("/state", c.State)
	h.Delete("/notice", c.DismissNotice)
}

func (c *sessionController) Authenticate(ctx *fiber.Ctx) error {
	var req dto.AuthenticateRequest
	if err := ctx.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
	}
	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}

	res, err := c.service.Authenticate(ctx.UserContext(), &req)
	if err != nil {
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse("Welcome "+res.User.Name+"!", res))
}

func (c *sessionController) Logout(ctx *fiber.Ctx) error {
	c.service.Logout(ctx.UserContext())
	return ctx.JSON(serverutils.SuccessResponse[any]("Logged out successfully", nil))
}

func (c *sessionController) State(ctx *fiber.Ctx) error {
	return ctx.JSON(serverutils.SuccessResponse("Current state", c.service.State()))
}

func (c *sessionController) DismissNotice(ctx *fiber.Ctx) error {
	c.service.DismissNotice()
	return ctx.JSON(serverutils.SuccessResponse[any]("Notice dismissed", nil))
}
