package controller

import (
	"freightchat/internal/dto"
	"freightchat/internal/pkg/serverutils"
	"freightchat/internal/service"

	"github.com/gofiber/fiber/v2"
)

type IDocumentController interface {
	RegisterRoutes(r fiber.Router)
	Upload(ctx *fiber.Ctx) error
	Chat(ctx *fiber.Ctx) error
	Track(ctx *fiber.Ctx) error
	Shipments(ctx *fiber.Ctx) error
}

type documentController struct {
	agent    service.IAgentService
	tracking service.ITrackingService
}

func NewDocumentController(agent service.IAgentService, tracking service.ITrackingService) IDocumentController {
	return &documentController{agent: agent, tracking: tracking}
}

func (c *documentController) RegisterRoutes(r fiber.Router) {
	r.Post("/documents", c.Upload)
	r.Get("/documents/chat", c.Chat)
	r.Get("/track/:number", c.Track)
	r.Get("/shipments", c.Shipments)
}

func (c *documentController) Upload(ctx *fiber.Ctx) error {
	filename, data, err := readFormFile(ctx, "pdf")
	if err != nil {
		return err
	}
	if err := c.agent.UploadDocument(ctx.UserContext(), filename, data); err != nil {
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse("Document uploaded successfully", c.agent.State().Documents))
}

func (c *documentController) Chat(ctx *fiber.Ctx) error {
	var req dto.AskDocumentsRequest
	if err := ctx.QueryParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "Invalid query")
	}
	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}

	answer, err := c.tracking.AskDocuments(ctx.UserContext(), req.Message)
	if err != nil {
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse("Answer", dto.DocumentAnswerResponse{Answer: answer}))
}

func (c *documentController) Track(ctx *fiber.Ctx) error {
	info, err := c.tracking.Track(ctx.UserContext(), ctx.Params("number"))
	if err != nil {
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse("Tracking info", info))
}

func (c *documentController) Shipments(ctx *fiber.Ctx) error {
	shipments, err := c.tracking.Shipments(ctx.UserContext())
	if err != nil {
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse("Recent shipments", shipments))
}
