package controller

import (
	"freightchat/internal/dto"
	"freightchat/internal/pkg/serverutils"
	"freightchat/internal/service"

	"github.com/gofiber/fiber/v2"
)

type IAgentController interface {
	RegisterRoutes(r fiber.Router)
	Start(ctx *fiber.Ctx) error
	SetInput(ctx *fiber.Ctx) error
	SendMessage(ctx *fiber.Ctx) error
	Book(ctx *fiber.Ctx) error
	Stage(ctx *fiber.Ctx) error
	Unstage(ctx *fiber.Ctx) error
	Upload(ctx *fiber.Ctx) error
	Skip(ctx *fiber.Ctx) error
	UploadInvoice(ctx *fiber.Ctx) error
	Invoices(ctx *fiber.Ctx) error
}

type agentController struct {
	service service.IAgentService
}

func NewAgentController(service service.IAgentService) IAgentController {
	return &agentController{service: service}
}

func (c *agentController) RegisterRoutes(r fiber.Router) {
	h := r.Group("/agent")
	h.Post("/start", c.Start)
	h.Post("/input", c.SetInput)
	h.Post("/message", c.SendMessage)
	h.Post("/book", c.Book)
	h.Post("/upload/stage", c.Stage)
	h.Delete("/upload/stage", c.Unstage)
	h.Post("/upload/skip", c.Skip)
	h.Post("/upload", c.Upload)
	h.Post("/invoice", c.UploadInvoice)
	h.Get("/invoices", c.Invoices)
}

// every dialogue command answers with the resulting state
func (c *agentController) state(ctx *fiber.Ctx, message string) error {
	return ctx.JSON(serverutils.SuccessResponse(message, c.service.State()))
}

func (c *agentController) Start(ctx *fiber.Ctx) error {
	if err := c.service.StartThread(ctx.UserContext()); err != nil {
		return err
	}
	return c.state(ctx, "Conversation started")
}

func (c *agentController) SetInput(ctx *fiber.Ctx) error {
	var req dto.TextRequest
	if err := ctx.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
	}
	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}
	c.service.SetInput(req.Text)
	return ctx.JSON(serverutils.SuccessResponse[any]("Input updated", nil))
}

func (c *agentController) SendMessage(ctx *fiber.Ctx) error {
	var req dto.TextRequest
	if err := ctx.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
	}
	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}
	if err := c.service.SendMessage(ctx.UserContext(), req.Text); err != nil {
		return err
	}
	return c.state(ctx, "Message sent")
}

func (c *agentController) Book(ctx *fiber.Ctx) error {
	var req dto.BookRequest
	if err := ctx.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
	}
	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}
	if err := c.service.Book(ctx.UserContext(), &req); err != nil {
		return err
	}
	return c.state(ctx, "Shipment booked")
}

func (c *agentController) Stage(ctx *fiber.Ctx) error {
	filename, data, err := readFormFile(ctx, "file")
	if err != nil {
		return err
	}
	res, err := c.service.StageFile(filename, data)
	if err != nil {
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse("File staged", res))
}

func (c *agentController) Unstage(ctx *fiber.Ctx) error {
	if err := c.service.Unstage(); err != nil {
		return err
	}
	return c.state(ctx, "File removed")
}

func (c *agentController) Upload(ctx *fiber.Ctx) error {
	if err := c.service.UploadStaged(ctx.UserContext()); err != nil {
		return err
	}
	return c.state(ctx, "Upload complete")
}

func (c *agentController) Skip(ctx *fiber.Ctx) error {
	c.service.Skip()
	return c.state(ctx, "Upload skipped")
}

func (c *agentController) UploadInvoice(ctx *fiber.Ctx) error {
	filename, data, err := readFormFile(ctx, "invoice")
	if err != nil {
		return err
	}
	if err := c.service.UploadInvoice(ctx.UserContext(), filename, data); err != nil {
		return err
	}
	return c.state(ctx, "Invoice uploaded successfully")
}

func (c *agentController) Invoices(ctx *fiber.Ctx) error {
	invoices, err := c.service.RefreshInvoices(ctx.UserContext())
	if err != nil {
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse("Session invoices", invoices))
}
