package controller

import (
	"freightchat/internal/pkg/serverutils"
	"freightchat/internal/service"

	"github.com/gofiber/fiber/v2"
)

type IMetadataController interface {
	RegisterRoutes(r fiber.Router)
	List(ctx *fiber.Ctx) error
	Refresh(ctx *fiber.Ctx) error
	Invoice(ctx *fiber.Ctx) error
	Document(ctx *fiber.Ctx) error
}

type metadataController struct {
	service service.IMetadataService
}

func NewMetadataController(service service.IMetadataService) IMetadataController {
	return &metadataController{service: service}
}

func (c *metadataController) RegisterRoutes(r fiber.Router) {
	h := r.Group("/metadata")
	h.Get("/", c.List)
	h.Post("/refresh", c.Refresh)
	h.Get("/invoices/:id", c.Invoice)
	h.Get("/documents/:id", c.Document)
}

func (c *metadataController) List(ctx *fiber.Ctx) error {
	return ctx.JSON(serverutils.SuccessResponse("Document metadata", c.service.List()))
}

func (c *metadataController) Refresh(ctx *fiber.Ctx) error {
	res, err := c.service.Refresh(ctx.UserContext())
	if err != nil {
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse("Document metadata refreshed", res))
}

func (c *metadataController) Invoice(ctx *fiber.Ctx) error {
	rec, err := c.service.Invoice(ctx.UserContext(), ctx.Params("id"))
	if err != nil {
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse("Invoice details", rec))
}

func (c *metadataController) Document(ctx *fiber.Ctx) error {
	rec, err := c.service.Document(ctx.UserContext(), ctx.Params("id"))
	if err != nil {
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse("Document details", rec))
}
