package controller

import (
	"fmt"
	"io"

	"github.com/gofiber/fiber/v2"
)

// readFormFile loads the multipart file under field into memory.
func readFormFile(ctx *fiber.Ctx, field string) (string, []byte, error) {
	header, err := ctx.FormFile(field)
	if err != nil {
		return "", nil, fiber.NewError(fiber.StatusBadRequest, fmt.Sprintf("multipart field %q is required", field))
	}
	file, err := header.Open()
	if err != nil {
		return "", nil, err
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		return "", nil, err
	}
	if len(data) == 0 {
		return "", nil, fiber.NewError(fiber.StatusBadRequest, "file is empty")
	}
	return header.Filename, data, nil
}
