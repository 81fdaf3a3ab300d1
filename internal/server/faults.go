package server

import (
	"github.com/gofiber/fiber/v3"

	"github.com/pthm/visage"
)

// writeFault maps the fault taxonomy onto HTTP responses. Known faults keep
// their status and machine-readable detail; everything else becomes a generic
// 500 with no internal detail, since the directory already logged it at the
// operation boundary.
func writeFault(c fiber.Ctx, err error) error {
	if vf, ok := visage.AsValidationFault(err); ok {
		body := fiber.Map{"error": vf.Message}
		if len(vf.Fields) > 0 {
			body["parameters"] = vf.Fields
		}
		return c.Status(vf.Status).JSON(body)
	}

	if af, ok := visage.AsAuthFault(err); ok {
		body := fiber.Map{"error": af.Message}
		if af.Code != "" {
			body["code"] = af.Code
		}
		return c.Status(af.Status).JSON(body)
	}

	if visage.IsNotFoundErr(err) {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "User code does not exist",
		})
	}

	return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
		"error": "Unexpected server error",
	})
}
