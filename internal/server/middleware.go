package server

import (
	"net/textproto"

	"github.com/gofiber/fiber/v3"

	"github.com/pthm/visage"
	"github.com/pthm/visage/internal/authclient"
)

// identityKey is the fiber locals key the authenticate middleware stores the
// resolved requester identity under.
const identityKey = "visage_identity"

// authenticate requires a valid session token on every directory route.
// The token travels in the x-user-token header; more than one copy of the
// header is rejected outright rather than guessing which to trust.
func (s *Server) authenticate(c fiber.Ctx) error {
	tokens := c.GetReqHeaders()[textproto.CanonicalMIMEHeaderKey(authclient.TokenHeader)]

	if len(tokens) > 1 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Received multiple session token headers",
		})
	}
	if len(tokens) == 0 || tokens[0] == "" {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"error": "Authentication required",
		})
	}

	identity, err := s.auth.ValidateToken(c.Context(), tokens[0])
	if err != nil {
		return writeFault(c, err)
	}

	c.Locals(identityKey, identity)
	return c.Next()
}

// identityFrom returns the identity stored by the authenticate middleware.
func identityFrom(c fiber.Ctx) visage.Identity {
	id, _ := c.Locals(identityKey).(visage.Identity)
	return id
}
