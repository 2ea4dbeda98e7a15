package auth

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/grievance-service/internal/domain"
	apperrors "github.com/spec-kit/grievance-service/pkg/util/errorutil"
)

// RequireActorType ensures the caller is one of the allowed actor types.
func RequireActorType(allowed ...domain.ActorType) fiber.Handler {
	allowedSet := make(map[domain.ActorType]struct{}, len(allowed))
	for _, t := range allowed {
		allowedSet[t] = struct{}{}
	}

	return func(c *fiber.Ctx) error {
		principal, ok := PrincipalFromContext(c)
		if !ok {
			return apperrors.NewUnauthorized("authentication required")
		}
		if _, exists := allowedSet[principal.Actor.Type]; !exists {
			return apperrors.NewForbidden("insufficient role")
		}
		return c.Next()
	}
}

// RequireAnyActor ensures the caller is authenticated.
func RequireAnyActor() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if _, ok := PrincipalFromContext(c); !ok {
			return apperrors.NewUnauthorized("authentication required")
		}
		return c.Next()
	}
}

// ActorFromContext returns the caller's actor. Anonymous callers act as
// citizens without an id.
func ActorFromContext(c *fiber.Ctx) domain.Actor {
	if principal, ok := PrincipalFromContext(c); ok {
		return principal.Actor
	}
	return domain.Actor{Type: domain.ActorCitizen}
}
