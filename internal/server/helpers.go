package server

import (
	"errors"
	"strings"
	"unicode"

	"agora/internal/middleware"
	"agora/internal/models"
	"agora/internal/service"
	"agora/internal/tenant"

	"github.com/gofiber/fiber/v2"
)

// errResponseWritten is a sentinel indicating the HTTP response was already
// committed by a helper.  Handlers must return nil (not this error) to avoid
// Fiber's ErrorHandler overwriting the response.
var errResponseWritten = errors.New("response already written")

const tenantLocal = "tenant"

// parsePagination extracts limit and offset query parameters, clamped by
// service.NewPage.
func parsePagination(c *fiber.Ctx) service.Page {
	return service.NewPage(c.QueryInt("limit", service.DefaultPageSize), c.QueryInt("offset", 0))
}

// parseID extracts a route parameter by name as a positive uint.
// On failure it writes a 400 JSON response and returns errResponseWritten.
// Callers should check: if err != nil { return nil }
// The error message is derived from the parameter name (e.g. "id" -> "Invalid ID",
// "replyId" -> "Invalid reply ID").
func parseID(c *fiber.Ctx, param string) (uint, error) {
	id, err := c.ParamsInt(param)
	if err != nil || id <= 0 {
		_ = models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid "+humanizeParam(param)))
		return 0, errResponseWritten
	}
	return uint(id), nil
}

// humanizeParam converts a route param name into a human-readable label.
// Examples: "id" -> "ID", "replyId" -> "reply ID", "parentReplyId" -> "parent reply ID".
func humanizeParam(param string) string {
	if param == "id" {
		return "ID"
	}
	if strings.HasSuffix(param, "Id") {
		words := splitCamel(param[:len(param)-2])
		return strings.ToLower(strings.Join(words, " ")) + " ID"
	}
	return param
}

// splitCamel splits a camelCase string into words.
func splitCamel(s string) []string {
	var words []string
	start := 0
	for i, r := range s {
		if i > 0 && unicode.IsUpper(r) {
			words = append(words, s[start:i])
			start = i
		}
	}
	words = append(words, s[start:])
	return words
}

// parseEntityType reads the :entityType route parameter.
func parseEntityType(c *fiber.Ctx) (models.EntityType, error) {
	et := models.EntityType(c.Params("entityType"))
	if !et.Valid() {
		_ = models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid entity type"))
		return "", errResponseWritten
	}
	return et, nil
}

// parseStatuses splits a comma separated status list, skipping blanks.
func parseStatuses(raw string) []models.ContentStatus {
	var out []models.ContentStatus
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, models.ContentStatus(strings.ToLower(part)))
		}
	}
	return out
}

// bindJSON parses the request body into dst, writing a 400 on failure.
func bindJSON(c *fiber.Ctx, dst any) error {
	if err := c.BodyParser(dst); err != nil {
		_ = models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
		return errResponseWritten
	}
	return nil
}

// respondError writes err with the status its code maps to.
func respondError(c *fiber.Ctx, err error) error {
	return models.RespondWithError(c, models.StatusFor(err), err)
}

// caller returns the authenticated user reference. Routes using it sit
// behind Authenticate.
func caller(c *fiber.Ctx) models.UserRef {
	p, _ := middleware.CurrentPrincipal(c)
	return p.Ref()
}

// forum returns the services bound to the request's tenant.
func (s *Server) forum(c *fiber.Ctx) *service.Forum {
	tc := c.Locals(tenantLocal).(*tenant.Context)
	return service.NewForum(tc, s.forumDeps)
}
