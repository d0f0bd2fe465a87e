package server

import (
	"github.com/gofiber/fiber/v2"
)

// ToggleLike handles POST /api/likes/:entityType/:id/toggle
// @Summary Toggle a like
// @Tags likes
// @Produce json
// @Param entityType path string true "discussion or reply"
// @Param id path int true "Entity ID"
// @Success 200 {object} service.LikeState
// @Failure 400 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Security BearerAuth
// @Router /likes/{entityType}/{id}/toggle [post]
func (s *Server) ToggleLike(c *fiber.Ctx) error {
	entityType, err := parseEntityType(c)
	if err != nil {
		return nil
	}
	id, err := parseID(c, "id")
	if err != nil {
		return nil
	}
	state, err := s.forum(c).Engagement.ToggleLike(c.UserContext(), entityType, id, caller(c))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(state)
}

// Like handles POST /api/likes/:entityType/:id
// @Summary Like an entity
// @Description Idempotent. Liking twice leaves a single like.
// @Tags likes
// @Produce json
// @Param entityType path string true "discussion or reply"
// @Param id path int true "Entity ID"
// @Success 200 {object} service.LikeState
// @Failure 400 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Security BearerAuth
// @Router /likes/{entityType}/{id} [post]
func (s *Server) Like(c *fiber.Ctx) error {
	entityType, err := parseEntityType(c)
	if err != nil {
		return nil
	}
	id, err := parseID(c, "id")
	if err != nil {
		return nil
	}
	state, err := s.forum(c).Engagement.Like(c.UserContext(), entityType, id, caller(c))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(state)
}

// Unlike handles DELETE /api/likes/:entityType/:id
// @Summary Remove a like
// @Tags likes
// @Produce json
// @Param entityType path string true "discussion or reply"
// @Param id path int true "Entity ID"
// @Success 200 {object} service.LikeState
// @Failure 400 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Security BearerAuth
// @Router /likes/{entityType}/{id} [delete]
func (s *Server) Unlike(c *fiber.Ctx) error {
	entityType, err := parseEntityType(c)
	if err != nil {
		return nil
	}
	id, err := parseID(c, "id")
	if err != nil {
		return nil
	}
	state, err := s.forum(c).Engagement.Unlike(c.UserContext(), entityType, id, caller(c))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(state)
}

// LikeStatus handles GET /api/likes/:entityType/:id
// @Summary Like status for the caller
// @Tags likes
// @Produce json
// @Param entityType path string true "discussion or reply"
// @Param id path int true "Entity ID"
// @Success 200 {object} service.LikeState
// @Failure 404 {object} models.ErrorResponse
// @Security BearerAuth
// @Router /likes/{entityType}/{id} [get]
func (s *Server) LikeStatus(c *fiber.Ctx) error {
	entityType, err := parseEntityType(c)
	if err != nil {
		return nil
	}
	id, err := parseID(c, "id")
	if err != nil {
		return nil
	}
	state, err := s.forum(c).Engagement.LikeStatus(c.UserContext(), entityType, id, caller(c))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(state)
}

// ListLikers handles GET /api/likes/:entityType/:id/users
// @Summary Who liked an entity
// @Tags likes
// @Produce json
// @Param entityType path string true "discussion or reply"
// @Param id path int true "Entity ID"
// @Param limit query int false "Page size"
// @Param offset query int false "Offset"
// @Success 200 {object} models.Page[models.LikerItem]
// @Failure 404 {object} models.ErrorResponse
// @Security BearerAuth
// @Router /likes/{entityType}/{id}/users [get]
func (s *Server) ListLikers(c *fiber.Ctx) error {
	entityType, err := parseEntityType(c)
	if err != nil {
		return nil
	}
	id, err := parseID(c, "id")
	if err != nil {
		return nil
	}
	page, err := s.forum(c).Engagement.ListLikers(c.UserContext(), entityType, id, parsePagination(c))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(page)
}

// UnreadCounts handles GET /api/me/unread
// @Summary Unread counts for the caller
// @Tags me
// @Produce json
// @Success 200 {object} models.UnreadCounts
// @Security BearerAuth
// @Router /me/unread [get]
func (s *Server) UnreadCounts(c *fiber.Ctx) error {
	counts, err := s.forum(c).Engagement.UnreadCounts(c.UserContext(), caller(c))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(counts)
}

// ListMentions handles GET /api/me/mentions
// @Summary Mentions of the caller
// @Tags me
// @Produce json
// @Param limit query int false "Page size"
// @Param offset query int false "Offset"
// @Success 200 {object} models.Page[models.MentionItem]
// @Security BearerAuth
// @Router /me/mentions [get]
func (s *Server) ListMentions(c *fiber.Ctx) error {
	page, err := s.forum(c).Query.ListMentionsForUser(c.UserContext(), caller(c), parsePagination(c))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(page)
}

// MentionCandidates handles GET /api/members/mentionable
// @Summary Members matching a mention prefix
// @Tags me
// @Produce json
// @Param q query string false "Handle or name prefix"
// @Param limit query int false "Maximum results"
// @Success 200 {array} models.UserSummary
// @Security BearerAuth
// @Router /members/mentionable [get]
func (s *Server) MentionCandidates(c *fiber.Ctx) error {
	users, err := s.forum(c).Query.MentionCandidates(c.UserContext(), c.Query("q"), c.QueryInt("limit", 0))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(users)
}
