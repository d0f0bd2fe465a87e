package server

import (
	"agora/internal/models"
	"agora/internal/service"

	"github.com/gofiber/fiber/v2"
)

type createDiscussionRequest struct {
	Title       string                    `json:"title"`
	Body        string                    `json:"body"`
	Type        models.DiscussionType     `json:"type"`
	Tags        []string                  `json:"tags"`
	Attachments []service.AttachmentInput `json:"attachments"`
	service.MeetingInput
}

type updateDiscussionRequest struct {
	Title   *string               `json:"title"`
	Body    *string               `json:"body"`
	Tags    *[]string             `json:"tags"`
	Meeting *service.MeetingInput `json:"meeting"`
}

// CreateDiscussion handles POST /api/discussions
// @Summary Create a discussion
// @Description Creates a discussion in the caller's tenant. Meeting discussions are limited to staff and admins.
// @Tags discussions
// @Accept json
// @Produce json
// @Param request body createDiscussionRequest true "Discussion"
// @Success 201 {object} models.DiscussionItem
// @Failure 400 {object} models.ErrorResponse
// @Failure 403 {object} models.ErrorResponse
// @Security BearerAuth
// @Router /discussions [post]
func (s *Server) CreateDiscussion(c *fiber.Ctx) error {
	var req createDiscussionRequest
	if err := bindJSON(c, &req); err != nil {
		return nil
	}
	if req.Type == "" {
		req.Type = models.DiscussionTypeDiscussion
	}

	item, err := s.forum(c).Discussions.CreateDiscussion(c.UserContext(), service.CreateDiscussionInput{
		Actor:       caller(c),
		Title:       req.Title,
		Body:        req.Body,
		Type:        req.Type,
		Tags:        req.Tags,
		Meeting:     req.MeetingInput,
		Attachments: req.Attachments,
	})
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(item)
}

// ListDiscussions handles GET /api/discussions
// @Summary List discussions
// @Description Pages discussions with filters. Pinned discussions of the caller come first unless pinned_first=false.
// @Tags discussions
// @Produce json
// @Param type query string false "Discussion type"
// @Param tag query string false "Tag"
// @Param status query string false "Comma separated statuses (active, archived, reported)"
// @Param creator_id query int false "Creator user ID"
// @Param creator_role query string false "Creator role"
// @Param q query string false "Search in title and body"
// @Param sort query string false "newest, oldest, most_replies, most_likes, recent_activity"
// @Param pinned_only query bool false "Only pinned"
// @Param unread_only query bool false "Only unread"
// @Param pinned_first query bool false "Pinned first (default true)"
// @Param limit query int false "Page size"
// @Param offset query int false "Offset"
// @Success 200 {object} models.Page[models.DiscussionItem]
// @Failure 400 {object} models.ErrorResponse
// @Security BearerAuth
// @Router /discussions [get]
func (s *Server) ListDiscussions(c *fiber.Ctx) error {
	filter := service.DiscussionFilter{
		Type:        models.DiscussionType(c.Query("type")),
		Tag:         c.Query("tag"),
		Statuses:    parseStatuses(c.Query("status")),
		PinnedOnly:  c.QueryBool("pinned_only", false),
		UnreadOnly:  c.QueryBool("unread_only", false),
		Search:      c.Query("q"),
		Sort:        c.Query("sort"),
		PinnedFirst: c.QueryBool("pinned_first", true),
	}
	if creatorID := c.QueryInt("creator_id", 0); creatorID > 0 {
		role := models.Role(c.Query("creator_role", string(models.RoleMember)))
		if !role.Valid() {
			return models.RespondWithError(c, fiber.StatusBadRequest,
				models.NewValidationError("Invalid creator role"))
		}
		filter.Creator = &models.UserRef{ID: uint(creatorID), Role: role}
	}

	page, err := s.forum(c).Query.ListDiscussions(c.UserContext(), filter, parsePagination(c), caller(c))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(page)
}

// GetDiscussion handles GET /api/discussions/:id
// @Summary Get a discussion
// @Tags discussions
// @Produce json
// @Param id path int true "Discussion ID"
// @Success 200 {object} models.DiscussionItem
// @Failure 404 {object} models.ErrorResponse
// @Security BearerAuth
// @Router /discussions/{id} [get]
func (s *Server) GetDiscussion(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return nil
	}
	item, err := s.forum(c).Discussions.GetDiscussion(c.UserContext(), id, caller(c))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(item)
}

// UpdateDiscussion handles PUT /api/discussions/:id
// @Summary Edit a discussion
// @Description Owner or admin only. Omitted fields are left unchanged.
// @Tags discussions
// @Accept json
// @Produce json
// @Param id path int true "Discussion ID"
// @Param request body updateDiscussionRequest true "Changes"
// @Success 200 {object} models.DiscussionItem
// @Failure 400 {object} models.ErrorResponse
// @Failure 403 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Security BearerAuth
// @Router /discussions/{id} [put]
func (s *Server) UpdateDiscussion(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return nil
	}
	var req updateDiscussionRequest
	if err := bindJSON(c, &req); err != nil {
		return nil
	}

	item, err := s.forum(c).Discussions.UpdateDiscussion(c.UserContext(), service.UpdateDiscussionInput{
		Actor:   caller(c),
		ID:      id,
		Title:   req.Title,
		Body:    req.Body,
		Tags:    req.Tags,
		Meeting: req.Meeting,
	})
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(item)
}

// DeleteDiscussion handles DELETE /api/discussions/:id
// @Summary Delete a discussion
// @Description Soft deletes the discussion and everything hanging off it. Owner or admin only.
// @Tags discussions
// @Param id path int true "Discussion ID"
// @Success 204
// @Failure 403 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Security BearerAuth
// @Router /discussions/{id} [delete]
func (s *Server) DeleteDiscussion(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return nil
	}
	if err := s.forum(c).Discussions.DeleteDiscussion(c.UserContext(), id, caller(c)); err != nil {
		return respondError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// ArchiveDiscussion handles POST /api/discussions/:id/archive
// @Summary Archive a discussion
// @Description Staff and admins only. Archiving an archived discussion is a no-op.
// @Tags discussions
// @Produce json
// @Param id path int true "Discussion ID"
// @Success 200 {object} models.DiscussionItem
// @Failure 403 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Security BearerAuth
// @Router /discussions/{id}/archive [post]
func (s *Server) ArchiveDiscussion(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return nil
	}
	item, err := s.forum(c).Discussions.ArchiveDiscussion(c.UserContext(), id, caller(c))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(item)
}

// MarkViewed handles POST /api/discussions/:id/view
// @Summary Record a view
// @Tags discussions
// @Produce json
// @Param id path int true "Discussion ID"
// @Success 200 {object} object{viewed=bool}
// @Failure 404 {object} models.ErrorResponse
// @Security BearerAuth
// @Router /discussions/{id}/view [post]
func (s *Server) MarkViewed(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return nil
	}
	if err := s.forum(c).Engagement.MarkViewed(c.UserContext(), caller(c), id); err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"viewed": true})
}

// TogglePin handles POST /api/discussions/:id/pin/toggle
// @Summary Toggle a personal pin
// @Tags discussions
// @Produce json
// @Param id path int true "Discussion ID"
// @Success 200 {object} object{pinned=bool}
// @Failure 404 {object} models.ErrorResponse
// @Security BearerAuth
// @Router /discussions/{id}/pin/toggle [post]
func (s *Server) TogglePin(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return nil
	}
	pinned, err := s.forum(c).Engagement.TogglePin(c.UserContext(), id, caller(c))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"pinned": pinned})
}

// PinStatus handles GET /api/discussions/:id/pin
// @Summary Personal pin status
// @Tags discussions
// @Produce json
// @Param id path int true "Discussion ID"
// @Success 200 {object} object{pinned=bool}
// @Failure 404 {object} models.ErrorResponse
// @Security BearerAuth
// @Router /discussions/{id}/pin [get]
func (s *Server) PinStatus(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return nil
	}
	pinned, err := s.forum(c).Engagement.PinStatus(c.UserContext(), id, caller(c))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"pinned": pinned})
}
