package server

import (
	"agora/internal/service"

	"github.com/gofiber/fiber/v2"
)

type createReplyRequest struct {
	Content       string                    `json:"content"`
	ParentReplyID *uint                     `json:"parent_reply_id"`
	Attachments   []service.AttachmentInput `json:"attachments"`
}

// CreateReply handles POST /api/discussions/:id/replies
// @Summary Reply to a discussion
// @Description Adds a top-level reply, or a nested one when parent_reply_id is set.
// @Tags replies
// @Accept json
// @Produce json
// @Param id path int true "Discussion ID"
// @Param request body createReplyRequest true "Reply"
// @Success 201 {object} models.ReplyItem
// @Failure 400 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Security BearerAuth
// @Router /discussions/{id}/replies [post]
func (s *Server) CreateReply(c *fiber.Ctx) error {
	discussionID, err := parseID(c, "id")
	if err != nil {
		return nil
	}
	var req createReplyRequest
	if err := bindJSON(c, &req); err != nil {
		return nil
	}

	item, err := s.forum(c).Replies.CreateReply(c.UserContext(), service.CreateReplyInput{
		Actor:         caller(c),
		DiscussionID:  discussionID,
		ParentReplyID: req.ParentReplyID,
		Content:       req.Content,
		Attachments:   req.Attachments,
	})
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(item)
}

// ListReplies handles GET /api/discussions/:id/replies
// @Summary List top-level replies
// @Tags replies
// @Produce json
// @Param id path int true "Discussion ID"
// @Param limit query int false "Page size"
// @Param offset query int false "Offset"
// @Success 200 {object} models.Page[models.ReplyItem]
// @Failure 404 {object} models.ErrorResponse
// @Security BearerAuth
// @Router /discussions/{id}/replies [get]
func (s *Server) ListReplies(c *fiber.Ctx) error {
	discussionID, err := parseID(c, "id")
	if err != nil {
		return nil
	}
	page, err := s.forum(c).Replies.ListTopLevelReplies(c.UserContext(), discussionID, parsePagination(c), caller(c))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(page)
}

// ListSubReplies handles GET /api/replies/:id/replies
// @Summary List direct children of a reply
// @Tags replies
// @Produce json
// @Param id path int true "Reply ID"
// @Param limit query int false "Page size"
// @Param offset query int false "Offset"
// @Success 200 {object} models.Page[models.ReplyItem]
// @Failure 404 {object} models.ErrorResponse
// @Security BearerAuth
// @Router /replies/{id}/replies [get]
func (s *Server) ListSubReplies(c *fiber.Ctx) error {
	parentID, err := parseID(c, "id")
	if err != nil {
		return nil
	}
	page, err := s.forum(c).Replies.ListSubReplies(c.UserContext(), parentID, parsePagination(c), caller(c))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(page)
}

// GetReply handles GET /api/replies/:id
// @Summary Get a reply
// @Tags replies
// @Produce json
// @Param id path int true "Reply ID"
// @Success 200 {object} models.ReplyItem
// @Failure 404 {object} models.ErrorResponse
// @Security BearerAuth
// @Router /replies/{id} [get]
func (s *Server) GetReply(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return nil
	}
	item, err := s.forum(c).Replies.GetReply(c.UserContext(), id, caller(c))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(item)
}

// UpdateReply handles PUT /api/replies/:id
// @Summary Edit a reply
// @Tags replies
// @Accept json
// @Produce json
// @Param id path int true "Reply ID"
// @Param request body object{content=string} true "New content"
// @Success 200 {object} models.ReplyItem
// @Failure 400 {object} models.ErrorResponse
// @Failure 403 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Security BearerAuth
// @Router /replies/{id} [put]
func (s *Server) UpdateReply(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return nil
	}
	var req struct {
		Content string `json:"content"`
	}
	if err := bindJSON(c, &req); err != nil {
		return nil
	}

	item, err := s.forum(c).Replies.UpdateReply(c.UserContext(), service.UpdateReplyInput{
		Actor:   caller(c),
		ReplyID: id,
		Content: req.Content,
	})
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(item)
}

// DeleteReply handles DELETE /api/replies/:id
// @Summary Delete a reply and its subtree
// @Tags replies
// @Param id path int true "Reply ID"
// @Success 204
// @Failure 403 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Security BearerAuth
// @Router /replies/{id} [delete]
func (s *Server) DeleteReply(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return nil
	}
	if err := s.forum(c).Replies.DeleteReply(c.UserContext(), id, caller(c)); err != nil {
		return respondError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}
