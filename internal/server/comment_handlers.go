// Package server contains HTTP and WebSocket handlers for the application's API endpoints.
package server

import (
	"time"

	"inkwell/internal/models"
	"inkwell/internal/service"

	"github.com/gofiber/fiber/v2"
)

// CreateComment creates a comment on a post (protected). A parent_id in the
// body makes it a reply; replies to nested replies are re-anchored onto the
// direct reply so threads never exceed two tiers.
func (s *Server) CreateComment(c *fiber.Ctx) error {
	ctx := c.UserContext()
	userID := c.Locals("userID").(uint)

	postID, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	var req struct {
		Content  string `json:"content"`
		ParentID *uint  `json:"parent_id,omitempty"`
	}
	if parseErr := c.BodyParser(&req); parseErr != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest, models.NewValidationError("Invalid request body"))
	}

	created, err := s.commentService.CreateComment(ctx, service.CreateCommentInput{
		UserID:   userID,
		PostID:   postID,
		ParentID: req.ParentID,
		Content:  req.Content,
	})
	if err != nil {
		return models.RespondWithError(c, mapServiceError(err), err)
	}

	s.publishBroadcastEvent(EventCommentCreated, map[string]interface{}{
		"post_id":        postID,
		"comment":        created,
		"comments_count": s.commentsCount(c, postID),
		"updated_at":     nowUTC().Format(time.RFC3339Nano),
	})

	return c.Status(fiber.StatusCreated).JSON(created)
}

// GetCommentThread returns the assembled comment thread for a post (public).
// Top-level comments are paginated; each carries its full flattened reply list.
func (s *Server) GetCommentThread(c *fiber.Ctx) error {
	ctx := c.UserContext()

	postID, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	page := parsePagination(c, 20)
	viewerID, _ := s.optionalUserID(c)

	groups, err := s.commentService.GetThread(ctx, service.ThreadInput{
		PostID:   postID,
		ViewerID: viewerID,
		Limit:    page.Limit,
		Offset:   page.Offset,
	})
	if err != nil {
		return models.RespondWithError(c, mapServiceError(err), err)
	}

	return c.JSON(fiber.Map{
		"comments": groups,
		"limit":    page.Limit,
		"offset":   page.Offset,
	})
}

// UpdateComment updates a comment (only owner)
func (s *Server) UpdateComment(c *fiber.Ctx) error {
	ctx := c.UserContext()
	userID := c.Locals("userID").(uint)

	commentID, err := s.parseID(c, "commentId")
	if err != nil {
		return nil
	}

	var req struct {
		Content string `json:"content"`
	}
	if parseErr := c.BodyParser(&req); parseErr != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest, models.NewValidationError("Invalid request body"))
	}

	updated, err := s.commentService.UpdateComment(ctx, service.UpdateCommentInput{
		UserID:    userID,
		CommentID: commentID,
		Content:   req.Content,
	})
	if err != nil {
		return models.RespondWithError(c, mapServiceError(err), err)
	}

	s.publishBroadcastEvent(EventCommentUpdated, map[string]interface{}{
		"post_id":        updated.PostID,
		"comment":        updated,
		"comments_count": s.commentsCount(c, updated.PostID),
		"updated_at":     nowUTC().Format(time.RFC3339Nano),
	})

	return c.JSON(updated)
}

// DeleteComment soft-deletes a comment (owner or admin). The comment stays in
// the thread with its content redacted so replies keep their anchor.
func (s *Server) DeleteComment(c *fiber.Ctx) error {
	ctx := c.UserContext()
	userID := c.Locals("userID").(uint)

	commentID, err := s.parseID(c, "commentId")
	if err != nil {
		return nil
	}

	deleted, err := s.commentService.DeleteComment(ctx, service.DeleteCommentInput{
		UserID:    userID,
		CommentID: commentID,
	})
	if err != nil {
		return models.RespondWithError(c, mapServiceError(err), err)
	}

	s.publishBroadcastEvent(EventCommentDeleted, map[string]interface{}{
		"post_id":        deleted.PostID,
		"comment_id":     commentID,
		"comments_count": s.commentsCount(c, deleted.PostID),
		"updated_at":     nowUTC().Format(time.RFC3339Nano),
	})

	return c.SendStatus(fiber.StatusOK)
}

// LikeComment handles POST /api/posts/:id/comments/:commentId/like (toggle)
func (s *Server) LikeComment(c *fiber.Ctx) error {
	ctx := c.UserContext()
	userID := c.Locals("userID").(uint)

	commentID, err := s.parseID(c, "commentId")
	if err != nil {
		return nil
	}

	comment, err := s.commentService.ToggleLike(ctx, userID, commentID)
	if err != nil {
		return models.RespondWithError(c, mapServiceError(err), err)
	}

	s.publishBroadcastEvent(EventCommentReactionUpdated, map[string]interface{}{
		"post_id":     comment.PostID,
		"comment_id":  comment.ID,
		"likes_count": comment.LikesCount,
		"updated_at":  nowUTC().Format(time.RFC3339Nano),
	})

	return c.JSON(comment)
}

// commentsCount loads the live comment count for event payloads; failures
// degrade to zero rather than blocking the response.
func (s *Server) commentsCount(c *fiber.Ctx, postID uint) int64 {
	count, err := s.commentRepo.CountByPost(c.UserContext(), postID)
	if err != nil {
		return 0
	}
	return count
}
