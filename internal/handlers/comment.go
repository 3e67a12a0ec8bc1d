package handlers

import (
	"fmt"
	"net/http"

	"socal/internal/middleware"
	"socal/internal/services"

	"github.com/gin-gonic/gin"
)

type CommentHandler struct {
	comments *services.CommentService
}

func NewCommentHandler(comments *services.CommentService) *CommentHandler {
	return &CommentHandler{comments: comments}
}

func (h *CommentHandler) List(c *gin.Context) {
	postID, ok := pathID(c, "id")
	if !ok {
		return
	}
	comments, err := h.comments.ListRoot(c.Request.Context(), postID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, comments)
}

// Create is routed without AuthRequired; the service rejects anonymous
// callers itself.
func (h *CommentHandler) Create(c *gin.Context) {
	postID, ok := pathID(c, "id")
	if !ok {
		return
	}

	var principal *services.Principal
	if p, ok := middleware.CurrentPrincipal(c); ok {
		principal = &p
	}

	var in services.CommentInput
	if err := c.ShouldBindJSON(&in); err != nil {
		if principal == nil {
			respondError(c, fmt.Errorf("%w: sign in to comment", services.ErrAuthentication))
			return
		}
		c.JSON(http.StatusBadRequest, gin.H{"message": "Invalid request body"})
		return
	}

	comment, err := h.comments.Create(c.Request.Context(), principal, postID, in)
	if err != nil {
		respondError(c, err)
		return
	}
	c.Header("Location", fmt.Sprintf("/api/comments/%d", comment.ID))
	c.JSON(http.StatusCreated, comment)
}

func (h *CommentHandler) Delete(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	if err := h.comments.Delete(c.Request.Context(), mustPrincipal(c), id); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
