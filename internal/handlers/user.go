package handlers

import (
	"net/http"

	"socal/internal/services"

	"github.com/gin-gonic/gin"
)

type UserHandler struct {
	users *services.UserService
}

func NewUserHandler(users *services.UserService) *UserHandler {
	return &UserHandler{users: users}
}

// Profile returns the caller's own account.
func (h *UserHandler) Profile(c *gin.Context) {
	user, err := h.users.Get(c.Request.Context(), mustPrincipal(c).ID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"userName": user.Username,
		"email":    user.Email,
		"id":       user.ID,
	})
}

// DeleteAccount removes the caller's account. Tokens already issued keep
// validating until they expire.
func (h *UserHandler) DeleteAccount(c *gin.Context) {
	if err := h.users.Delete(c.Request.Context(), mustPrincipal(c).ID); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
