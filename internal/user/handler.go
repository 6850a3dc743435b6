package user

import (
	"errors"
	"net/http"

	"coursepay/internal/api"
	"coursepay/internal/logger"

	"github.com/gin-gonic/gin"
)

type Handler struct {
	repo Repository
}

func NewHandler(repo Repository) *Handler {
	return &Handler{repo: repo}
}

// @Summary      Register device token
// @Tags         users
// @Accept       json
// @Produce      json
// @Param        userId   path      string              true  "User id"
// @Param        request  body      DeviceTokenRequest  true  "Device token"
// @Success      200      {object}  api.SuccessResponse
// @Failure      404      {object}  api.ErrorResponse
// @Router       /users/{userId}/device-token [put]
// RegisterDeviceToken stores the push token used for sale notifications.
func (h *Handler) RegisterDeviceToken(c *gin.Context) {
	var req DeviceTokenRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		api.BindError(c, err)
		return
	}

	userID := c.Param("userId")
	err := h.repo.UpdateDeviceToken(c.Request.Context(), userID, req.Token)
	if errors.Is(err, ErrUserNotFound) {
		api.Error(c, http.StatusNotFound, "user not found")
		return
	}
	if err != nil {
		logger.Error("failed to update device token", "user_id", userID, "error", err)
		api.Error(c, http.StatusInternalServerError, "failed to update device token")
		return
	}

	c.JSON(http.StatusOK, api.SuccessResponse{Success: true})
}
