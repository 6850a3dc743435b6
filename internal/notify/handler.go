package notify

import (
	"net/http"

	"coursepay/internal/api"

	"github.com/gin-gonic/gin"
)

type SendRequest struct {
	Token string            `json:"token" binding:"required"`
	Title string            `json:"title" binding:"required,max=200"`
	Body  string            `json:"body" binding:"required,max=2000"`
	Data  map[string]string `json:"data"`
}

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

// Send godoc
// @Summary      Queue push notification
// @Tags         notifications
// @Accept       json
// @Produce      json
// @Param        request  body      SendRequest  true  "Notification"
// @Success      202      {object}  api.SuccessResponse
// @Failure      400      {object}  api.ErrorResponse
// @Failure      503      {object}  api.ErrorResponse
// @Router       /send-notification [post]
func (h *Handler) Send(c *gin.Context) {
	var req SendRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		api.BindError(c, err)
		return
	}

	msg := Message{Token: req.Token, Title: req.Title, Body: req.Body, Data: req.Data}
	if err := h.svc.Enqueue(c.Request.Context(), msg); err != nil {
		api.Error(c, http.StatusServiceUnavailable, "failed to queue notification")
		return
	}

	c.JSON(http.StatusAccepted, api.SuccessResponse{Success: true})
}
