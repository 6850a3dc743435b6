package adminlog

import (
	"net/http"
	"strconv"

	"coursepay/internal/api"
	"coursepay/internal/logger"

	"github.com/gin-gonic/gin"
)

type Handler struct {
	store *Store
}

func NewHandler(store *Store) *Handler {
	return &Handler{store: store}
}

// @Summary      Recent admin events
// @Tags         admin
// @Produce      json
// @Security     BearerAuth
// @Param        limit  query     int  false  "Max events"
// @Success      200    {array}   Event
// @Failure      401    {object}  api.ErrorResponse
// @Router       /admin/events [get]
func (h *Handler) List(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "100"))

	events, err := h.store.List(c.Request.Context(), limit)
	if err != nil {
		logger.Error("failed to list admin events", "error", err)
		api.Error(c, http.StatusInternalServerError, "failed to list admin events")
		return
	}

	c.JSON(http.StatusOK, events)
}
