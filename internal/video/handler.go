package video

import (
	"errors"
	"net/http"

	"coursepay/internal/api"
	"coursepay/internal/catalog"
	"coursepay/internal/logger"

	"github.com/gin-gonic/gin"
)

type CreateVideoRequest struct {
	Title string `json:"title" binding:"required"`
}

type PlaybackQuery struct {
	UserID string `form:"userId" binding:"required"`
	ItemID string `form:"itemId" binding:"required"`
}

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

// @Summary      Create video upload
// @Tags         videos
// @Accept       json
// @Produce      json
// @Param        request  body      CreateVideoRequest  true  "Video"
// @Success      201      {object}  UploadCredentials
// @Failure      400      {object}  api.ErrorResponse
// @Failure      502      {object}  api.ErrorResponse
// @Router       /videos [post]
func (h *Handler) Create(c *gin.Context) {
	var req CreateVideoRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		api.BindError(c, err)
		return
	}

	creds, err := h.svc.CreateUpload(c.Request.Context(), req.Title)
	if errors.Is(err, ErrProvider) {
		api.ProviderError(c, "failed to create video", err)
		return
	}
	if err != nil {
		api.Error(c, http.StatusBadRequest, err.Error())
		return
	}

	c.JSON(http.StatusCreated, creds)
}

// @Summary      Signed playback URL
// @Tags         videos
// @Produce      json
// @Param        videoId  path      string  true  "Video id"
// @Param        userId   query     string  true  "Viewer id"
// @Param        itemId   query     string  true  "Course or playlist id"
// @Success      200      {object}  Playback
// @Failure      403      {object}  api.ErrorResponse
// @Failure      404      {object}  api.ErrorResponse
// @Router       /videos/{videoId}/playback [get]
func (h *Handler) Playback(c *gin.Context) {
	var q PlaybackQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		api.BindError(c, err)
		return
	}

	pb, err := h.svc.Playback(c.Request.Context(), q.UserID, q.ItemID, c.Param("videoId"))
	switch {
	case err == nil:
		c.JSON(http.StatusOK, pb)
	case errors.Is(err, catalog.ErrItemNotFound):
		api.Error(c, http.StatusNotFound, "item not found")
	case errors.Is(err, ErrForbidden):
		api.Error(c, http.StatusForbidden, err.Error())
	default:
		logger.Error("failed to issue playback url", "user_id", q.UserID, "item_id", q.ItemID, "error", err)
		api.Error(c, http.StatusInternalServerError, "failed to issue playback url")
	}
}
