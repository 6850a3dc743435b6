package wallet

import (
	"errors"
	"net/http"
	"strconv"

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

// @Summary      Teacher wallet
// @Tags         wallet
// @Produce      json
// @Param        teacherId  path      string  true  "Teacher id"
// @Success      200        {object}  Wallet
// @Failure      404        {object}  api.ErrorResponse
// @Router       /wallet/{teacherId} [get]
func (h *Handler) GetWallet(c *gin.Context) {
	teacherID := c.Param("teacherId")

	w, err := h.repo.Get(c.Request.Context(), teacherID)
	if errors.Is(err, ErrWalletNotFound) {
		api.Error(c, http.StatusNotFound, "wallet not found")
		return
	}
	if err != nil {
		logger.Error("failed to load wallet", "teacher_id", teacherID, "error", err)
		api.Error(c, http.StatusInternalServerError, "failed to load wallet")
		return
	}

	c.JSON(http.StatusOK, w)
}

// @Summary      Wallet entries
// @Tags         wallet
// @Produce      json
// @Param        teacherId  path      string  true   "Teacher id"
// @Param        limit      query     int     false  "Page size"
// @Param        offset     query     int     false  "Offset"
// @Success      200        {array}   Entry
// @Router       /wallet/{teacherId}/entries [get]
func (h *Handler) ListEntries(c *gin.Context) {
	teacherID := c.Param("teacherId")
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))
	offset, _ := strconv.Atoi(c.DefaultQuery("offset", "0"))

	entries, err := h.repo.GetEntries(c.Request.Context(), teacherID, limit, offset)
	if err != nil {
		logger.Error("failed to load wallet entries", "teacher_id", teacherID, "error", err)
		api.Error(c, http.StatusInternalServerError, "failed to load wallet entries")
		return
	}

	c.JSON(http.StatusOK, entries)
}
