package purchase

import (
	"net/http"

	"coursepay/internal/api"
	"coursepay/internal/logger"

	"github.com/gin-gonic/gin"
)

type AutoCreditResponse struct {
	Success bool `json:"success"`
	SweepResult
}

type Handler struct {
	svc       *GrantService
	batchSize int
}

func NewHandler(svc *GrantService, batchSize int) *Handler {
	return &Handler{svc: svc, batchSize: batchSize}
}

// @Summary      Auto-credit sweep
// @Tags         wallet
// @Produce      json
// @Param        X-Cron-Key  header    string  true  "Cron key"
// @Success      200         {object}  AutoCreditResponse
// @Failure      401         {object}  api.ErrorResponse
// @Failure      500         {object}  api.ErrorResponse
// @Router       /wallet/auto-credit [post]
// AutoCredit runs one reconciliation sweep. Guarded by the cron key.
func (h *Handler) AutoCredit(c *gin.Context) {
	res, err := h.svc.AutoCredit(c.Request.Context(), h.batchSize)
	if err != nil {
		logger.Error("auto-credit sweep failed", "error", err)
		api.Error(c, http.StatusInternalServerError, "auto-credit failed")
		return
	}

	c.JSON(http.StatusOK, AutoCreditResponse{Success: true, SweepResult: *res})
}
