package payout

import (
	"errors"
	"net/http"
	"strconv"

	"coursepay/internal/api"
	"coursepay/internal/logger"
	"coursepay/internal/wallet"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
)

type PayoutRequest struct {
	TeacherID         string          `json:"teacherId" binding:"required"`
	Amount            decimal.Decimal `json:"amount" swaggertype:"string" example:"20.00"`
	PhoneNumber       string          `json:"phoneNumber" binding:"required"`
	Currency          string          `json:"currency"`
	Provider          string          `json:"provider"`
	ClientReferenceID string          `json:"clientReferenceId"`
}

type PayoutResponse struct {
	Success    bool   `json:"success"`
	PayoutID   string `json:"payoutId"`
	ExternalID string `json:"externalId"`
	Status     string `json:"status"`
}

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

// Request godoc
// @Summary      Request payout
// @Description  Reserves the amount on the seller's wallet and sends it to a mobile-money number.
// @Tags         payouts
// @Accept       json
// @Produce      json
// @Param        request  body      PayoutRequest  true  "Payout request"
// @Success      200      {object}  PayoutResponse
// @Success      202      {object}  PayoutResponse
// @Failure      400      {object}  api.ErrorResponse
// @Failure      404      {object}  api.ErrorResponse
// @Failure      409      {object}  PayoutResponse
// @Failure      502      {object}  api.ErrorResponse
// @Router       /payouts/request [post]
func (h *Handler) Request(c *gin.Context) {
	var req PayoutRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		api.BindError(c, err)
		return
	}

	res, err := h.svc.Request(c.Request.Context(), Request{
		TeacherID:         req.TeacherID,
		Amount:            req.Amount,
		PhoneNumber:       req.PhoneNumber,
		Currency:          req.Currency,
		Provider:          req.Provider,
		ClientReferenceID: req.ClientReferenceID,
	})
	switch {
	case err == nil:
		resp := PayoutResponse{Success: true, PayoutID: res.PayoutID, ExternalID: res.ExternalID, Status: res.Status}
		switch {
		case res.Status == StatusFailed:
			resp.Success = false
			c.JSON(http.StatusConflict, resp)
		case res.Unconfirmed:
			c.JSON(http.StatusAccepted, resp)
		default:
			c.JSON(http.StatusOK, resp)
		}
	case errors.Is(err, ErrReferenceConflict):
		api.Error(c, http.StatusConflict, err.Error())
	case errors.Is(err, ErrInvalidAmount), errors.Is(err, ErrBelowMinimum), errors.Is(err, ErrAboveMaximum),
		errors.Is(err, ErrInvalidPhone), errors.Is(err, ErrInsufficientBalance):
		api.Error(c, http.StatusBadRequest, err.Error())
	case errors.Is(err, wallet.ErrWalletNotFound):
		api.Error(c, http.StatusNotFound, "wallet not found")
	case errors.Is(err, ErrProvider):
		api.ProviderError(c, "payout request failed", err)
	default:
		logger.Error("payout request failed", "teacher_id", req.TeacherID, "error", err)
		api.Error(c, http.StatusInternalServerError, "failed to request payout")
	}
}

// @Summary      Payout history
// @Tags         payouts
// @Produce      json
// @Param        teacherId  path      string  true   "Teacher id"
// @Param        limit      query     int     false  "Page size"
// @Success      200        {array}   Transaction
// @Failure      500        {object}  api.ErrorResponse
// @Router       /payouts/history/{teacherId} [get]
func (h *Handler) History(c *gin.Context) {
	teacherID := c.Param("teacherId")
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))

	txs, err := h.svc.History(c.Request.Context(), teacherID, limit)
	if err != nil {
		logger.Error("failed to load payouts", "teacher_id", teacherID, "error", err)
		api.Error(c, http.StatusInternalServerError, "failed to load payouts")
		return
	}
	c.JSON(http.StatusOK, txs)
}
