package deposit

import (
	"context"
	"errors"
	"net/http"

	"coursepay/internal/api"
	"coursepay/internal/catalog"
	"coursepay/internal/logger"
	"coursepay/internal/poller"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
)

type CreateDepositRequest struct {
	UserID    string          `json:"userId" binding:"required"`
	CourseID  string          `json:"courseId" binding:"required"`
	Amount    decimal.Decimal `json:"amount" swaggertype:"string" example:"5.00"`
	Currency  string          `json:"currency" binding:"required"`
	ReturnURL string          `json:"returnUrl" binding:"required"`
}

type CreateDepositResponse struct {
	Success    bool   `json:"success"`
	PaymentURL string `json:"paymentUrl"`
	DepositID  string `json:"depositId"`
}

type StatusResponse struct {
	Status string `json:"status"`
}

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

// Create godoc
// @Summary      Create deposit session
// @Description  Opens a PawaPay payment page for a course or playlist and records a pending purchase.
// @Tags         deposits
// @Accept       json
// @Produce      json
// @Param        request  body      CreateDepositRequest  true  "Deposit request"
// @Success      200      {object}  CreateDepositResponse
// @Failure      400      {object}  api.ErrorResponse
// @Failure      404      {object}  api.ErrorResponse
// @Failure      409      {object}  api.ErrorResponse
// @Failure      502      {object}  api.ErrorResponse
// @Router       /deposits/create [post]
func (h *Handler) Create(c *gin.Context) {
	var req CreateDepositRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		api.BindError(c, err)
		return
	}

	session, err := h.svc.Create(c.Request.Context(), CreateRequest{
		BuyerID:   req.UserID,
		ItemID:    req.CourseID,
		Amount:    req.Amount,
		Currency:  req.Currency,
		ReturnURL: req.ReturnURL,
	})
	if err != nil {
		h.fail(c, err)
		return
	}

	c.JSON(http.StatusOK, CreateDepositResponse{
		Success:    true,
		PaymentURL: session.PaymentURL,
		DepositID:  session.SessionID,
	})
}

// @Summary      Deposit status
// @Tags         deposits
// @Produce      json
// @Param        depositId  path      string  true  "Deposit id"
// @Success      200        {object}  StatusResponse
// @Failure      502        {object}  api.ErrorResponse
// @Router       /deposits/status/{depositId} [get]
func (h *Handler) Status(c *gin.Context) {
	res, err := h.svc.Status(c.Request.Context(), c.Param("depositId"))
	if err != nil {
		h.fail(c, err)
		return
	}

	c.JSON(http.StatusOK, StatusResponse{Status: res.Status})
}

// @Summary      Wait for deposit
// @Tags         deposits
// @Produce      json
// @Param        depositId  path      string  true  "Deposit id"
// @Success      200        {object}  poller.Result
// @Failure      504        {object}  api.ErrorResponse
// @Router       /deposits/{depositId}/await [post]
// Await long-polls until the deposit settles. Closing the connection stops it.
func (h *Handler) Await(c *gin.Context) {
	res, err := h.svc.Await(c.Request.Context(), c.Param("depositId"))
	switch {
	case err == nil:
		c.JSON(http.StatusOK, res)
	case errors.Is(err, poller.ErrTimeout):
		c.JSON(http.StatusGatewayTimeout, gin.H{
			"error":    "payment was not confirmed in time",
			"status":   res.Status,
			"attempts": res.Attempts,
		})
	case errors.Is(err, context.Canceled):
		logger.Debug("deposit wait cancelled by client", "deposit_id", c.Param("depositId"))
		c.Abort()
	default:
		h.fail(c, err)
	}
}

func (h *Handler) fail(c *gin.Context, err error) {
	switch {
	case errors.Is(err, ErrInvalidAmount),
		errors.Is(err, ErrInvalidCurrency),
		errors.Is(err, ErrInvalidReturnURL),
		errors.Is(err, ErrAmountMismatch):
		api.Error(c, http.StatusBadRequest, err.Error())
	case errors.Is(err, catalog.ErrItemNotFound):
		api.Error(c, http.StatusNotFound, err.Error())
	case errors.Is(err, ErrAlreadyPurchased):
		api.Error(c, http.StatusConflict, err.Error())
	case errors.Is(err, ErrProvider):
		api.ProviderError(c, "payment provider error", err)
	default:
		logger.Error("deposit request failed", "error", err)
		api.Error(c, http.StatusInternalServerError, "internal error")
	}
}
