package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
)

type ErrorResponse struct {
	Error   string `json:"error" example:"something went wrong"`
	Details string `json:"details,omitempty" example:"{\"errorMessage\":\"invalid amount\"}"`
}

type MessageResponse struct {
	Message string `json:"message" example:"ok"`
}

type HealthResponse struct {
	Status string `json:"status" example:"ok"`
}

type SuccessResponse struct {
	Success bool `json:"success" example:"true"`
}

// detailer is implemented by provider errors that carry the upstream response body.
type detailer interface {
	Details() string
}

func Error(c *gin.Context, status int, message string) {
	c.JSON(status, ErrorResponse{Error: message})
}

// ProviderError answers 502 with the provider's raw error text in details.
func ProviderError(c *gin.Context, message string, err error) {
	resp := ErrorResponse{Error: message}

	var d detailer
	if errors.As(err, &d) {
		resp.Details = d.Details()
	} else if err != nil {
		resp.Details = err.Error()
	}

	c.JSON(http.StatusBadGateway, resp)
}
