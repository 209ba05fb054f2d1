package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/stayloop/service-booking/internal/domain"
)

type errorBody struct {
	Code    domain.ErrorCode `json:"code"`
	Message string           `json:"message"`
}

type errorResponse struct {
	Success bool      `json:"success"`
	Error   errorBody `json:"error"`
}

type dataResponse struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data"`
}

type paginatedResponse struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data"`
	Total   int64       `json:"total"`
	Page    int         `json:"page"`
	Limit   int         `json:"limit"`
}

// respondSuccess writes a 200 response with the given payload.
func respondSuccess(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, dataResponse{Success: true, Data: data})
}

// respondCreated writes a 201 response with the given payload.
func respondCreated(c *gin.Context, data interface{}) {
	c.JSON(http.StatusCreated, dataResponse{Success: true, Data: data})
}

// respondPaginated writes a 200 response with pagination metadata.
func respondPaginated(c *gin.Context, items interface{}, total int64, page, limit int) {
	c.JSON(http.StatusOK, paginatedResponse{
		Success: true,
		Data:    items,
		Total:   total,
		Page:    page,
		Limit:   limit,
	})
}

// respondBadRequest writes a 400 response with the given message.
func respondBadRequest(c *gin.Context, message string) {
	c.JSON(http.StatusBadRequest, errorResponse{
		Success: false,
		Error:   errorBody{Code: domain.CodeValidation, Message: message},
	})
}

// respondError maps an application error to its HTTP status.
func respondError(c *gin.Context, err error) {
	code := domain.CodeOf(err)
	status := http.StatusInternalServerError
	message := err.Error()

	switch code {
	case domain.CodeNotFound:
		status = http.StatusNotFound
	case domain.CodeValidation:
		status = http.StatusBadRequest
	case domain.CodeConflict, domain.CodeInvalidState:
		status = http.StatusConflict
	case domain.CodeForbidden:
		status = http.StatusForbidden
	default:
		// Don't leak internals on unexpected failures.
		message = "internal server error"
	}

	c.JSON(status, errorResponse{
		Success: false,
		Error:   errorBody{Code: code, Message: message},
	})
}
