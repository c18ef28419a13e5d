package server

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/spektr-org/bikestats/engine"
)

// Response codes carried in the envelope. 0 is success.
const (
	CodeOK               = 0
	CodeEmptyResult      = 20401
	CodeBadRequest       = 40001
	CodeNotFound         = 40400
	CodeInsufficientData = 42201
	CodeInternal         = 50000
)

// JSONResponse defines the uniform structure for API responses.
type JSONResponse struct {
	Code    int         `json:"code"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

// Respond writes a JSON response with the given status code.
func Respond(ctx *gin.Context, status int, code int, message string, data interface{}) {
	ctx.JSON(status, JSONResponse{
		Code:    code,
		Message: message,
		Data:    data,
	})
}

// Success returns a standard success response.
func Success(ctx *gin.Context, data interface{}) {
	Respond(ctx, http.StatusOK, CodeOK, "success", data)
}

// Empty reports that the constraints matched no rows. It is not an error.
func Empty(ctx *gin.Context) {
	Respond(ctx, http.StatusOK, CodeEmptyResult, engine.NoDataReply, nil)
}

// Error returns a standard error response.
func Error(ctx *gin.Context, status int, code int, message string) {
	Respond(ctx, status, code, message, nil)
}

// Fail maps an engine error onto the envelope.
func Fail(ctx *gin.Context, err error) {
	switch {
	case errors.Is(err, engine.ErrEmptyResult):
		Empty(ctx)
	case errors.Is(err, engine.ErrInsufficientData):
		Error(ctx, http.StatusUnprocessableEntity, CodeInsufficientData, err.Error())
	case errors.Is(err, engine.ErrUnknownColumn),
		errors.Is(err, engine.ErrUnknownAggregation),
		errors.Is(err, engine.ErrInvalidThresholds),
		errors.Is(err, engine.ErrMalformedInput):
		Error(ctx, http.StatusBadRequest, CodeBadRequest, err.Error())
	default:
		_ = ctx.Error(err)
		Error(ctx, http.StatusInternalServerError, CodeInternal, "internal error")
	}
}
