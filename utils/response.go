package utils

import "github.com/gin-gonic/gin"

// Error kinds used in the failure envelope. NotFound and validation errors
// are expected outcomes; store errors mean the backing storage misbehaved.
const (
	KindNotFound     = "not_found"
	KindValidation   = "validation_error"
	KindStore        = "store_error"
	KindUnauthorized = "unauthorized"
	KindForbidden    = "forbidden"
	KindConflict     = "conflict"
)

// JSONResponse defines the uniform structure for successful API responses.
type JSONResponse struct {
	Code    int         `json:"code"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

// ErrorResponse is the uniform failure envelope: every error, from a missing
// post to a database outage, is reported the same way.
type ErrorResponse struct {
	ErrorKind string `json:"error_kind"`
	Message   string `json:"message"`
}

// Success returns a standard success response.
func Success(ctx *gin.Context, data interface{}) {
	ctx.JSON(200, JSONResponse{Code: 0, Message: "success", Data: data})
}

// Fail writes the failure envelope with the given status and kind.
func Fail(ctx *gin.Context, status int, kind, message string) {
	ctx.JSON(status, ErrorResponse{ErrorKind: kind, Message: message})
}
