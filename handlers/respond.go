package handlers

import (
	"net/http"

	"beatme/services"

	"github.com/gin-gonic/gin"
)

// respond wraps every successful response in the {success, data} envelope.
func respond(c *gin.Context, status int, data any) {
	c.JSON(status, gin.H{"success": true, "data": data})
}

// respondError maps an AppError to its HTTP status and error envelope.
func respondError(c *gin.Context, err error) {
	appErr := services.AsAppError(err)
	status := appErr.StatusCode()
	c.JSON(status, gin.H{
		"success": false,
		"error": gin.H{
			"code":       appErr.Code,
			"message":    appErr.Message,
			"statusCode": status,
			"details":    appErr.Details,
		},
	})
}

// respondBindError reports request validation failures.
func respondBindError(c *gin.Context, err error) {
	c.JSON(http.StatusBadRequest, gin.H{
		"success": false,
		"error": gin.H{
			"code":       "VALIDATION_ERROR",
			"message":    err.Error(),
			"statusCode": http.StatusBadRequest,
		},
	})
}
