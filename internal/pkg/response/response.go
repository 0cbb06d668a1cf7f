// Package response renders the JSON envelope shared by every rentgear
// endpoint: {"success": true, "data": ...} for successful calls and
// {"success": false, "error": {"code", "message", ...}} for failures.
package response

import "github.com/gin-gonic/gin"

// Success writes data under the success envelope.
func Success(c *gin.Context, statusCode int, data interface{}) {
	c.JSON(statusCode, gin.H{
		"success": true,
		"data":    data,
	})
}

// Error writes a machine-readable code plus a human-readable message.
func Error(c *gin.Context, statusCode int, code string, message string) {
	c.JSON(statusCode, failure(code, message, nil))
}

// ErrorWithDetails is Error with a structured details payload, used
// where the caller needs more than one message (validation results).
func ErrorWithDetails(c *gin.Context, statusCode int, code string, message string, details any) {
	c.JSON(statusCode, failure(code, message, details))
}

func failure(code, message string, details any) gin.H {
	errBody := gin.H{
		"code":    code,
		"message": message,
	}
	if details != nil {
		errBody["details"] = details
	}
	return gin.H{
		"success": false,
		"error":   errBody,
	}
}
