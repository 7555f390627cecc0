package middleware

import "github.com/gin-gonic/gin"

// operatorKey stores the authenticated operator's name.
const operatorKey = contextKey("operator")

// GetOperatorFromContext retrieves the authenticated operator from the Gin
// context or the request context.
func GetOperatorFromContext(c *gin.Context) (string, bool) {
	if v, exists := c.Get(string(operatorKey)); exists {
		operator, ok := v.(string)
		return operator, ok
	}
	if v, ok := c.Request.Context().Value(operatorKey).(string); ok {
		return v, true
	}
	return "", false
}
