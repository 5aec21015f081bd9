package ginutil

import (
	"strconv"

	"github.com/gin-gonic/gin"
)

// QueryInt extracts an integer from query parameters with default value
func QueryInt(c *gin.Context, key string, defaultValue int) int {
	valueStr := c.Query(key)
	if valueStr == "" {
		return defaultValue
	}

	value, err := strconv.Atoi(valueStr)
	if err != nil {
		return defaultValue
	}

	return value
}

// QueryIntRange QueryInt clamped to [lo, hi]
func QueryIntRange(c *gin.Context, key string, defaultValue, lo, hi int) int {
	v := QueryInt(c, key, defaultValue)
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
