package ginutil

import (
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func testContext(query string) *gin.Context {
	gin.SetMode(gin.TestMode)
	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	c.Request = httptest.NewRequest("GET", "/x?"+query, nil)
	return c
}

func TestQueryInt(t *testing.T) {
	assert.Equal(t, 7, QueryInt(testContext("n=7"), "n", 1))
	assert.Equal(t, 1, QueryInt(testContext("n=abc"), "n", 1))
	assert.Equal(t, 1, QueryInt(testContext(""), "n", 1))
}

func TestQueryIntRange(t *testing.T) {
	assert.Equal(t, 100, QueryIntRange(testContext("size=500"), "size", 20, 1, 100))
	assert.Equal(t, 0, QueryIntRange(testContext("from=-3"), "from", 0, 0, 10000))
	assert.Equal(t, 20, QueryIntRange(testContext(""), "size", 20, 1, 100))
}
