package middleware

import (
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func ipContext(t *testing.T, remoteAddr string, headers map[string]string) *gin.Context {
	t.Helper()
	gin.SetMode(gin.TestMode)
	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	c.Request = httptest.NewRequest("POST", "/webhook/telegram", nil)
	c.Request.RemoteAddr = remoteAddr
	for k, v := range headers {
		c.Request.Header.Set(k, v)
	}
	return c
}

func TestGetClientIP(t *testing.T) {
	c := ipContext(t, "10.0.0.1:5000", map[string]string{
		"X-Forwarded-For": "203.0.113.7, 10.0.0.2",
	})
	assert.Equal(t, "203.0.113.7", getClientIP(c))

	c = ipContext(t, "10.0.0.1:5000", map[string]string{
		"X-Forwarded-For": "not-an-ip",
		"X-Real-IP":       "198.51.100.4",
	})
	assert.Equal(t, "198.51.100.4", getClientIP(c))

	c = ipContext(t, "192.0.2.9:6000", nil)
	assert.Equal(t, "192.0.2.9", getClientIP(c))
}
