// File: middleware/clientIP_test.go
package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
)

func testContext(t *testing.T, remoteAddr string, headers map[string]string) *gin.Context {
	t.Helper()
	gin.SetMode(gin.TestMode)
	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = remoteAddr
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	c.Request = req
	return c
}

func TestClientIP(t *testing.T) {
	tests := []struct {
		name    string
		remote  string
		headers map[string]string
		want    string
	}{
		{"forwarded chain", "10.0.0.1:443", map[string]string{"X-Forwarded-For": "203.0.113.7, 10.0.0.2"}, "203.0.113.7"},
		{"forwarded with spaces", "10.0.0.1:443", map[string]string{"X-Forwarded-For": " 203.0.113.7 "}, "203.0.113.7"},
		{"forwarded beats real ip", "10.0.0.1:443", map[string]string{"X-Forwarded-For": "203.0.113.7", "X-Real-IP": "203.0.113.9"}, "203.0.113.7"},
		{"real ip fallback", "10.0.0.1:443", map[string]string{"X-Real-IP": "203.0.113.9"}, "203.0.113.9"},
		{"socket peer", "198.51.100.4:52011", nil, "198.51.100.4"},
		{"peer without port", "198.51.100.4", nil, "198.51.100.4"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := testContext(t, tt.remote, tt.headers)
			if got := clientIP(c); got != tt.want {
				t.Errorf("clientIP() = %q, want %q", got, tt.want)
			}
		})
	}
}
