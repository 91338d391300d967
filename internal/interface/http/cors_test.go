package http

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
)

func TestAllowedOrigins(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name    string
		in      []string
		origins []string
		all     bool
	}{
		{"nothing configured", nil, nil, true},
		{"blank entries", []string{" ", ""}, nil, true},
		{"wildcard", []string{"http://a.test", "*"}, nil, true},
		{"trailing slash trimmed", []string{"https://app.test/"}, []string{"https://app.test"}, false},
		{"no usable origin", []string{"ftp://files.test", "app.test"}, nil, false},
	}
	for _, tc := range cases {
		origins, all := allowedOrigins(tc.in)
		require.Equal(t, tc.origins, origins, tc.name)
		require.Equal(t, tc.all, all, tc.name)
	}
}

func TestCORSRejectsWhenNoUsableOrigin(t *testing.T) {
	t.Parallel()

	serve := func(allowed []string, origin string) *httptest.ResponseRecorder {
		router := gin.New()
		router.Use(corsMiddleware(allowed))
		router.GET("/ping", func(c *gin.Context) { c.String(http.StatusOK, "pong") })
		req := httptest.NewRequest(http.MethodGet, "/ping", nil)
		req.Header.Set("Origin", origin)
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)
		return rec
	}

	rec := serve([]string{"ftp://files.test"}, "http://evil.test")
	require.Equal(t, http.StatusForbidden, rec.Code)
	require.Empty(t, rec.Header().Get("Access-Control-Allow-Origin"))

	rec = serve([]string{"http://app.test"}, "http://app.test")
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "http://app.test", rec.Header().Get("Access-Control-Allow-Origin"))

	rec = serve(nil, "http://anywhere.test")
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
}
