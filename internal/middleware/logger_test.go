package middleware

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

func TestRequestLogger(t *testing.T) {
	gin.SetMode(gin.ReleaseMode)

	var buf bytes.Buffer

	logger := zerolog.New(&buf)

	server := gin.New()
	server.Use(RequestLogger(logger))
	server.GET("/ping", func(c *gin.Context) {
		zerolog.Ctx(c.Request.Context()).Info().Msg("inside")
		c.Status(http.StatusNoContent)
	})

	t.Run("GeneratesRequestID", func(t *testing.T) {
		buf.Reset()

		recorder := httptest.NewRecorder()
		server.ServeHTTP(recorder, httptest.NewRequest(http.MethodGet, "/ping", nil))

		requestID := recorder.Header().Get(RequestIDHeader)
		require.NotEmpty(t, requestID)

		lines := bytes.Split(bytes.TrimSpace(buf.Bytes()), []byte("\n"))
		require.Len(t, lines, 2)

		for _, line := range lines {
			var entry map[string]any
			require.NoError(t, json.Unmarshal(line, &entry))
			require.Equal(t, requestID, entry["request_id"])
		}
	})

	t.Run("KeepsClientRequestID", func(t *testing.T) {
		buf.Reset()

		request := httptest.NewRequest(http.MethodGet, "/ping", nil)
		request.Header.Set(RequestIDHeader, "abc-123")

		recorder := httptest.NewRecorder()
		server.ServeHTTP(recorder, request)

		require.Equal(t, "abc-123", recorder.Header().Get(RequestIDHeader))
		require.Contains(t, buf.String(), `"status_code":204`)
	})
}
