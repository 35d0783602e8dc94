package middleware

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-petr/wholecoin/pkg/errorspkg"
	"github.com/go-petr/wholecoin/pkg/tokenpkg"
	"github.com/go-petr/wholecoin/pkg/web"
)

// Authorization header and context keys.
const (
	AuthHeaderKey  = "authorization"
	AuthTypeBearer = "bearer"
	AuthPayloadKey = "authorization_payload"
)

const unauthorizedCode = "UNAUTHORIZED"

// Errors returned for requests without valid credentials.
var (
	ErrAuthHeaderNotFound  = errorspkg.New(unauthorizedCode, "authorization header is not provided")
	ErrBadAuthHeaderFormat = errorspkg.New(unauthorizedCode, "invalid authorization header format")
	ErrUnsupportedAuthType = errorspkg.New(unauthorizedCode, "unsupported authorization type")
)

// AddAuthorization sets the authorization header of r to a fresh token of username.
func AddAuthorization(r *http.Request, maker tokenpkg.Maker, authType, username string, duration time.Duration) error {
	token, _, err := maker.CreateToken(username, duration)
	if err != nil {
		return err
	}

	r.Header.Set(AuthHeaderKey, fmt.Sprintf("%s %s", authType, token))

	return nil
}

// AuthMiddleware rejects requests without a valid bearer token and stores the token
// payload in the context under AuthPayloadKey.
func AuthMiddleware(maker tokenpkg.Maker) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader(AuthHeaderKey)
		if len(header) == 0 {
			abortUnauthorized(c, ErrAuthHeaderNotFound)
			return
		}

		fields := strings.Fields(header)
		if len(fields) < 2 {
			abortUnauthorized(c, ErrBadAuthHeaderFormat)
			return
		}

		if strings.ToLower(fields[0]) != AuthTypeBearer {
			abortUnauthorized(c, ErrUnsupportedAuthType)
			return
		}

		payload, err := maker.VerifyToken(fields[1])
		if err != nil {
			abortUnauthorized(c, errorspkg.New(unauthorizedCode, err.Error()))
			return
		}

		c.Set(AuthPayloadKey, payload)
		c.Next()
	}
}

func abortUnauthorized(c *gin.Context, err error) {
	c.AbortWithStatusJSON(http.StatusUnauthorized, web.Response{Error: web.Error(err)})
}

// Username returns the username of the authenticated caller.
func Username(c *gin.Context) string {
	payload, ok := c.MustGet(AuthPayloadKey).(*tokenpkg.Payload)
	if !ok {
		return ""
	}

	return payload.Username
}
