package middleware

import (
	"errors"
	"strings"

	echojwt "github.com/labstack/echo-jwt/v4"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"subtrackr/internal/auth"
	apperrors "subtrackr/internal/errors"
)

// identityKey is the echo context key holding the *auth.Identity.
const identityKey = "identity"

const bearerPrefix = "Bearer "

// Auth returns the bearer-token middleware. A missing token fails with
// ErrTokenRequired. Any other rejection fails with ErrTokenInvalid.
// On success the verified identity is stored on the context.
func Auth(jwtService *auth.JWTService, tokenStore auth.TokenStoreInterface, log *zap.Logger) echo.MiddlewareFunc {
	if log == nil {
		log = zap.NewNop()
	}
	return echojwt.WithConfig(echojwt.Config{
		ContextKey:  identityKey,
		TokenLookup: "header:" + echo.HeaderAuthorization + ":" + bearerPrefix,
		ParseTokenFunc: func(c echo.Context, token string) (interface{}, error) {
			id, err := jwtService.Verify(token)
			if err != nil {
				return nil, err
			}
			revoked, err := tokenStore.IsRevoked(c.Request().Context(), id.TokenID)
			if err != nil {
				return nil, err
			}
			if revoked {
				return nil, errTokenRevoked
			}
			return id, nil
		},
		ErrorHandler: func(c echo.Context, err error) error {
			var extractErr *echojwt.TokenExtractionError
			if errors.As(err, &extractErr) && !presentsToken(c) {
				return apperrors.ErrTokenRequired
			}
			log.Debug("bearer token rejected",
				zap.String("path", c.Path()),
				zap.Error(err),
			)
			return apperrors.ErrTokenInvalid
		},
	})
}

var errTokenRevoked = errors.New("token revoked")

// presentsToken reports whether the Authorization header carries a
// credential after its scheme, whatever the scheme is. Such a header is
// answered as an invalid token rather than a missing one.
func presentsToken(c echo.Context) bool {
	parts := strings.Fields(c.Request().Header.Get(echo.HeaderAuthorization))
	return len(parts) >= 2
}

// IdentityFrom returns the identity attached by Auth.
func IdentityFrom(c echo.Context) (auth.Identity, bool) {
	id, ok := c.Get(identityKey).(*auth.Identity)
	if !ok || id == nil {
		return auth.Identity{}, false
	}
	return *id, true
}

// BearerToken extracts the raw token from the Authorization header, or ""
// when the header is absent or uses another scheme. Used by routes that
// accept but do not require a token.
func BearerToken(c echo.Context) string {
	header := c.Request().Header.Get(echo.HeaderAuthorization)
	if len(header) <= len(bearerPrefix) || !strings.EqualFold(header[:len(bearerPrefix)], bearerPrefix) {
		return ""
	}
	return strings.TrimSpace(header[len(bearerPrefix):])
}
