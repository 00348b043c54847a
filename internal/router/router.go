package router

import (
	stderrors "errors"
	"net/http"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	echoSwagger "github.com/swaggo/echo-swagger"
	"go.uber.org/zap"

	"subtrackr/internal/config"
	"subtrackr/internal/errors"
	"subtrackr/internal/handler"
	"subtrackr/internal/middleware"
)

// Register wires routes and middleware. authMiddleware guards every route
// that acts on the caller's own data.
func Register(
	e *echo.Echo,
	cfg *config.Config,
	log *zap.Logger,
	authMiddleware echo.MiddlewareFunc,
	userHandler *handler.UserHandler,
	subscriptionHandler *handler.SubscriptionHandler,
) {
	e.HTTPErrorHandler = ErrorHandler(log)
	e.Validator = NewValidator()

	e.Use(echomw.RequestID())
	e.Use(middleware.RequestLogger(log))
	e.Use(echomw.Recover())
	e.Use(echomw.CORSWithConfig(echomw.CORSConfig{
		AllowOrigins: cfg.CORSOrigins,
		AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
		AllowHeaders: []string{echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAccept, echo.HeaderAuthorization},
	}))

	e.GET("/healthz", func(c echo.Context) error {
		return c.String(http.StatusOK, "ok")
	})

	e.GET("/swagger/*", echoSwagger.WrapHandler)

	// Public user routes
	users := e.Group("/users")
	users.POST("/register", userHandler.Register)
	users.POST("/login", userHandler.Login)
	users.POST("/logout", userHandler.Logout)

	// Secured user routes
	users.GET("/profile", userHandler.Profile, authMiddleware)
	users.PUT("/profile", userHandler.UpdateProfile, authMiddleware)
	users.PUT("/change-password", userHandler.ChangePassword, authMiddleware)
	users.DELETE("/delete-account", userHandler.DeleteAccount, authMiddleware)
	users.GET("/preferences", userHandler.GetPreferences, authMiddleware)
	users.PUT("/preferences", userHandler.UpdatePreferences, authMiddleware)

	// Subscription routes
	subs := e.Group("/subscriptions", authMiddleware)
	subs.GET("", subscriptionHandler.List)
	subs.POST("", subscriptionHandler.Create)
	subs.PUT("/:id", subscriptionHandler.Update)
	subs.DELETE("/:id", subscriptionHandler.Delete)
}

// ErrorHandler renders every error as the success:false envelope. Domain
// errors are mapped by kind; echo's own errors keep their status.
func ErrorHandler(log *zap.Logger) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}

		var httpErr *errors.HTTPError
		var echoErr *echo.HTTPError
		if stderrors.As(err, &echoErr) {
			message := http.StatusText(echoErr.Code)
			if m, ok := echoErr.Message.(string); ok && m != "" {
				message = m
			}
			httpErr = errors.NewHTTPError(echoErr.Code, message, strings.ToUpper(strings.ReplaceAll(http.StatusText(echoErr.Code), " ", "_")))
		} else {
			httpErr = errors.MapErrorToHTTP(err)
		}

		if httpErr.StatusCode >= http.StatusInternalServerError {
			log.Error("request failed",
				zap.String("method", c.Request().Method),
				zap.String("path", c.Path()),
				zap.Error(err),
			)
		}

		var writeErr error
		if c.Request().Method == http.MethodHead {
			writeErr = c.NoContent(httpErr.StatusCode)
		} else {
			writeErr = c.JSON(httpErr.StatusCode, httpErr.ToErrorResponse())
		}
		if writeErr != nil {
			log.Warn("write error response", zap.Error(writeErr))
		}
	}
}

// CustomValidator wraps validator for Echo.
type CustomValidator struct {
	validator *validator.Validate
}

// NewValidator returns a validator that names fields by their JSON key.
func NewValidator() *CustomValidator {
	v := validator.New()
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return &CustomValidator{validator: v}
}

// Validate implements echo.Validator interface.
func (cv *CustomValidator) Validate(i interface{}) error {
	return cv.validator.Struct(i)
}
