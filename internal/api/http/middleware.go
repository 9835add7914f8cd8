package http

import (
	"context"
	"errors"
	"runtime/debug"
	"time"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/spec-kit/account-service/internal/observability"
	apperrors "github.com/spec-kit/account-service/pkg/util"
)

// RegisterMiddlewares attaches global middlewares. The request logger wraps the
// error handler so it observes the rendered status.
func RegisterMiddlewares(app *fiber.App, logger *zap.Logger, metrics *observability.Metrics, timeout time.Duration) {
	app.Use(observability.RequestLogger(logger, metrics))
	app.Use(errorHandlingMiddleware(logger, metrics))
	if timeout > 0 {
		app.Use(requestTimeoutMiddleware(timeout))
	}
}

func requestTimeoutMiddleware(timeout time.Duration) fiber.Handler {
	return func(c *fiber.Ctx) error {
		ctx, cancel := context.WithTimeout(c.UserContext(), timeout)
		defer cancel()
		c.SetUserContext(ctx)
		return c.Next()
	}
}

func errorHandlingMiddleware(logger *zap.Logger, metrics *observability.Metrics) fiber.Handler {
	return func(c *fiber.Ctx) (err error) {
		defer func() {
			if r := recover(); r != nil {
				logger.Error("panic recovered", zap.Any("panic", r), zap.ByteString("stack", debug.Stack()))
				err = apperrors.NewInternalError(nil)
			}
			if err != nil {
				domainErr := toResponseError(err)
				metrics.RecordError(c.Route().Path, c.Method(), domainErr.Code)
				if domainErr.HTTPStatus >= fiber.StatusInternalServerError {
					logger.Error("request failed", zap.String("path", c.Path()), zap.Error(domainErr))
				}
				err = writeError(c, domainErr)
			}
		}()
		return c.Next()
	}
}

// toResponseError maps err onto the public error shape. Authentication failures
// collapse to one generic body so callers cannot tell why they were rejected.
func toResponseError(err error) *apperrors.DomainError {
	var fiberErr *fiber.Error
	if errors.As(err, &fiberErr) {
		return fromFiberError(fiberErr)
	}

	domainErr := apperrors.ToDomainError(err)
	if domainErr.HTTPStatus == fiber.StatusUnauthorized || apperrors.IsAuthFailure(domainErr) {
		return &apperrors.DomainError{
			Code:       apperrors.CodeUnauthorized,
			Message:    "unauthorized",
			HTTPStatus: fiber.StatusUnauthorized,
			Err:        domainErr,
		}
	}
	return domainErr
}

func fromFiberError(fe *fiber.Error) *apperrors.DomainError {
	switch fe.Code {
	case fiber.StatusNotFound:
		return apperrors.NewDomainError(apperrors.CodeNotFound, "route not found", fe.Code, nil)
	case fiber.StatusMethodNotAllowed:
		return apperrors.NewDomainError("METHOD_NOT_ALLOWED", fe.Message, fe.Code, nil)
	case fiber.StatusBadRequest, fiber.StatusUnprocessableEntity, fiber.StatusRequestEntityTooLarge:
		return apperrors.NewDomainError(apperrors.CodeValidation, fe.Message, fe.Code, nil)
	case fiber.StatusUnauthorized:
		return apperrors.NewDomainError(apperrors.CodeUnauthorized, "unauthorized", fe.Code, nil)
	}
	if fe.Code >= fiber.StatusInternalServerError {
		return apperrors.ToDomainError(apperrors.NewInternalError(fe))
	}
	return apperrors.NewDomainError(apperrors.CodeValidation, fe.Message, fe.Code, nil)
}

func writeError(c *fiber.Ctx, domainErr *apperrors.DomainError) error {
	body := fiber.Map{
		"code":    domainErr.Code,
		"message": domainErr.Message,
	}
	if len(domainErr.Details) > 0 {
		body["details"] = domainErr.Details
	}
	return c.Status(domainErr.HTTPStatus).JSON(fiber.Map{"error": body})
}
