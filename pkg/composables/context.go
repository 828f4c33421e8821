package composables

import (
	"context"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/clientdesk/clientdesk/pkg/constants"
)

var (
	ErrNoUser   = errors.New("no user in context")
	ErrNoLogger = errors.New("no logger in context")
)

// WithUser stores the authenticated user's email-like identity on the context.
func WithUser(ctx context.Context, email string) context.Context {
	return context.WithValue(ctx, constants.UserKey, email)
}

// UseUser returns the authenticated user's identity from the context.
func UseUser(ctx context.Context) (string, error) {
	email, ok := ctx.Value(constants.UserKey).(string)
	if !ok || email == "" {
		return "", ErrNoUser
	}
	return email, nil
}

func WithLogger(ctx context.Context, logger *logrus.Entry) context.Context {
	return context.WithValue(ctx, constants.LoggerKey, logger)
}

// UseLogger returns the request-scoped logger, or the standard logger when
// the context carries none.
func UseLogger(ctx context.Context) *logrus.Entry {
	if logger, ok := ctx.Value(constants.LoggerKey).(*logrus.Entry); ok {
		return logger
	}
	return logrus.NewEntry(logrus.StandardLogger())
}

func WithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, constants.RequestIDKey, id)
}

func UseRequestID(ctx context.Context) string {
	if id, ok := ctx.Value(constants.RequestIDKey).(string); ok {
		return id
	}
	return ""
}
