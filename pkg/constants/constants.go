package constants

import "github.com/go-playground/validator/v10"

type ContextKey string

const (
	UserKey      ContextKey = "user"
	LoggerKey    ContextKey = "logger"
	RequestIDKey ContextKey = "requestID"
)

var Validate = validator.New(validator.WithRequiredStructEnabled())
