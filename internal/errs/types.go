package errs

type ErrorMessage struct {
	Message string
}

func (e *ErrorMessage) Error() string { return e.Message }

type NotFoundError struct {
	ErrorMessage
}

type ValidationError struct {
	ErrorMessage
}

type UnauthorizedError struct {
	ErrorMessage
}

type ForbiddenError struct {
	ErrorMessage
}

func NewNotFoundError(message string) *NotFoundError {
	return &NotFoundError{ErrorMessage: ErrorMessage{Message: message}}
}

func NewValidationError(message string) *ValidationError {
	return &ValidationError{ErrorMessage: ErrorMessage{Message: message}}
}

func NewUnauthorizedError(message string) *UnauthorizedError {
	return &UnauthorizedError{ErrorMessage: ErrorMessage{Message: message}}
}

func NewForbiddenError(message string) *ForbiddenError {
	return &ForbiddenError{ErrorMessage: ErrorMessage{Message: message}}
}
