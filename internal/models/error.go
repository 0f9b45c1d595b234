package models

// BaseError is the base type for API errors
type BaseError struct {
	Error   string `json:"error" example:"something bad"`
	Message string `json:"message,omitempty" example:"a longer explanation"`
}

// ValidationError is returned in the body of an HTTP 400
type ValidationError struct {
	BaseError
	Field string `json:"field,omitempty"`
}

func NewBadPayloadError(err error) ValidationError {
	message := ""
	if err != nil {
		message = err.Error()
	}
	return ValidationError{
		BaseError: BaseError{
			Error:   "request json is invalid",
			Message: message,
		},
	}
}

func NewBadPathParameterError(param string) ValidationError {
	return ValidationError{
		Field: param,
		BaseError: BaseError{
			Error: "path parameter invalid",
		},
	}
}

func NewFieldNotPresentError(field string) ValidationError {
	return ValidationError{
		Field: field,
		BaseError: BaseError{
			Error: "field not present",
		},
	}
}

func NewFieldValidationError(field string, reason string) ValidationError {
	return ValidationError{
		Field: field,
		BaseError: BaseError{
			Error: reason,
		},
	}
}

// NotFoundError is returned in the body of an HTTP 404
type NotFoundError struct {
	BaseError
	Resource string `json:"resource,omitempty"`
}

func NewNotFoundError(resource string) NotFoundError {
	return NotFoundError{
		Resource: resource,
		BaseError: BaseError{
			Error:   "not found",
			Message: resource + " does not exist",
		},
	}
}

// UnauthorizedError is returned in the body of an HTTP 401
type UnauthorizedError struct {
	BaseError
}

func NewUnauthorizedError(reason string) UnauthorizedError {
	return UnauthorizedError{
		BaseError: BaseError{
			Error:   "unauthorized",
			Message: reason,
		},
	}
}

// BadRequestError is returned in the body of an HTTP 400
type BadRequestError struct {
	BaseError
}

func NewBadRequestError(reason string) BadRequestError {
	return BadRequestError{
		BaseError: BaseError{
			Error:   "bad request",
			Message: reason,
		},
	}
}

// NotAllowedError is returned in the body of an HTTP 405
type NotAllowedError struct {
	BaseError
	Reason string `json:"reason,omitempty"`
}

func NewNotAllowedError(reason string) NotAllowedError {
	return NotAllowedError{
		Reason: reason,
		BaseError: BaseError{
			Error: "operation not allowed",
		},
	}
}

// TooManyRequestsError is returned in the body of an HTTP 429
type TooManyRequestsError struct {
	BaseError
}

func NewTooManyRequestsError() TooManyRequestsError {
	return TooManyRequestsError{
		BaseError: BaseError{
			Error: "too many concurrent requests",
		},
	}
}

// InternalServerError is returned in the body of an HTTP 500
type InternalServerError struct {
	BaseError
	TraceId string `json:"trace_id,omitempty"`
}
