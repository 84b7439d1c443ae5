package services

import (
	"errors"
	"fmt"
	"net/http"
)

// ServiceError carries the HTTP-class status of a failure together with a
// traceable message of the form "Error: <component>.<operation> - <cause>".
type ServiceError struct {
	Status  int
	Message string
}

func (e *ServiceError) Error() string {
	return e.Message
}

// newServiceError builds the traceable message. If the cause already is a
// ServiceError it is returned unchanged so the original status and component
// survive re-wrapping at outer layers.
func newServiceError(status int, component, operation string, cause error) error {
	var svcErr *ServiceError
	if errors.As(cause, &svcErr) {
		return svcErr
	}
	return &ServiceError{
		Status:  status,
		Message: fmt.Sprintf("Error: %s.%s - %v", component, operation, cause),
	}
}

func internalError(component, operation string, cause error) error {
	return newServiceError(http.StatusInternalServerError, component, operation, cause)
}

func notFoundError(component, operation string, cause error) error {
	return newServiceError(http.StatusNotFound, component, operation, cause)
}

func preconditionError(component, operation string, cause error) error {
	return newServiceError(http.StatusPreconditionFailed, component, operation, cause)
}

// StatusOf returns the HTTP-class status for an error, defaulting to 500.
func StatusOf(err error) int {
	var svcErr *ServiceError
	if errors.As(err, &svcErr) {
		return svcErr.Status
	}
	return http.StatusInternalServerError
}
