package service

import (
	"sort"
	"strings"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// FieldErrors maps a request field to the first rule it broke.
type FieldErrors map[string]string

type ValidationError struct {
	Fields FieldErrors
}

func (e *ValidationError) Error() string {
	names := make([]string, 0, len(e.Fields))
	for name := range e.Fields {
		names = append(names, name)
	}
	sort.Strings(names)
	return "Validation failed: " + strings.Join(names, ", ")
}

// GRPCStatus lets status.Code and status.FromError classify validation failures.
func (e *ValidationError) GRPCStatus() *status.Status {
	return status.New(codes.InvalidArgument, "Validation failed")
}

func asError(fields FieldErrors) error {
	if len(fields) == 0 {
		return nil
	}
	return &ValidationError{Fields: fields}
}

var (
	errInvalidCredentials = status.Error(codes.Unauthenticated, "Invalid credentials")
	errAdminLoginDisabled = status.Error(codes.FailedPrecondition, "Admin login is not configured")
)
