package api

import (
	"fmt"
	"sort"
	"strings"
)

// NetworkError means no response was received at all (connectivity failure).
type NetworkError struct {
	Err error
}

func (e *NetworkError) Error() string {
	return "network error occurred or no response from the server"
}

func (e *NetworkError) Unwrap() error { return e.Err }

// ServerError means a response was received with a non-success status or an
// application-level failure flag. Message is extracted from the response body,
// preferring a structured message field, then raw body text, then the
// transport error text.
type ServerError struct {
	Status  int
	Message string
}

func (e *ServerError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return fmt.Sprintf("request failed with status %d", e.Status)
}

// ValidationError is a server failure carrying a non-empty field-level
// validation map, surfaced as a distinct shape so forms can attribute
// errors per field.
type ValidationError struct {
	Status int
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	fields := make([]string, 0, len(e.Fields))
	for f := range e.Fields {
		fields = append(fields, f)
	}
	sort.Strings(fields)
	return "validation failed: " + strings.Join(fields, ", ")
}
