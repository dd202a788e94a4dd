// Package apperror provides a structured way to handle application errors
// with specific codes, severity levels, and additional details. It also
// includes utilities for converting to HTTP status codes and gRPC statuses.
package apperror

import (
	"errors"
	"fmt"
	"net/http"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// ErrorCode represents a specific application error code.
type ErrorCode string

const (
	// Validation (invalid input, rejected before any computation starts)
	CodeInvalidNetwork   ErrorCode = "INVALID_NETWORK"
	CodeEmptyNetwork     ErrorCode = "EMPTY_NETWORK"
	CodeTooManyNodes     ErrorCode = "TOO_MANY_NODES"
	CodeInvalidSource    ErrorCode = "INVALID_SOURCE"
	CodeInvalidSink      ErrorCode = "INVALID_SINK"
	CodeSourceEqualsSink ErrorCode = "SOURCE_EQUALS_SINK"
	CodeInvalidCapacity  ErrorCode = "INVALID_CAPACITY"
	CodeDuplicateNode    ErrorCode = "DUPLICATE_NODE"
	CodeDuplicateEdge    ErrorCode = "DUPLICATE_EDGE"
	CodeDanglingEdge     ErrorCode = "DANGLING_EDGE"
	CodeSelfLoop         ErrorCode = "SELF_LOOP"

	// Network policy (generator/validator collaborator constraints)
	CodeEdgeIntoSource    ErrorCode = "EDGE_INTO_SOURCE"
	CodeEdgeOutOfSink     ErrorCode = "EDGE_OUT_OF_SINK"
	CodeDirectSourceSink  ErrorCode = "DIRECT_SOURCE_SINK"
	CodeBidirectionalPair ErrorCode = "BIDIRECTIONAL_PAIR"

	// Connectivity
	CodeNoPath              ErrorCode = "NO_PATH"
	CodeDisconnectedNetwork ErrorCode = "DISCONNECTED_NETWORK"
	CodeIsolatedNode        ErrorCode = "ISOLATED_NODE"
	CodeUnreachableNode     ErrorCode = "UNREACHABLE_NODE"

	// Internal invariants (fatal, indicate a bug rather than bad input)
	CodeNegativeResidual  ErrorCode = "NEGATIVE_RESIDUAL"
	CodeInvalidBottleneck ErrorCode = "INVALID_BOTTLENECK"
	CodeBrokenPath        ErrorCode = "BROKEN_PATH"
	CodeFlowViolation     ErrorCode = "FLOW_VIOLATION"

	// Engine
	CodeIterationLimit ErrorCode = "ITERATION_LIMIT"
	CodeTimeout        ErrorCode = "TIMEOUT"

	// General
	CodeInternal         ErrorCode = "INTERNAL_ERROR"
	CodeNotFound         ErrorCode = "NOT_FOUND"
	CodeInvalidArgument  ErrorCode = "INVALID_ARGUMENT"
	CodeUnauthenticated  ErrorCode = "UNAUTHENTICATED"
	CodePermissionDenied ErrorCode = "PERMISSION_DENIED"
	CodeRateLimited      ErrorCode = "RATE_LIMITED"
	CodeNilInput         ErrorCode = "NIL_INPUT"
	CodeUnavailable      ErrorCode = "UNAVAILABLE"
)

// Severity defines the criticality level of an error.
type Severity int

const (
	// SeverityWarning indicates a non-critical issue that can be ignored or automatically resolved.
	SeverityWarning Severity = iota
	// SeverityError indicates a standard error that requires attention.
	SeverityError
	// SeverityCritical indicates a severe error that might require immediate human intervention.
	SeverityCritical
)

// String returns the string representation of the Severity.
func (s Severity) String() string {
	switch s {
	case SeverityWarning:
		return "warning"
	case SeverityError:
		return "error"
	case SeverityCritical:
		return "critical"
	default:
		return "unknown"
	}
}

// Error is a custom error type that includes an ErrorCode, message,
// an optional field, additional details, an underlying cause, and a severity level.
type Error struct {
	Code     ErrorCode      // Code is a unique identifier for the type of error.
	Message  string         // Message is a human-readable description of the error.
	Field    string         // Field indicates which input field caused the error, if applicable.
	Details  map[string]any // Details provides additional structured information about the error.
	Cause    error          // Cause is the underlying error that triggered this application error.
	Severity Severity       // Severity indicates the criticality level of the error.
}

// Error implements the error interface, returning a string representation of the error.
func (e *Error) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("[%s] %s (field: %s)", e.Code, e.Message, e.Field)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap returns the wrapped error, allowing for error chain introspection.
func (e *Error) Unwrap() error {
	return e.Cause
}

// GRPCStatus converts the application error into a gRPC status.Status.
func (e *Error) GRPCStatus() *status.Status {
	return status.New(e.grpcCode(), e.Message)
}

// grpcCode maps an ErrorCode to an appropriate gRPC codes.Code.
func (e *Error) grpcCode() codes.Code {
	switch e.Code {
	case CodeInvalidNetwork, CodeEmptyNetwork, CodeTooManyNodes, CodeInvalidSource,
		CodeInvalidSink, CodeSourceEqualsSink, CodeInvalidCapacity, CodeDuplicateNode,
		CodeDuplicateEdge, CodeDanglingEdge, CodeSelfLoop, CodeEdgeIntoSource,
		CodeEdgeOutOfSink, CodeDirectSourceSink, CodeBidirectionalPair,
		CodeInvalidArgument, CodeNilInput:
		return codes.InvalidArgument

	case CodeNoPath, CodeDisconnectedNetwork, CodeIsolatedNode, CodeUnreachableNode:
		return codes.FailedPrecondition

	case CodeNotFound:
		return codes.NotFound

	case CodeTimeout, CodeIterationLimit:
		return codes.DeadlineExceeded

	case CodeUnauthenticated:
		return codes.Unauthenticated

	case CodePermissionDenied:
		return codes.PermissionDenied

	case CodeRateLimited:
		return codes.ResourceExhausted

	case CodeUnavailable:
		return codes.Unavailable

	case CodeNegativeResidual, CodeInvalidBottleneck, CodeBrokenPath, CodeFlowViolation:
		return codes.DataLoss

	default:
		return codes.Internal
	}
}

// HTTPStatus maps an ErrorCode to an appropriate HTTP status code.
func (e *Error) HTTPStatus() int {
	switch e.Code {
	case CodeInvalidNetwork, CodeEmptyNetwork, CodeTooManyNodes, CodeInvalidSource,
		CodeInvalidSink, CodeSourceEqualsSink, CodeInvalidCapacity, CodeDuplicateNode,
		CodeDuplicateEdge, CodeDanglingEdge, CodeSelfLoop, CodeEdgeIntoSource,
		CodeEdgeOutOfSink, CodeDirectSourceSink, CodeBidirectionalPair,
		CodeInvalidArgument, CodeNilInput:
		return http.StatusBadRequest

	case CodeNotFound:
		return http.StatusNotFound

	case CodeIterationLimit:
		return http.StatusUnprocessableEntity

	case CodeTimeout:
		return http.StatusGatewayTimeout

	case CodeUnauthenticated:
		return http.StatusUnauthorized

	case CodePermissionDenied:
		return http.StatusForbidden

	case CodeRateLimited:
		return http.StatusTooManyRequests

	case CodeUnavailable:
		return http.StatusServiceUnavailable

	default:
		return http.StatusInternalServerError
	}
}

// New creates a new application error with the given code and message.
// The default severity is SeverityError.
func New(code ErrorCode, message string) *Error {
	return &Error{
		Code:     code,
		Message:  message,
		Details:  make(map[string]any),
		Severity: SeverityError,
	}
}

// NewWithField creates a new application error with the given code, message, and field.
// The default severity is SeverityError.
func NewWithField(code ErrorCode, message, field string) *Error {
	return &Error{
		Code:     code,
		Message:  message,
		Field:    field,
		Details:  make(map[string]any),
		Severity: SeverityError,
	}
}

// NewWarning creates a new application error with SeverityWarning.
func NewWarning(code ErrorCode, message string) *Error {
	return &Error{
		Code:     code,
		Message:  message,
		Details:  make(map[string]any),
		Severity: SeverityWarning,
	}
}

// NewCritical creates a new application error with SeverityCritical.
func NewCritical(code ErrorCode, message string) *Error {
	return &Error{
		Code:     code,
		Message:  message,
		Details:  make(map[string]any),
		Severity: SeverityCritical,
	}
}

// Wrap creates a new application error that wraps an existing error,
// providing additional context with a code and message.
// The default severity is SeverityError.
func Wrap(cause error, code ErrorCode, message string) *Error {
	return &Error{
		Code:     code,
		Message:  message,
		Cause:    cause,
		Details:  make(map[string]any),
		Severity: SeverityError,
	}
}

// WithDetails adds a key-value pair to the error's details map and returns the modified error.
func (e *Error) WithDetails(key string, value any) *Error {
	e.Details[key] = value
	return e
}

// WithField sets the field associated with the error and returns the modified error.
func (e *Error) WithField(field string) *Error {
	e.Field = field
	return e
}

// WithSeverity sets the severity level of the error and returns the modified error.
func (e *Error) WithSeverity(s Severity) *Error {
	e.Severity = s
	return e
}

// Is checks if the given error is an application error with a matching ErrorCode.
// It uses errors.As to unwrap the error chain.
func Is(err error, code ErrorCode) bool {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr.Code == code
	}
	return false
}

// Code extracts the ErrorCode from an error. If the error is not an *Error,
// it returns CodeInternal.
func Code(err error) ErrorCode {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr.Code
	}
	return CodeInternal
}

// IsInvalidInput reports whether the error belongs to the recoverable
// construction-time validation class. These errors reject bad input before
// any computation starts and are safe to surface to the caller as-is.
func IsInvalidInput(err error) bool {
	switch Code(err) {
	case CodeInvalidNetwork, CodeEmptyNetwork, CodeTooManyNodes, CodeInvalidSource,
		CodeInvalidSink, CodeSourceEqualsSink, CodeInvalidCapacity, CodeDuplicateNode,
		CodeDuplicateEdge, CodeDanglingEdge, CodeSelfLoop, CodeEdgeIntoSource,
		CodeEdgeOutOfSink, CodeDirectSourceSink, CodeBidirectionalPair, CodeNilInput:
		return true
	}
	return false
}

// IsInvariantViolation reports whether the error indicates a broken internal
// invariant. Such errors abort the computation entirely: a violated invariant
// means any result derived from the residual state could be wrong.
func IsInvariantViolation(err error) bool {
	switch Code(err) {
	case CodeNegativeResidual, CodeInvalidBottleneck, CodeBrokenPath, CodeFlowViolation:
		return true
	}
	return false
}

// IsNotConverged reports whether the error is the defensive iteration-limit
// condition. Distinct from a normal "no path" termination: partial flow may
// accompany it, labeled non-maximal.
func IsNotConverged(err error) bool {
	return Is(err, CodeIterationLimit)
}

// ToGRPC converts an application error or any other error into a gRPC error status.
// If the error is an *Error, it uses its GRPCStatus method.
// If it's already a gRPC status error, it's returned as is.
// Otherwise, it's wrapped as an internal gRPC error.
func ToGRPC(err error) error {
	if err == nil {
		return nil
	}

	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr.GRPCStatus().Err()
	}

	// If it's already a gRPC error
	if _, ok := status.FromError(err); ok {
		return err
	}

	// Wrap as an Internal error
	return status.Error(codes.Internal, err.Error())
}

// HTTPStatusOf extracts the HTTP status for any error. Non-application
// errors map to 500.
func HTTPStatusOf(err error) int {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr.HTTPStatus()
	}
	return http.StatusInternalServerError
}

// IsWarning checks if the given error is an application error with SeverityWarning.
func IsWarning(err error) bool {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr.Severity == SeverityWarning
	}
	return false
}

// IsCritical checks if the given error is an application error with SeverityCritical.
func IsCritical(err error) bool {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr.Severity == SeverityCritical
	}
	return false
}

// Predefined errors for common scenarios.
var (
	ErrEmptyNetwork     = New(CodeEmptyNetwork, "network has no nodes")
	ErrInvalidSource    = New(CodeInvalidSource, "source node not found")
	ErrInvalidSink      = New(CodeInvalidSink, "sink node not found")
	ErrSourceEqualsSink = New(CodeSourceEqualsSink, "source and sink cannot be the same")
	ErrTooManyNodes     = New(CodeTooManyNodes, "node count exceeds the small-network limit")
	ErrNoPath           = New(CodeNoPath, "no augmenting path from source to sink")
	ErrIterationLimit   = New(CodeIterationLimit, "iteration limit exceeded before convergence")
	ErrNilNetwork       = New(CodeNilInput, "network is nil")
	ErrTimeout          = New(CodeTimeout, "operation timed out")
)

// ValidationErrors is a collection of application errors and warnings,
// typically used for aggregating results of multiple validation checks.
type ValidationErrors struct {
	Errors   []*Error // Errors contains all collected errors (SeverityError and SeverityCritical).
	Warnings []*Error // Warnings contains all collected warnings (SeverityWarning).
}

// NewValidationErrors creates and returns a new empty ValidationErrors collection.
func NewValidationErrors() *ValidationErrors {
	return &ValidationErrors{
		Errors:   make([]*Error, 0),
		Warnings: make([]*Error, 0),
	}
}

// Add appends an *Error to the appropriate slice (Errors or Warnings)
// based on its Severity.
func (v *ValidationErrors) Add(err *Error) {
	if err.Severity == SeverityWarning {
		v.Warnings = append(v.Warnings, err)
	} else {
		v.Errors = append(v.Errors, err)
	}
}

// AddError creates and adds a new application error with SeverityError.
func (v *ValidationErrors) AddError(code ErrorCode, message string) {
	v.Errors = append(v.Errors, New(code, message))
}

// AddWarning creates and adds a new application error with SeverityWarning.
func (v *ValidationErrors) AddWarning(code ErrorCode, message string) {
	v.Warnings = append(v.Warnings, NewWarning(code, message))
}

// AddErrorWithField creates and adds a new application error with a specific field.
func (v *ValidationErrors) AddErrorWithField(code ErrorCode, message, field string) {
	v.Errors = append(v.Errors, NewWithField(code, message, field))
}

// AddWarningWithField creates and adds a new warning with a specific field.
func (v *ValidationErrors) AddWarningWithField(code ErrorCode, message, field string) {
	warn := NewWarning(code, message)
	warn.Field = field
	v.Warnings = append(v.Warnings, warn)
}

// HasErrors returns true if the collection contains any errors (non-warning severity).
func (v *ValidationErrors) HasErrors() bool {
	return len(v.Errors) > 0
}

// HasWarnings returns true if the collection contains any warnings.
func (v *ValidationErrors) HasWarnings() bool {
	return len(v.Warnings) > 0
}

// IsValid returns true if the collection contains no errors (warnings do not affect validity).
func (v *ValidationErrors) IsValid() bool {
	return !v.HasErrors()
}

// First returns the first collected error, or nil when the collection is valid.
func (v *ValidationErrors) First() *Error {
	if len(v.Errors) == 0 {
		return nil
	}
	return v.Errors[0]
}

// Merge combines the current ValidationErrors collection with another one.
// All errors and warnings from the 'other' collection are appended to the current one.
func (v *ValidationErrors) Merge(other *ValidationErrors) {
	if other == nil {
		return
	}
	v.Errors = append(v.Errors, other.Errors...)
	v.Warnings = append(v.Warnings, other.Warnings...)
}

// ErrorMessages returns a slice of string messages for all collected errors.
func (v *ValidationErrors) ErrorMessages() []string {
	messages := make([]string, len(v.Errors))
	for i, err := range v.Errors {
		messages[i] = err.Error()
	}
	return messages
}

// WarningMessages returns a slice of string messages for all collected warnings.
func (v *ValidationErrors) WarningMessages() []string {
	messages := make([]string, len(v.Warnings))
	for i, warn := range v.Warnings {
		messages[i] = warn.Message
	}
	return messages
}
