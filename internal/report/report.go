// Package report defines the result envelope returned by every plumber
// operation: a status, a human-readable report, and an optional error
// message. Commands render it to stdout and derive their exit code from it.
package report

import "fmt"

// Status classifies the outcome of an operation.
type Status string

const (
	StatusSuccess Status = "success"
	StatusWarning Status = "success_with_warning"
	StatusError   Status = "error"
)

// Report is the uniform operation result.
type Report struct {
	Status  Status `json:"status"`
	Report  string `json:"report,omitempty"`
	Message string `json:"message,omitempty"`
}

// Success returns a success report with the given body.
func Success(body string) Report {
	return Report{Status: StatusSuccess, Report: body}
}

// Successf returns a success report with a formatted body.
func Successf(format string, args ...any) Report {
	return Report{Status: StatusSuccess, Report: fmt.Sprintf(format, args...)}
}

// Warningf returns a success-with-warning report.
func Warningf(body string, format string, args ...any) Report {
	return Report{
		Status:  StatusWarning,
		Report:  body,
		Message: fmt.Sprintf(format, args...),
	}
}

// Errorf returns an error report.
func Errorf(format string, args ...any) Report {
	return Report{Status: StatusError, Message: fmt.Sprintf(format, args...)}
}

// Failf returns an error report that still carries a body, for operations
// whose output matters even when they fail.
func Failf(body string, format string, args ...any) Report {
	return Report{
		Status:  StatusError,
		Report:  body,
		Message: fmt.Sprintf(format, args...),
	}
}

// IsError reports whether the operation failed.
func (r Report) IsError() bool {
	return r.Status == StatusError
}

// String renders the report for terminal output.
func (r Report) String() string {
	switch r.Status {
	case StatusError:
		if r.Report != "" {
			return fmt.Sprintf("%s\nerror: %s", r.Report, r.Message)
		}
		return fmt.Sprintf("error: %s", r.Message)
	case StatusWarning:
		return fmt.Sprintf("%s\nwarning: %s", r.Report, r.Message)
	default:
		return r.Report
	}
}

// Err converts an error report into a Go error, and nil otherwise.
func (r Report) Err() error {
	if r.IsError() {
		return fmt.Errorf("%s", r.Message)
	}
	return nil
}
