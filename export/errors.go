package export

import (
	"context"
	"errors"

	errorslib "github.com/goliatone/go-errors"
)

// ErrorKind defines export error kinds.
type ErrorKind string

const (
	KindValidation ErrorKind = "validation"
	KindNoContent  ErrorKind = "no_exportable_content"
	KindCapture    ErrorKind = "capture"
	KindAssembly   ErrorKind = "assembly"
	KindInProgress ErrorKind = "export_in_progress"
	KindTimeout    ErrorKind = "timeout"
	KindCanceled   ErrorKind = "canceled"
	KindInternal   ErrorKind = "internal"
	KindNotImpl    ErrorKind = "not_implemented"
)

// Text codes surfaced to transports and user-facing notices.
const (
	CodeNoExportableContent     = "NO_EXPORTABLE_CONTENT"
	CodeCaptureError            = "CAPTURE_ERROR"
	CodeAssemblyError           = "ASSEMBLY_ERROR"
	CodeExportAlreadyInProgress = "EXPORT_ALREADY_IN_PROGRESS"
)

// ExportError wraps errors with a kind.
type ExportError struct {
	Kind   ErrorKind
	Msg    string
	Err    error
	Region string
}

func (e *ExportError) Error() string {
	msg := e.Msg
	if e.Region != "" {
		msg = msg + " (region " + e.Region + ")"
	}
	if e.Err == nil {
		return msg
	}
	return msg + ": " + e.Err.Error()
}

func (e *ExportError) Unwrap() error {
	return e.Err
}

// NewError creates a new export error.
func NewError(kind ErrorKind, msg string, err error) *ExportError {
	return &ExportError{Kind: kind, Msg: msg, Err: err}
}

// NewCaptureError creates a per-region capture error.
func NewCaptureError(regionID, msg string, err error) *ExportError {
	return &ExportError{Kind: KindCapture, Msg: msg, Err: err, Region: regionID}
}

// ErrNoExportableContent reports a job with zero exportable regions.
func ErrNoExportableContent() *ExportError {
	return NewError(KindNoContent, "no exportable content found", nil)
}

// ErrExportAlreadyInProgress reports a rejected concurrent export request.
func ErrExportAlreadyInProgress() *ExportError {
	return NewError(KindInProgress, "an export is already in progress", nil)
}

// AsGoError maps an error into a go-errors error.
func AsGoError(err error) *errorslib.Error {
	if err == nil {
		return nil
	}

	var ge *errorslib.Error
	if errors.As(err, &ge) {
		return ge
	}

	kind := KindFromError(err)
	msg := err.Error()

	var exportErr *ExportError
	if errors.As(err, &exportErr) && exportErr.Msg != "" {
		msg = exportErr.Msg
	}

	switch kind {
	case KindValidation:
		return errorslib.New(msg, errorslib.CategoryValidation).WithTextCode("validation")
	case KindNoContent:
		return errorslib.New(msg, errorslib.CategoryNotFound).WithTextCode(CodeNoExportableContent)
	case KindInProgress:
		return errorslib.New(msg, errorslib.CategoryOperation).WithTextCode(CodeExportAlreadyInProgress)
	case KindCapture:
		return errorslib.New(msg, errorslib.CategoryExternal).WithTextCode(CodeCaptureError)
	case KindAssembly:
		return errorslib.New(msg, errorslib.CategoryInternal).WithTextCode(CodeAssemblyError)
	case KindTimeout:
		return errorslib.New(msg, errorslib.CategoryOperation).WithTextCode("timeout")
	case KindCanceled:
		return errorslib.New(msg, errorslib.CategoryOperation).WithTextCode("canceled")
	case KindNotImpl:
		return errorslib.New(msg, errorslib.CategoryOperation).WithTextCode("not_implemented")
	default:
		return errorslib.New(msg, errorslib.CategoryInternal).WithTextCode("internal")
	}
}

// KindFromError maps an error to its export error kind.
func KindFromError(err error) ErrorKind {
	if err == nil {
		return ""
	}

	var exportErr *ExportError
	if errors.As(err, &exportErr) {
		return exportErr.Kind
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return KindTimeout
	}
	if errors.Is(err, context.Canceled) {
		return KindCanceled
	}

	return KindInternal
}

// IsKind reports whether err carries the given kind.
func IsKind(err error, kind ErrorKind) bool {
	return err != nil && KindFromError(err) == kind
}
