package analysis

import "errors"

var (
	// ErrNoFile indicates the multipart request carried no "file" field.
	ErrNoFile = errors.New("no file uploaded")

	// ErrUnsupportedType indicates the declared MIME type maps to no category.
	ErrUnsupportedType = errors.New("unsupported file type")

	// ErrFileTooLarge indicates the upload exceeds the configured size ceiling.
	ErrFileTooLarge = errors.New("file exceeds size limit")

	// ErrProviderQuota indicates the outbound call budget for a provider is
	// exhausted (HTTP 429 to the caller, never a demo fallback).
	ErrProviderQuota = errors.New("provider call quota exceeded")
)
