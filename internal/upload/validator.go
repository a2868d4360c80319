package upload

import (
	"errors"
	"fmt"
	"slices"
)

// MaxFileSize is the default upload ceiling (500 MiB)
const MaxFileSize int64 = 500 * 1024 * 1024

// DefaultAllowedTypes are the video container types accepted by default
var DefaultAllowedTypes = []string{
	"video/mp4",
	"video/x-matroska",
	"video/quicktime",
	"video/x-msvideo",
}

var (
	// ErrUnsupportedType is returned for files outside the MIME allow-list
	ErrUnsupportedType = errors.New("unsupported file type")
	// ErrFileTooLarge is returned for files over the size ceiling
	ErrFileTooLarge = errors.New("file too large")
)

// ValidationError carries the user-facing reason for a rejected file
type ValidationError struct {
	Err    error
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Err, e.Reason)
}

func (e *ValidationError) Unwrap() error {
	return e.Err
}

// FileInfo describes a candidate file as reported by the client
type FileInfo struct {
	Name     string `json:"name"`
	MIMEType string `json:"mimeType"`
	Size     int64  `json:"size"`
}

// File is an accepted upload held in memory for the session
type File struct {
	FileInfo
	Data []byte `json:"-"`
}

// Validator checks declared MIME type and size. Content is never sniffed.
type Validator struct {
	allowedTypes []string
	maxSize      int64
}

// NewValidator creates a validator; empty arguments fall back to the defaults
func NewValidator(allowedTypes []string, maxSize int64) *Validator {
	if len(allowedTypes) == 0 {
		allowedTypes = DefaultAllowedTypes
	}
	if maxSize <= 0 {
		maxSize = MaxFileSize
	}
	return &Validator{
		allowedTypes: slices.Clone(allowedTypes),
		maxSize:      maxSize,
	}
}

// AllowedTypes returns the accepted MIME types
func (v *Validator) AllowedTypes() []string {
	return slices.Clone(v.allowedTypes)
}

// MaxSize returns the size ceiling in bytes
func (v *Validator) MaxSize() int64 {
	return v.maxSize
}

// Validate accepts a file only if its type is allowed and its size is within the ceiling.
// Type is checked first.
func (v *Validator) Validate(info FileInfo) error {
	if !slices.Contains(v.allowedTypes, info.MIMEType) {
		return &ValidationError{
			Err:    ErrUnsupportedType,
			Reason: "Please upload a valid video file (MP4, MKV, MOV, or AVI)",
		}
	}
	if info.Size > v.maxSize {
		return v.TooLarge()
	}
	return nil
}

// TooLarge returns the rejection for a file over the ceiling
func (v *Validator) TooLarge() error {
	return &ValidationError{
		Err:    ErrFileTooLarge,
		Reason: fmt.Sprintf("File size exceeds %dMB limit", v.maxSize/(1024*1024)),
	}
}
