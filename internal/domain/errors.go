package domain

import "errors"

var (
	ErrNotFound            = errors.New("resource not found")
	ErrUnsupportedFileType = errors.New("unsupported file type")
	ErrFileTooLarge        = errors.New("file exceeds maximum allowed size")
	ErrEmptyFile           = errors.New("file is empty")
	ErrEmptyBatch          = errors.New("batch contains no documents")
	ErrBatchRunning        = errors.New("batch is already being processed")
	ErrNoSession           = errors.New("no analysis session is active")
	ErrEmptyQuestion       = errors.New("question must not be empty")
	ErrInvalidSessionMode  = errors.New("invalid session mode")
)
