package domain

// ProcessingStatus tracks the lifecycle of a single batch item.
type ProcessingStatus string

const (
	StatusPending    ProcessingStatus = "pending"
	StatusProcessing ProcessingStatus = "processing"
	StatusCompleted  ProcessingStatus = "completed"
	StatusError      ProcessingStatus = "error"
	StatusCancelled  ProcessingStatus = "cancelled"
)

// Terminal reports whether a status is final for the batch run.
func (s ProcessingStatus) Terminal() bool {
	return s == StatusCompleted || s == StatusError || s == StatusCancelled
}

// ResultStatus tags an ExtractionResult as the success or error branch.
type ResultStatus string

const (
	ResultSuccess ResultStatus = "success"
	ResultError   ResultStatus = "error"
)

// ChatRole identifies the author of a transcript message.
type ChatRole string

const (
	RoleUser      ChatRole = "user"
	RoleAssistant ChatRole = "assistant"
)

// SessionMode selects how the analysis session id is established. The two
// modes are mutually exclusive for a batch: inline adopts the id carried by
// the first successful extraction response; explicit issues one
// create-session call after the batch settles.
type SessionMode string

const (
	SessionModeInline   SessionMode = "inline"
	SessionModeExplicit SessionMode = "explicit"
)

// FileType represents the allowed file types for intake.
type FileType string

const (
	FileTypePDF FileType = "pdf"
	FileTypeJPG FileType = "jpg"
	FileTypePNG FileType = "png"
	FileTypeTXT FileType = "txt"
)

// AllowedFileTypes maps FileType to its MIME content type.
var AllowedFileTypes = map[FileType]string{
	FileTypePDF: "application/pdf",
	FileTypeJPG: "image/jpeg",
	FileTypePNG: "image/png",
	FileTypeTXT: "text/plain",
}

// AllowedContentTypes maps MIME content types back to FileType.
var AllowedContentTypes = map[string]FileType{
	"application/pdf": FileTypePDF,
	"image/jpeg":      FileTypeJPG,
	"image/png":       FileTypePNG,
	"text/plain":      FileTypeTXT,
}

// AllowedExtensions maps file extensions (without dot) to FileType.
var AllowedExtensions = map[string]FileType{
	"pdf":  FileTypePDF,
	"jpg":  FileTypeJPG,
	"jpeg": FileTypeJPG,
	"png":  FileTypePNG,
	"txt":  FileTypeTXT,
}
