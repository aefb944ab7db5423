package constants

import "errors"

// Kind names one of the failure classes a search request can end in.
type Kind string

const (
	KindMissingFile       Kind = "MissingFile"
	KindEmptyFile         Kind = "EmptyFile"
	KindUnsupportedFormat Kind = "UnsupportedFormat"
	KindNoReadableText    Kind = "NoReadableText"
	KindInternal          Kind = "InternalProcessingError"
)

var (
	ErrMissingFile       = errors.New("no file uploaded")
	ErrEmptyFile         = errors.New("uploaded file is empty")
	ErrUnsupportedFormat = errors.New("unsupported file format, use .pdf, .docx or .txt")
	ErrNoReadableText    = errors.New("no readable text found in file")
	ErrInternal          = errors.New("internal processing error")
)

// KindOf classifies err. Anything that is not one of the known input errors
// is an internal processing error.
func KindOf(err error) Kind {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrMissingFile):
		return KindMissingFile
	case errors.Is(err, ErrEmptyFile):
		return KindEmptyFile
	case errors.Is(err, ErrUnsupportedFormat):
		return KindUnsupportedFormat
	case errors.Is(err, ErrNoReadableText):
		return KindNoReadableText
	default:
		return KindInternal
	}
}
