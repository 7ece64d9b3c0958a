package metadata

// Error is returned for every failure caused by the input image or edit
// request. Message is safe to show to callers; Err holds the underlying
// cause, which may contain library detail and is only for logs.
type Error struct {
	Message string
	Err     error
}

func (e *Error) Error() string {
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

const (
	msgCannotProcess  = "cannot process image file"
	msgLoadExif       = "failed to load EXIF data"
	msgNotEditable    = "EXIF editing is not supported for this image format"
	msgEncodeExif     = "failed to encode EXIF data"
	msgApplyExif      = "failed to apply EXIF data"
	msgMissingResult  = "no metadata to edit"
	msgUnsupportedTag = "unsupported EXIF tag: %s"
	msgInvalidValue   = "invalid value for EXIF tag %s: %s"
)
