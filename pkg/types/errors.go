package types

import "errors"

// CSV decode errors. Codec functions wrap these with the offending line, so
// callers match them with errors.Is.
var (
	ErrMalformedTemplateBlock   = errors.New("malformed template block: named or missing type row")
	ErrMissingFieldKey          = errors.New("missing field key")
	ErrUnbalancedNesting        = errors.New("unbalanced nesting: '<' without matching '>'")
	ErrUnresolvedFieldType      = errors.New("unresolved field type")
	ErrUnresolvedImageReference = errors.New("unresolved image reference")
	ErrInvalidDataType          = errors.New("invalid data type")
	ErrUnknownBlock             = errors.New("unrecognized csv block header")
)

// Store errors.
var (
	ErrNotFound              = errors.New("entity not found")
	ErrInvalidID             = errors.New("invalid entity ID")
	ErrInvalidName           = errors.New("invalid name")
	ErrDuplicateName         = errors.New("duplicate field name")
	ErrDuplicateTemplateName = errors.New("duplicate template name")
	ErrFieldNotFound         = errors.New("custom field not found")
	ErrTemplateNotFound      = errors.New("template not found")
)

// Backend lifecycle errors.
var (
	ErrBackendDetached = errors.New("backend is detached")
	ErrAlreadyAttached = errors.New("backend is already attached")
)
