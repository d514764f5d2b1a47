package domain

import "errors"

var (
	ErrNotFound   = errors.New("not found")
	ErrQueueEmpty = errors.New("queue empty")
)

// Kind classifies a failure raised while serving one try-on request.
type Kind string

const (
	KindValidation Kind = "validation"
	KindDecode     Kind = "decode"
	KindSynthesis  Kind = "synthesis"
	KindEncode     Kind = "encode"
)

// Error is the error type returned by every request stage. Message is the
// human readable text surfaced in response envelopes.
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err == nil {
		return e.Message
	}
	if e.Message == "" {
		return e.Err.Error()
	}
	return e.Message + ": " + e.Err.Error()
}

func (e *Error) Unwrap() error { return e.Err }

// ValidationError reports missing or malformed input.
func ValidationError(msg string) error {
	return &Error{Kind: KindValidation, Message: msg}
}

// DecodeError reports base64 or image bytes that could not be parsed.
func DecodeError(msg string, err error) error {
	return &Error{Kind: KindDecode, Message: msg, Err: err}
}

// SynthesisError reports a provider that was not ready or failed.
func SynthesisError(msg string, err error) error {
	return &Error{Kind: KindSynthesis, Message: msg, Err: err}
}

// EncodeError reports a result image that could not be serialized.
func EncodeError(msg string, err error) error {
	return &Error{Kind: KindEncode, Message: msg, Err: err}
}

// KindOf returns the kind of err, or an empty Kind when err is not a
// domain error.
func KindOf(err error) Kind {
	var de *Error
	if errors.As(err, &de) {
		return de.Kind
	}
	return ""
}
