package entity

import "errors"

var (
	ErrSourceUnreadable  = errors.New("source unreadable")
	ErrInvalidRate       = errors.New("invalid rate")
	ErrInvalidFormat     = errors.New("invalid frame format")
	ErrRateExceedsSource = errors.New("rate exceeds source frame rate")
	ErrOutputDirectory   = errors.New("output directory error")
	ErrDecode            = errors.New("decode error")
	ErrEncode            = errors.New("encode error")
	ErrCancelled         = errors.New("sampling cancelled")
)

type ErrorKind string

const (
	KindNone              ErrorKind = ""
	KindSourceUnreadable  ErrorKind = "SOURCE_UNREADABLE"
	KindInvalidRate       ErrorKind = "INVALID_RATE"
	KindInvalidFormat     ErrorKind = "INVALID_FORMAT"
	KindRateExceedsSource ErrorKind = "RATE_EXCEEDS_SOURCE"
	KindOutputDirectory   ErrorKind = "OUTPUT_DIRECTORY_ERROR"
	KindDecode            ErrorKind = "DECODE_ERROR"
	KindEncode            ErrorKind = "ENCODE_ERROR"
	KindCancelled         ErrorKind = "CANCELLED"
	KindUnknown           ErrorKind = "UNKNOWN"
)

var errorKinds = []struct {
	err  error
	kind ErrorKind
}{
	{ErrSourceUnreadable, KindSourceUnreadable},
	{ErrInvalidRate, KindInvalidRate},
	{ErrInvalidFormat, KindInvalidFormat},
	{ErrRateExceedsSource, KindRateExceedsSource},
	{ErrOutputDirectory, KindOutputDirectory},
	{ErrDecode, KindDecode},
	{ErrEncode, KindEncode},
	{ErrCancelled, KindCancelled},
}

func KindOf(err error) ErrorKind {
	if err == nil {
		return KindNone
	}
	for _, k := range errorKinds {
		if errors.Is(err, k.err) {
			return k.kind
		}
	}
	return KindUnknown
}

// Permanent reports whether running the same request again cannot succeed.
func (k ErrorKind) Permanent() bool {
	switch k {
	case KindSourceUnreadable, KindInvalidRate, KindInvalidFormat, KindRateExceedsSource:
		return true
	}
	return false
}
