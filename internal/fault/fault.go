// Package fault defines the error taxonomy shared by the whole pipeline.
// Every failure a user can see maps to exactly one Reason; handlers turn
// the Reason into a short chat message and log the full cause.
package fault

import (
	"errors"
	"fmt"
)

type Reason string

const (
	// Extraction layer.
	InvalidLink    Reason = "invalid_link"
	ExpiredSession Reason = "expired_session"
	UpstreamError  Reason = "upstream_error"

	// Admission / gate.
	RateLimited Reason = "rate_limited"
	TooLarge    Reason = "too_large"
	Busy        Reason = "busy"

	// Transfer.
	NetworkError Reason = "network_error"
	DiskFull     Reason = "disk_full"
	Timeout      Reason = "timeout"

	// Delivery.
	UploadError Reason = "upload_error"
)

// Fault carries a Reason plus the underlying cause. The cause goes to logs;
// the Reason decides what the user sees.
type Fault struct {
	Reason Reason
	Err    error
}

func New(reason Reason, err error) *Fault {
	return &Fault{Reason: reason, Err: err}
}

func Errorf(reason Reason, format string, args ...any) *Fault {
	return &Fault{Reason: reason, Err: fmt.Errorf(format, args...)}
}

func (f *Fault) Error() string {
	if f == nil {
		return ""
	}
	if f.Err == nil {
		return string(f.Reason)
	}
	return string(f.Reason) + ": " + f.Err.Error()
}

func (f *Fault) Unwrap() error {
	if f == nil {
		return nil
	}
	return f.Err
}

// ReasonOf extracts the Reason from any error in the chain.
// Unclassified errors count as UpstreamError so nothing is silently swallowed.
func ReasonOf(err error) Reason {
	var f *Fault
	if errors.As(err, &f) {
		return f.Reason
	}
	return UpstreamError
}

// UserMessage is the short, human-readable chat reply for a failure.
// Never includes stack traces or upstream response bodies.
func UserMessage(err error) string {
	switch ReasonOf(err) {
	case InvalidLink:
		return "❌ That doesn't look like a valid TeraBox share link. Check it's public and try again."
	case ExpiredSession:
		return "❌ The bot's TeraBox session expired. The operator needs to refresh the cookie."
	case RateLimited:
		return "⏳ Slow down — you've hit your request limit. Try again later."
	case TooLarge:
		return "⚠️ File is too large for upload."
	case Busy:
		return "🚦 The download queue is full right now. Try again in a minute."
	case NetworkError:
		return "❌ Network error while downloading. Send the link again to retry."
	case DiskFull:
		return "❌ The server ran out of disk space. Try again later."
	case Timeout:
		return "❌ Download timed out. Send the link again to retry."
	case UploadError:
		return "❌ Couldn't upload the file to Telegram. Send the link again to retry."
	default:
		return "❌ TeraBox didn't cooperate. Try again later."
	}
}
