package backend

import (
	"context"
	"errors"
	"fmt"

	"github.com/godbus/dbus/v5"
	"github.com/hashicorp/go-multierror"

	"github.com/rodsilvavieira2/screenshot-gnome/internal/capture"
)

// FailureKind classifies why a backend attempt did not produce a result.
type FailureKind string

const (
	// FailureUnavailable means the backend's tool or service is not
	// present on this host at all.
	FailureUnavailable FailureKind = "unavailable"
	// FailureInvocation means the tool or IPC call ran but reported an
	// error.
	FailureInvocation FailureKind = "invocation_failed"
	// FailureTimeout means the attempt exceeded its per-attempt deadline.
	FailureTimeout FailureKind = "timeout"
	// FailureParse means the tool produced output whose top-level shape
	// was not recognizable.
	FailureParse FailureKind = "parse_failed"
)

// Error is one backend attempt's failure, carrying which backend failed
// and how.
type Error struct {
	Kind    FailureKind
	Backend string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Backend, e.Kind, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Backend, e.Kind)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// parseFailed builds a ParseFailed error describing the shape mismatch.
func parseFailed(backend, format string, args ...any) *Error {
	return &Error{Kind: FailureParse, Backend: backend, Err: fmt.Errorf(format, args...)}
}

// unavailable builds an Unavailable error.
func unavailable(backend, format string, args ...any) *Error {
	return &Error{Kind: FailureUnavailable, Backend: backend, Err: fmt.Errorf(format, args...)}
}

// classify maps an arbitrary adapter failure into the taxonomy. Missing
// tools and absent D-Bus services count as Unavailable, deadline hits as
// Timeout, anything else as InvocationFailed. Errors already classified
// pass through untouched.
func classify(backend string, err error) *Error {
	var be *Error
	if errors.As(err, &be) {
		return be
	}

	switch {
	case errors.Is(err, capture.ErrToolNotFound):
		return &Error{Kind: FailureUnavailable, Backend: backend, Err: err}
	case errors.Is(err, context.DeadlineExceeded):
		return &Error{Kind: FailureTimeout, Backend: backend, Err: err}
	case isDBusServiceMissing(err):
		return &Error{Kind: FailureUnavailable, Backend: backend, Err: err}
	default:
		return &Error{Kind: FailureInvocation, Backend: backend, Err: err}
	}
}

// isDBusServiceMissing recognizes the bus errors that mean the shell
// interface we want simply is not there.
func isDBusServiceMissing(err error) bool {
	var dbusErr dbus.Error
	if !errors.As(err, &dbusErr) {
		return false
	}
	switch dbusErr.Name {
	case "org.freedesktop.DBus.Error.ServiceUnknown",
		"org.freedesktop.DBus.Error.NameHasNoOwner",
		"org.freedesktop.DBus.Error.UnknownMethod",
		"org.freedesktop.DBus.Error.UnknownInterface",
		"org.freedesktop.DBus.Error.UnknownObject":
		return true
	}
	return false
}

// Shared invocation failure causes.
var (
	errUnresolvedWindow = errors.New("window capture dispatched without a resolved window")
	errNoGeometry       = errors.New("window has no usable geometry")
	errUnknownMode      = errors.New("unknown capture mode")
)

// WindowGoneError reports that a window id from an earlier listing no
// longer exists. Callers should re-list and re-select rather than retry.
type WindowGoneError struct {
	ID string
}

func (e *WindowGoneError) Error() string {
	return fmt.Sprintf("window %q is gone", e.ID)
}

// IsWindowGone reports whether err is a WindowGoneError.
func IsWindowGone(err error) bool {
	var wge *WindowGoneError
	return errors.As(err, &wge)
}

// AllBackendsFailedError aggregates every candidate's failure after the
// whole fallback chain was exhausted. Attempts preserves catalog order so
// "nothing installed" and "everything broken" stay distinguishable.
type AllBackendsFailedError struct {
	Op       string
	Attempts []*Error
}

func (e *AllBackendsFailedError) Error() string {
	var agg *multierror.Error
	for _, attempt := range e.Attempts {
		agg = multierror.Append(agg, attempt)
	}
	return fmt.Sprintf("%s: all %d backends failed: %s", e.Op, len(e.Attempts), agg.Error())
}

// Unwrap exposes the individual attempts to errors.Is/As.
func (e *AllBackendsFailedError) Unwrap() []error {
	errs := make([]error, len(e.Attempts))
	for i, attempt := range e.Attempts {
		errs[i] = attempt
	}
	return errs
}

// IsAllBackendsFailed reports whether err is the aggregate failure, and
// returns it when so.
func IsAllBackendsFailed(err error) (*AllBackendsFailedError, bool) {
	var abf *AllBackendsFailedError
	if errors.As(err, &abf) {
		return abf, true
	}
	return nil, false
}
