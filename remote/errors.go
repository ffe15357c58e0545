package remote

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"

	"github.com/aluiziolira/library-desk/parser"
)

// ErrNetworkUnavailable indicates the backend could not be reached at all.
type ErrNetworkUnavailable struct {
	Err     error
	Timeout bool
}

func (e ErrNetworkUnavailable) Error() string {
	if e.Timeout {
		return fmt.Errorf("network unavailable (timeout): %w", e.Err).Error()
	}
	return fmt.Errorf("network unavailable: %w", e.Err).Error()
}

func (e ErrNetworkUnavailable) Unwrap() error {
	return e.Err
}

// ErrRemote indicates the backend answered with a failure status.
type ErrRemote struct {
	StatusCode int
	Message    string
}

func (e ErrRemote) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("remote: status %d", e.StatusCode)
	}
	return fmt.Sprintf("remote: status %d: %s", e.StatusCode, e.Message)
}

// IsUnavailable reports whether err means the backend was unreachable.
func IsUnavailable(err error) bool {
	var unavailable ErrNetworkUnavailable
	return errors.As(err, &unavailable)
}

// IsNotFound reports whether the backend answered 404 or a not-found marker.
func IsNotFound(err error) bool {
	var remote ErrRemote
	if errors.As(err, &remote) {
		return remote.StatusCode == http.StatusNotFound
	}
	return errors.Is(err, parser.ErrNotFound)
}

// Message returns the text a user should see for err: the server's message
// for remote failures, otherwise the error string.
func Message(err error) string {
	var remote ErrRemote
	if errors.As(err, &remote) && remote.Message != "" {
		return remote.Message
	}
	if err == nil {
		return ""
	}
	return err.Error()
}

func classifyError(err error, statusCode int, body []byte) error {
	if err == nil && statusCode == 0 {
		return nil
	}

	if statusCode != 0 {
		message := parser.ErrorMessage(body)
		if message == "" {
			message = http.StatusText(statusCode)
		}
		return ErrRemote{StatusCode: statusCode, Message: message}
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return ErrNetworkUnavailable{Err: err, Timeout: true}
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return ErrNetworkUnavailable{Err: err, Timeout: true}
	}
	return ErrNetworkUnavailable{Err: err}
}

func errorTypeLabel(err error) string {
	if err == nil {
		return "unknown"
	}
	var unavailable ErrNetworkUnavailable
	if errors.As(err, &unavailable) {
		if unavailable.Timeout {
			return "timeout"
		}
		return "connection"
	}
	var remote ErrRemote
	if errors.As(err, &remote) {
		switch {
		case remote.StatusCode == http.StatusNotFound:
			return "not_found"
		case remote.StatusCode >= http.StatusInternalServerError:
			return "server"
		default:
			return "client"
		}
	}
	return "other"
}

func retryable(err error) bool {
	var unavailable ErrNetworkUnavailable
	if errors.As(err, &unavailable) {
		return !errors.Is(err, context.Canceled)
	}
	var remote ErrRemote
	if errors.As(err, &remote) {
		return remote.StatusCode >= http.StatusInternalServerError
	}
	return false
}
