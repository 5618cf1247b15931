package retry

import (
	"context"
	"errors"
	"io"
	"net"
	"syscall"
)

// Classifier reports whether err is a transient fault worth retrying.
type Classifier func(err error) bool

// IsConnectivityError reports whether err is caused by an I/O or socket
// level failure anywhere in its chain. Context cancellation and deadlines
// are never connectivity errors.
func IsConnectivityError(err error) bool {
	if err == nil || errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}

	var netErr net.Error
	if errors.As(err, &netErr) {
		return true
	}

	return errors.Is(err, io.EOF) ||
		errors.Is(err, io.ErrUnexpectedEOF) ||
		errors.Is(err, io.ErrClosedPipe) ||
		errors.Is(err, net.ErrClosed) ||
		errors.Is(err, syscall.ECONNRESET) ||
		errors.Is(err, syscall.ECONNREFUSED) ||
		errors.Is(err, syscall.ECONNABORTED) ||
		errors.Is(err, syscall.EPIPE)
}
