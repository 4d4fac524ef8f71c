// Package retryable provides ready-made failure matchers for common
// transient error families, meant for a retry policy's included set.
package retryable

import (
	"context"
	"errors"
	"io"
	"net"
	"net/url"
	"os"
	"strings"
	"syscall"

	"github.com/jackc/pgx/v5/pgconn"

	"retrykit/pkg/failure"
)

// Network matches transient network failures: timeouts, closed connections,
// EOF during exchange, temporary DNS errors and connection-level syscall
// errors. Context cancellation never matches.
func Network() failure.Matcher {
	return failure.Func(isNetworkError)
}

// Timeouts matches context deadline expiry and net.Error timeouts.
func Timeouts() failure.Matcher {
	return failure.Func(func(err error) bool {
		if err == nil {
			return false
		}
		if errors.Is(err, context.DeadlineExceeded) {
			return true
		}
		var netErr net.Error
		return errors.As(err, &netErr) && netErr.Timeout()
	})
}

// Temporary matches errors implementing the legacy Temporary() interface.
func Temporary() failure.Matcher {
	return failure.Func(func(err error) bool {
		var t interface{ Temporary() bool }
		return errors.As(err, &t) && t.Temporary()
	})
}

// Postgres matches PostgreSQL errors worth retrying: requests pgx reports as
// safe to retry, connection failures (SQLSTATE class 08), serialization
// failures (40001), deadlocks (40P01) and server startup (57P03).
func Postgres() failure.Matcher {
	return failure.Func(func(err error) bool {
		if err == nil {
			return false
		}
		if pgconn.SafeToRetry(err) {
			return true
		}
		var pgErr *pgconn.PgError
		if !errors.As(err, &pgErr) {
			return false
		}
		switch pgErr.Code {
		case "40001", "40P01", "57P03":
			return true
		}
		return strings.HasPrefix(pgErr.Code, "08")
	})
}

func isNetworkError(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.Canceled) {
		return false
	}
	if errors.Is(err, net.ErrClosed) {
		return true
	}
	if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
		return true
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}

	var ue *url.Error
	if errors.As(err, &ue) {
		var dnsErr *net.DNSError
		if errors.As(ue.Err, &dnsErr) && dnsErr.IsTemporary {
			return true
		}
	}

	var opErr *net.OpError
	if errors.As(err, &opErr) {
		var se *os.SyscallError
		if errors.As(opErr.Err, &se) {
			switch se.Err {
			case syscall.ECONNRESET, syscall.ECONNREFUSED, syscall.ECONNABORTED,
				syscall.ENETDOWN, syscall.ENETUNREACH, syscall.EPIPE,
				syscall.EHOSTUNREACH, syscall.ETIMEDOUT:
				return true
			}
		}
	}

	return false
}
