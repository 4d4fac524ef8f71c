package retryable_test

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/url"
	"os"
	"syscall"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"

	"retrykit/pkg/retryable"
)

type timeoutError struct{}

func (timeoutError) Error() string   { return "i/o timeout" }
func (timeoutError) Timeout() bool   { return true }
func (timeoutError) Temporary() bool { return true }

type tempError struct{ temp bool }

func (e tempError) Error() string   { return "maybe temporary" }
func (e tempError) Temporary() bool { return e.temp }

func TestNetwork(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected bool
	}{
		{"nil", nil, false},
		{"context canceled", context.Canceled, false},
		{"plain error", errors.New("boom"), false},
		{"net closed", net.ErrClosed, true},
		{"eof", io.EOF, true},
		{"unexpected eof", io.ErrUnexpectedEOF, true},
		{"wrapped eof", fmt.Errorf("read: %w", io.EOF), true},
		{"net timeout", timeoutError{}, true},
		{
			name:     "temporary dns error",
			err:      &url.Error{Op: "Get", URL: "http://example.com", Err: &net.DNSError{IsTemporary: true}},
			expected: true,
		},
		{
			name:     "permanent dns error",
			err:      &url.Error{Op: "Get", URL: "http://example.com", Err: &net.DNSError{}},
			expected: false,
		},
		{
			name:     "connection refused",
			err:      &net.OpError{Op: "dial", Err: os.NewSyscallError("connect", syscall.ECONNREFUSED)},
			expected: true,
		},
		{
			name:     "connection reset",
			err:      &net.OpError{Op: "read", Err: os.NewSyscallError("read", syscall.ECONNRESET)},
			expected: true,
		},
		{
			name:     "permission denied syscall",
			err:      &net.OpError{Op: "dial", Err: os.NewSyscallError("connect", syscall.EACCES)},
			expected: false,
		},
	}

	m := retryable.Network()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, m.Matches(tt.err))
		})
	}
}

func TestTimeouts(t *testing.T) {
	m := retryable.Timeouts()

	assert.True(t, m.Matches(context.DeadlineExceeded))
	assert.True(t, m.Matches(fmt.Errorf("op: %w", context.DeadlineExceeded)))
	assert.True(t, m.Matches(&net.OpError{Op: "read", Err: timeoutError{}}))
	assert.False(t, m.Matches(context.Canceled))
	assert.False(t, m.Matches(errors.New("boom")))
	assert.False(t, m.Matches(nil))
}

func TestTemporary(t *testing.T) {
	m := retryable.Temporary()

	assert.True(t, m.Matches(tempError{temp: true}))
	assert.False(t, m.Matches(tempError{temp: false}))
	assert.False(t, m.Matches(errors.New("boom")))
}

func TestPostgres(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected bool
	}{
		{"nil", nil, false},
		{"plain error", errors.New("boom"), false},
		{"serialization failure", &pgconn.PgError{Code: "40001"}, true},
		{"deadlock detected", &pgconn.PgError{Code: "40P01"}, true},
		{"cannot connect now", &pgconn.PgError{Code: "57P03"}, true},
		{"connection exception class", &pgconn.PgError{Code: "08006"}, true},
		{"wrapped transient error", fmt.Errorf("query: %w", &pgconn.PgError{Code: "40001"}), true},
		{"unique violation", &pgconn.PgError{Code: "23505"}, false},
		{"syntax error", &pgconn.PgError{Code: "42601"}, false},
	}

	m := retryable.Postgres()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, m.Matches(tt.err))
		})
	}
}
