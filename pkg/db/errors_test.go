package db

import (
	"context"
	"database/sql/driver"
	"fmt"
	"net"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/mattn/go-sqlite3"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
)

func TestIsUnavailable(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"plain", errors.New("boom"), false},
		{"canceled", errors.Wrap(context.Canceled, "insert concert"), true},
		{"deadline", fmt.Errorf("run: %w", context.DeadlineExceeded), true},
		{"bad conn", driver.ErrBadConn, true},
		{"network", errors.Wrap(&net.OpError{Op: "dial", Net: "tcp", Err: errors.New("connection refused")}, "ping"), true},
		{"pg connection failure", &pgconn.PgError{Code: "08006"}, true},
		{"pg admin shutdown", &pgconn.PgError{Code: "57P01"}, true},
		{"pg unique violation", &pgconn.PgError{Code: "23505"}, false},
		{"sqlite busy", sqlite3.Error{Code: sqlite3.ErrBusy}, true},
		{"sqlite io", errors.Wrap(sqlite3.Error{Code: sqlite3.ErrIoErr}, "insert work"), true},
		{"sqlite constraint", sqlite3.Error{Code: sqlite3.ErrConstraint}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, IsUnavailable(tt.err))
		})
	}
}
