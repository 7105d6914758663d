package repos

import (
	"context"
	"errors"
	"fmt"
	"net"

	"github.com/architeacher/workpackages/services/svc-workpackages/internal/domain/model"
	"github.com/jackc/pgx/v5/pgconn"
)

// storageError tags a driver error as a connection or a query failure and
// keeps the driver error in the chain.
func storageError(err error) error {
	if isConnectionError(err) {
		return fmt.Errorf("%w: %w", model.ErrDatabaseConnection, err)
	}

	return fmt.Errorf("%w: %w", model.ErrDatabaseQuery, err)
}

func isConnectionError(err error) bool {
	// Context errors satisfy net.Error but say nothing about the database.
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}

	var connectErr *pgconn.ConnectError
	if errors.As(err, &connectErr) {
		return true
	}

	if pgconn.SafeToRetry(err) {
		return true
	}

	var netErr net.Error

	return errors.As(err, &netErr)
}
