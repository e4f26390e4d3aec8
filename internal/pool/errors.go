package pool

import (
	"errors"

	"github.com/richxcame/ride-hailing/pkg/common"
)

// Internal control-flow errors. Never surfaced to callers; the matching
// loop absorbs them and continues scanning.
var (
	errCapacityExceeded = errors.New("pool: candidate capacity exceeded")
	errStaleCandidate   = errors.New("pool: candidate vanished between scan and lock")
)

// ErrIndexerUnavailable is returned when the routing API failed or returned
// no route. No pool mutation has happened when this is returned.
func ErrIndexerUnavailable(err error) *common.AppError {
	return common.NewServiceUnavailableError("route indexer unavailable: " + errString(err))
}

// ErrPoolUnavailable is returned when the Pool Store is unreachable or an
// operation failed. The engine does not self-retry.
func ErrPoolUnavailable(err error) *common.AppError {
	return common.NewServiceUnavailableError("pool store unavailable: " + errString(err))
}

// ErrWorkerPoolTerminated is returned for every task still outstanding when
// the dispatcher shuts down.
var ErrWorkerPoolTerminated = common.NewServiceUnavailableError("worker pool terminated")

func errString(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}
