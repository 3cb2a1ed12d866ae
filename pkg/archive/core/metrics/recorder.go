// Package metrics defines the instrumentation ports of the archive. Implementations live
// in infrastructure/metrics; the no-op versions here are the fallback.
package metrics

import (
	"context"
	"time"

	"github.com/tigerroll/soundings/pkg/archive/support/util/exception"
)

// Outcome labels of an index or archive operation.
const (
	OutcomeSuccess              = "success"
	OutcomeDuplicateKey         = "duplicate_key"
	OutcomeNotFound             = "not_found"
	OutcomeReferentialViolation = "referential_violation"
	OutcomeStoreUnavailable     = "store_unavailable"
	OutcomeInvalidArgument      = "invalid_argument"
)

// Outcome returns the outcome label of err.
func Outcome(err error) string {
	if err == nil {
		return OutcomeSuccess
	}
	switch exception.KindOf(err) {
	case exception.KindDuplicateKey:
		return OutcomeDuplicateKey
	case exception.KindNotFound:
		return OutcomeNotFound
	case exception.KindReferentialViolation:
		return OutcomeReferentialViolation
	case exception.KindInvalidArgument:
		return OutcomeInvalidArgument
	default:
		return OutcomeStoreUnavailable
	}
}

// Payload transfer directions.
const (
	DirectionUpload   = "upload"
	DirectionDownload = "download"
)

// MetricRecorder records operational metrics of the archive.
type MetricRecorder interface {
	// RecordOperation records one call of op with its outcome label and duration.
	RecordOperation(ctx context.Context, op string, outcome string, duration time.Duration)

	// RecordPayloadBytes records compressed bytes moved to or from the payload store.
	RecordPayloadBytes(ctx context.Context, direction string, n int64)

	// RecordPurged records the number of files removed by a retention sweep.
	RecordPurged(ctx context.Context, n int)
}
