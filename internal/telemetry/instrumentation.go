package telemetry

import (
	"context"
	"time"
)

// InstrumentDBOperation wraps a database operation with telemetry.
func (t *Telemetry) InstrumentDBOperation(ctx context.Context, operation string, fn func(context.Context) error) error {
	start := time.Now()
	err := fn(ctx)
	duration := time.Since(start)

	status := "success"
	if err != nil {
		status = "error"
	}

	t.RecordDBOperation(operation, status, duration)

	return err
}
