package errx

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// Format renders err as the single-line "Error: <kind>: <detail>" string used
// for terminal error events. Aggregate errors (errors.Join, parallel tool
// failures) are unwrapped to their first sub-error so the real cause is shown.
func Format(err error) string {
	if err == nil {
		return "Error: unknown"
	}
	err = FirstCause(err)

	if errors.Is(err, context.DeadlineExceeded) {
		return fmt.Sprintf("Error: %s: %v", TimeoutMessage, err)
	}
	var app *AppError
	if errors.As(err, &app) {
		if app.Err != nil {
			return fmt.Sprintf("Error: %s: %v", app.Message, app.Err)
		}
		return fmt.Sprintf("Error: %s", app.Message)
	}
	return fmt.Sprintf("Error: %s: %v", typeName(err), err)
}

// FirstCause descends into aggregate errors, always taking the first
// sub-error. Sub-error order follows the original request order of the
// parallel operations, so the pick is deterministic.
func FirstCause(err error) error {
	for {
		agg, ok := err.(interface{ Unwrap() []error })
		if !ok {
			return err
		}
		subs := agg.Unwrap()
		if len(subs) == 0 {
			return err
		}
		err = subs[0]
	}
}

func typeName(err error) string {
	return strings.TrimPrefix(fmt.Sprintf("%T", err), "*")
}
