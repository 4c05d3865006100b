// SPDX-License-Identifier: MPL-2.0

package container

import (
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"
	"time"
)

// transientMarkers are engine error fragments that usually clear on retry.
var transientMarkers = []string{
	"ping_group_range",
	"OCI runtime error",
	"Temporary failure resolving",
	"Could not resolve host",
	"connection timed out",
	"connection refused",
	"error creating overlay mount",
	"error mounting layer",
	"TLS handshake timeout",
}

// RetryWithBackoff calls op up to maxAttempts times, sleeping baseBackoff,
// 2*baseBackoff, 4*baseBackoff... between attempts. op reports whether a
// failure is worth retrying; the last error is returned once attempts run out.
func RetryWithBackoff(
	ctx context.Context,
	maxAttempts int,
	baseBackoff time.Duration,
	op func(attempt int) (retry bool, err error),
) error {
	var lastErr error
	for attempt := range maxAttempts {
		if attempt > 0 {
			timer := time.NewTimer(baseBackoff << (attempt - 1))
			select {
			case <-ctx.Done():
				timer.Stop()
				return fmt.Errorf("retry aborted: %w", ctx.Err())
			case <-timer.C:
			}
		}

		retry, err := op(attempt)
		if err == nil {
			return nil
		}
		if !retry {
			return err
		}
		lastErr = err
	}
	return lastErr
}

// IsTransientError reports whether err looks like an engine hiccup (exit
// code 125, network or storage races) rather than a real failure. Context
// cancellation is never transient.
func IsTransientError(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}

	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) && exitErr.ExitCode() == 125 {
		return true
	}

	msg := err.Error()
	for _, marker := range transientMarkers {
		if strings.Contains(msg, marker) {
			return true
		}
	}
	return false
}
