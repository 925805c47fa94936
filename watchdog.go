//
// Copyright 2018-2025 Cristian Maglie. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.
//

package patcher

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"
)

// ErrInactivityTimeout is the cause of a fetch aborted because the server
// stopped sending data for longer than Config.InactivityTimeout.
var ErrInactivityTimeout = fmt.Errorf("no data received: %w", os.ErrDeadlineExceeded)

// watchdog cancels its context when it is not kicked within timeout.
// A zero timeout disables the timer, the context is then only canceled by
// its parent or by stop.
type watchdog struct {
	cancel  context.CancelCauseFunc
	timer   *time.Timer
	timeout time.Duration
}

func newWatchdog(parent context.Context, timeout time.Duration) (context.Context, *watchdog) {
	ctx, cancel := context.WithCancelCause(parent)
	wd := &watchdog{cancel: cancel, timeout: timeout}
	if timeout > 0 {
		wd.timer = time.AfterFunc(timeout, func() {
			cancel(ErrInactivityTimeout)
		})
	}
	return ctx, wd
}

func (wd *watchdog) kick() {
	if wd.timer != nil {
		wd.timer.Reset(wd.timeout)
	}
}

func (wd *watchdog) stop() {
	if wd.timer != nil {
		wd.timer.Stop()
	}
	wd.cancel(nil)
}

// expired reports whether ctx was canceled by the watchdog timer and, if
// so, returns the error to surface in place of err.
func expired(ctx context.Context, err error) error {
	if cause := context.Cause(ctx); errors.Is(cause, ErrInactivityTimeout) {
		return cause
	}
	return err
}
