// Copyright 2025 Blink Labs Software
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package testutil holds shared test helpers: bounded waits on channels and
// conditions, and a builder for transaction records carrying change events.
package testutil

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

const pollTick = 10 * time.Millisecond

// WaitForCondition fails the test unless cond becomes true within timeout
func WaitForCondition(
	t *testing.T,
	cond func() bool,
	timeout time.Duration,
	msg string,
) {
	t.Helper()
	require.Eventually(t, cond, timeout, pollTick, msg)
}

// RequireReceive returns the next value from ch, failing the test when
// nothing arrives within timeout
func RequireReceive[T any](
	t *testing.T,
	ch <-chan T,
	timeout time.Duration,
	msg string,
) T {
	t.Helper()
	timer := time.NewTimer(timeout)
	defer timer.Stop()
	select {
	case v := <-ch:
		return v
	case <-timer.C:
	}
	require.FailNowf(t, "no value received", "after %s: %s", timeout, msg)
	var zero T
	return zero
}

// RequireNoReceive fails the test if ch yields a value within window
func RequireNoReceive[T any](
	t *testing.T,
	ch <-chan T,
	window time.Duration,
	msg string,
) {
	t.Helper()
	timer := time.NewTimer(window)
	defer timer.Stop()
	select {
	case v := <-ch:
		require.FailNowf(t, "unexpected value received", "%v: %s", v, msg)
	case <-timer.C:
	}
}
