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

package solana

import "fmt"

// DecodeError reports a malformed transaction or payload. It is fatal for
// the transaction being processed.
type DecodeError struct {
	Op  string
	Err error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("decode %s: %s", e.Op, e.Err)
}

func (e *DecodeError) Unwrap() error {
	return e.Err
}

func newDecodeError(op string, format string, args ...any) *DecodeError {
	return &DecodeError{
		Op:  op,
		Err: fmt.Errorf(format, args...),
	}
}

type indexError struct {
	idx  int
	size int
}

func (e *indexError) Error() string {
	return fmt.Sprintf(
		"account index %d out of range for table of %d accounts",
		e.idx,
		e.size,
	)
}

func wrapIndex(outerIdx int, innerIdx int, err error) error {
	if innerIdx < 0 {
		return fmt.Errorf("instruction %d: %w", outerIdx, err)
	}
	return fmt.Errorf("instruction %d inner %d: %w", outerIdx, innerIdx, err)
}
