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

import (
	"encoding/base64"
	"errors"
	"fmt"
	"strings"
)

var ErrProgramMismatch = errors.New("return data program mismatch")

// returnDataMarker is the second word of the runtime return data log line
const returnDataMarker = "return:"

// ParseReturnDataLog extracts the return data of a simulated call from the
// second-to-last log line, which the runtime writes as
// "Program return: <id> <base64>". The program in the line must match
// programID.
func ParseReturnDataLog(logs []string, programID PublicKey) ([]byte, error) {
	if len(logs) < 2 {
		return nil, newDecodeError(
			"return data",
			"expected at least 2 log lines, got %d",
			len(logs),
		)
	}
	line := logs[len(logs)-2]
	parts := strings.Split(line, " ")
	if len(parts) != 4 || parts[0] != "Program" || parts[1] != returnDataMarker {
		return nil, newDecodeError("return data", "unexpected log line %q", line)
	}
	if parts[2] != programID.String() {
		return nil, fmt.Errorf(
			"%w: expected %s, got %s",
			ErrProgramMismatch,
			programID,
			parts[2],
		)
	}
	ret, err := base64.StdEncoding.DecodeString(parts[3])
	if err != nil {
		return nil, &DecodeError{Op: "return data", Err: err}
	}
	return ret, nil
}
