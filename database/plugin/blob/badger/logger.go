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

package badger

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
)

// slogAdapter forwards badger's printf-style log calls to slog
type slogAdapter struct {
	logger *slog.Logger
}

func (a slogAdapter) log(level slog.Level, format string, args ...any) {
	// badger terminates its messages with a newline
	msg := strings.TrimSuffix(fmt.Sprintf(format, args...), "\n")
	a.logger.Log(context.Background(), level, msg, "component", "database")
}

func (a slogAdapter) Errorf(format string, args ...any) {
	a.log(slog.LevelError, format, args...)
}

func (a slogAdapter) Warningf(format string, args ...any) {
	a.log(slog.LevelWarn, format, args...)
}

func (a slogAdapter) Infof(format string, args ...any) {
	a.log(slog.LevelInfo, format, args...)
}

func (a slogAdapter) Debugf(format string, args ...any) {
	a.log(slog.LevelDebug, format, args...)
}
