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

package plugin

import (
	"log/slog"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

// Plugins built from the registry take their logger and metrics registry
// from here
var (
	sharedMutex    sync.RWMutex
	sharedLogger   *slog.Logger
	sharedRegistry prometheus.Registerer
)

// SetLogger sets the logger passed to plugins created after this call
func SetLogger(logger *slog.Logger) {
	sharedMutex.Lock()
	defer sharedMutex.Unlock()
	sharedLogger = logger
}

// SetPromRegistry sets the metrics registry passed to plugins created after
// this call
func SetPromRegistry(registry prometheus.Registerer) {
	sharedMutex.Lock()
	defer sharedMutex.Unlock()
	sharedRegistry = registry
}

// Logger returns the shared plugin logger, which may be nil
func Logger() *slog.Logger {
	sharedMutex.RLock()
	defer sharedMutex.RUnlock()
	return sharedLogger
}

// PromRegistry returns the shared plugin metrics registry, which may be nil
func PromRegistry() prometheus.Registerer {
	sharedMutex.RLock()
	defer sharedMutex.RUnlock()
	return sharedRegistry
}
