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

package event

const (
	AssetCreatedEventType EventType = "asset.create"
	AssetUpdatedEventType EventType = "asset.update"
	AssetDeletedEventType EventType = "asset.delete"
)

// AssetEvent is published after an asset change has been committed. Authority
// and Pubkeys are empty for deletes.
type AssetEvent struct {
	ProgramID string
	AssetID   string
	Authority string
	Signature string
	Pubkeys   []string
	Slot      uint64
}
