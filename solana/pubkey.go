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
	"errors"
	"fmt"

	solanago "github.com/gagliardetto/solana-go"
)

// PublicKey is a 32-byte account address
type PublicKey = solanago.PublicKey

var ErrInvalidPublicKey = errors.New("invalid public key")

// ParsePublicKey decodes a base58 address
func ParsePublicKey(s string) (PublicKey, error) {
	ret, err := solanago.PublicKeyFromBase58(s)
	if err != nil {
		return PublicKey{}, fmt.Errorf("%w: %s: %w", ErrInvalidPublicKey, s, err)
	}
	return ret, nil
}

// PublicKeyStrings returns the base58 form of each key
func PublicKeyStrings(keys []PublicKey) []string {
	return solanago.PublicKeySlice(keys).ToBase58()
}
