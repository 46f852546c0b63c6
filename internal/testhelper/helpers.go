// SPDX-FileCopyrightText: 2025 Mass Labs
//
// SPDX-License-Identifier: MIT

package testhelper

import (
	"math/rand"
)

// RandKey returns a random key of length n drawn from printable ASCII.
func RandKey(rng *rand.Rand, n int) []byte {
	key := make([]byte, n)
	for i := range key {
		key[i] = byte(0x20 + rng.Intn(0x7e-0x20+1))
	}
	return key
}

// RandKeyRange returns a random printable key with a length in [lo, hi).
func RandKeyRange(rng *rand.Rand, lo, hi int) []byte {
	return RandKey(rng, lo+rng.Intn(hi-lo))
}

// RandBytes returns a random key of length n covering the full byte range.
func RandBytes(rng *rand.Rand, n int) []byte {
	key := make([]byte, n)
	rng.Read(key)
	return key
}

// DistinctKeys returns count distinct random keys of length n covering the
// full byte range.
func DistinctKeys(rng *rand.Rand, count, n int) [][]byte {
	seen := make(map[string]struct{}, count)
	keys := make([][]byte, 0, count)
	for len(keys) < count {
		key := RandBytes(rng, n)
		if _, ok := seen[string(key)]; ok {
			continue
		}
		seen[string(key)] = struct{}{}
		keys = append(keys, key)
	}
	return keys
}
