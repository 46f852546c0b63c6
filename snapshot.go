// SPDX-FileCopyrightText: 2025 Mass Labs
//
// SPDX-License-Identifier: MIT

package hattrie

import (
	"bytes"
	"fmt"

	hatcbor "github.com/masslbs/hattrie/cbor"
)

// snapshotVersion identifies the snapshot layout.
const snapshotVersion = 1

type snapshot struct {
	_       struct{} `cbor:",toarray"`
	Version uint64
	Pairs   []snapshotPair
}

type snapshotPair struct {
	_     struct{} `cbor:",toarray"`
	Key   []byte
	Value Value
}

// MarshalCBOR marshals the trie's contents into a canonical CBOR snapshot.
// The snapshot captures the key/value pairs only, not the trie shape.
func (t *Trie) MarshalCBOR() ([]byte, error) {
	snap := snapshot{
		Version: snapshotVersion,
		Pairs:   make([]snapshotPair, 0, t.m),
	}
	for it := t.Iter(false); !it.Finished(); it.Next() {
		snap.Pairs = append(snap.Pairs, snapshotPair{
			Key:   bytes.Clone(it.Key()),
			Value: *it.Val(),
		})
	}
	return hatcbor.Marshal(snap)
}

// UnmarshalCBOR replaces the trie's contents with the pairs of a CBOR
// snapshot.
func (t *Trie) UnmarshalCBOR(data []byte) error {
	var snap snapshot
	if err := hatcbor.Unmarshal(data, &snap); err != nil {
		return fmt.Errorf("hattrie: decoding snapshot: %w", err)
	}
	if snap.Version != snapshotVersion {
		return fmt.Errorf("hattrie: unsupported snapshot version %d", snap.Version)
	}
	t.reset()
	for _, p := range snap.Pairs {
		v, err := t.Get(p.Key)
		if err != nil {
			return fmt.Errorf("hattrie: snapshot key rejected: %w", err)
		}
		*v = p.Value
	}
	return nil
}
