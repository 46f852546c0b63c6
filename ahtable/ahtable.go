// SPDX-FileCopyrightText: 2025 Mass Labs
//
// SPDX-License-Identifier: MIT

// Package ahtable implements a cache-conscious array hash table for byte
// string keys, as described in
//
//	Askitis, N., & Zobel, J. (2005). Cache-conscious collision resolution in
//	string hash tables. String Processing and Information Retrieval
//	(pp. 91–102). Springer.
//
// Instead of chaining collisions through linked lists, every hash slot is a
// single packed byte buffer of variable-length records. Scanning a slot is a
// linear walk over contiguous memory, which keeps lookups cheap even at load
// factors far above one.
package ahtable

import (
	"bytes"
	"unsafe"

	"github.com/cespare/xxhash/v2"
)

// Value is the payload stored with every key.
type Value = uint64

// HashFn maps a key to a 32-bit digest. It must be deterministic; any
// reasonably uniform non-cryptographic string hash will do.
type HashFn func(key []byte) uint32

var hashKey HashFn = hashKeyFunc

func hashKeyFunc(key []byte) uint32 {
	return uint32(xxhash.Sum64(key))
}

const (
	initialSlots   = 8
	defaultMaxLoad = 10.0
)

// Config carries the tunables of a table.
type Config struct {
	// Slots is the initial number of slots.
	Slots int
	// MaxLoad is the average number of records per slot tolerated before the
	// table doubles its slot count.
	MaxLoad float64
}

// DefaultConfig returns the default table configuration.
func DefaultConfig() Config {
	return Config{Slots: initialSlots, MaxLoad: defaultMaxLoad}
}

// Table is an array hash table mapping byte string keys to Values.
//
// Pointers returned by Get, TryGet and the iterator are borrowed: they are
// valid only until the next call that modifies the table.
type Table struct {
	slots   []slot
	m       int // number of stored pairs
	maxM    int // number of stored pairs before we resize
	initial int
	maxLoad float64

	// the zero-length key is stored out of line so that a record's length
	// prefix never starts with a zero byte
	emptyVal Value
	hasEmpty bool
}

// New creates an empty table with the default configuration.
func New() *Table {
	return NewWithConfig(DefaultConfig())
}

// NewSized creates an empty table with n slots reserved.
func NewSized(n int) *Table {
	cfg := DefaultConfig()
	cfg.Slots = n
	return NewWithConfig(cfg)
}

// NewWithConfig creates an empty table with the given configuration.
func NewWithConfig(cfg Config) *Table {
	return &Table{
		slots:   make([]slot, cfg.Slots),
		maxM:    int(cfg.MaxLoad * float64(cfg.Slots)),
		initial: cfg.Slots,
		maxLoad: cfg.MaxLoad,
	}
}

// Size returns the number of stored pairs.
func (T *Table) Size() int {
	return T.m
}

// Get returns a pointer to the value stored for key, inserting a zero value
// if the key is not present.
func (T *Table) Get(key []byte) *Value {
	return T.getKey(key, true)
}

// TryGet returns a pointer to the value stored for key, or nil if the key is
// not present.
func (T *Table) TryGet(key []byte) *Value {
	return T.getKey(key, false)
}

func (T *Table) getKey(key []byte, insertMissing bool) *Value {
	if len(key) == 0 {
		if !T.hasEmpty {
			if !insertMissing {
				return nil
			}
			T.hasEmpty = true
			T.emptyVal = 0
			T.m++
		}
		return &T.emptyVal
	}

	// if we are at capacity, preemptively resize
	if insertMissing && T.m >= T.maxM {
		T.expand()
	}

	i := hashKey(key) % uint32(len(T.slots))
	s := T.slots[i]

	// search the slot for our key
	for off := 0; off < len(s)-1; {
		k, w := readPrefix(s[off:])
		keyStart := off + w
		if k == len(key) && bytes.Equal(s[keyStart:keyStart+k], key) {
			return valueAt(s, keyStart+k)
		}
		off = keyStart + k + valueSize
	}

	if !insertMissing {
		return nil
	}

	T.m++
	grown := appendRecord(s, key)
	T.slots[i] = grown
	return valueAt(grown, len(grown)-1-valueSize)
}

// Remove deletes key from the table, compacting its slot in place. It reports
// whether the key was present. Note that deletion is not particularly
// efficient in array hash tables.
func (T *Table) Remove(key []byte) bool {
	if len(key) == 0 {
		if !T.hasEmpty {
			return false
		}
		T.hasEmpty = false
		T.emptyVal = 0
		T.m--
		return true
	}

	i := hashKey(key) % uint32(len(T.slots))
	s := T.slots[i]
	for off := 0; off < len(s)-1; {
		k, w := readPrefix(s[off:])
		rec := w + k + valueSize
		if k == len(key) && bytes.Equal(s[off+w:off+w+k], key) {
			if len(s) == rec+1 {
				T.slots[i] = nil
			} else {
				shrunk := make(slot, len(s)-rec)
				copy(shrunk, s[:off])
				copy(shrunk[off:], s[off+rec:])
				T.slots[i] = shrunk
			}
			T.m--
			return true
		}
		off += rec
	}
	return false
}

/* Resizing a table is essentially building a brand new one. One shortcut we
 * can take on the allocation front is to figure out how much memory each slot
 * needs in advance, then fill the new slots by appending: keys are unique, so
 * no equality checks are needed during the rehash. */
func (T *Table) expand() {
	newN := 2 * len(T.slots)

	sizes := make([]int, newN)
	for _, s := range T.slots {
		for off := 0; off < len(s)-1; {
			k, w := readPrefix(s[off:])
			key := s[off+w : off+w+k]
			sizes[hashKey(key)%uint32(newN)] += recordSize(k)
			off += w + k + valueSize
		}
	}

	slots := make([]slot, newN)
	for j, size := range sizes {
		if size > 0 {
			slots[j] = make(slot, size+1) // records plus terminator, zero-filled
		}
	}

	next := make([]int, newN)
	for _, s := range T.slots {
		for off := 0; off < len(s)-1; {
			k, w := readPrefix(s[off:])
			rec := s[off : off+w+k+valueSize]
			key := s[off+w : off+w+k]
			h := hashKey(key) % uint32(newN)
			copy(slots[h][next[h]:], rec)
			next[h] += len(rec)
			off += w + k + valueSize
		}
	}

	T.slots = slots
	T.maxM = int(T.maxLoad * float64(newN))
}

// Clear removes all entries and resets the table to its initial slot count.
func (T *Table) Clear() {
	T.slots = make([]slot, T.initial)
	T.m = 0
	T.maxM = int(T.maxLoad * float64(T.initial))
	T.emptyVal = 0
	T.hasEmpty = false
}

// Dup returns a deep copy of the table.
func (T *Table) Dup() *Table {
	S := &Table{
		slots:    make([]slot, len(T.slots)),
		m:        T.m,
		maxM:     T.maxM,
		initial:  T.initial,
		maxLoad:  T.maxLoad,
		emptyVal: T.emptyVal,
		hasEmpty: T.hasEmpty,
	}
	for i, s := range T.slots {
		if s != nil {
			S.slots[i] = append(slot(nil), s...)
		}
	}
	return S
}

// Sizeof returns the total number of bytes owned by the table.
func (T *Table) Sizeof() int {
	total := int(unsafe.Sizeof(*T)) + len(T.slots)*int(unsafe.Sizeof(slot(nil)))
	for _, s := range T.slots {
		total += len(s)
	}
	return total
}
