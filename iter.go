// SPDX-FileCopyrightText: 2025 Mass Labs
//
// SPDX-License-Identifier: MIT

package hattrie

import (
	"bytes"
	"slices"

	"github.com/masslbs/hattrie/ahtable"
)

// Iterator enumerates a trie's key/value pairs. The key buffer it hands out
// is owned by the iterator and valid until the next call to Next; the value
// pointer is borrowed from the trie. Modifying the trie during iteration is
// undefined.
type Iterator struct {
	sorted bool
	stack  []*iterFrame
	key    []byte
	val    *Value
	done   bool
}

type frameKind uint8

const (
	frameTrie frameKind = iota
	frameBucket
	frameSorted
)

type iterFrame struct {
	kind frameKind
	path []byte // key bytes consumed before reaching this node

	// frameTrie
	tn      *trieNode
	next    int // next child index to visit
	valDone bool
	prev    child // last child pushed, for alias deduplication

	// frameBucket: a live walk over one bucket's records
	ah      *ahtable.Iterator
	prepend int // the consumed leading byte of a pure bucket, else -1

	// frameSorted: pre-built full keys, emitted in order
	kvs []iterKV
	idx int
}

type iterKV struct {
	key []byte
	val *Value
}

// Iter returns an iterator over the whole trie. With sorted set, keys are
// yielded in ascending byte-lexicographic order, a key before its
// extensions; otherwise the order is unspecified.
func (t *Trie) Iter(sorted bool) *Iterator {
	it := &Iterator{sorted: sorted, key: []byte{}}
	if t.root == nil {
		it.done = true
		return it
	}
	it.stack = append(it.stack, &iterFrame{kind: frameTrie, tn: t.root})
	it.advance()
	return it
}

// IterPrefixed returns an iterator over exactly the keys that start with
// prefix, each yielded in full. With sorted set the order is ascending
// byte-lexicographic.
func (t *Trie) IterPrefixed(prefix []byte, sorted bool) *Iterator {
	it := &Iterator{sorted: sorted, key: []byte{}}
	if t.root == nil || len(prefix) > MaxKeyLen {
		it.done = true
		return it
	}

	// descend the prefix through trie nodes
	node := child(t.root)
	consumed := 0
	for {
		tn, ok := node.(*trieNode)
		if !ok {
			break
		}
		if consumed == len(prefix) {
			// every key below this node starts with the prefix
			it.stack = append(it.stack, &iterFrame{
				kind: frameTrie,
				tn:   tn,
				path: bytes.Clone(prefix),
			})
			it.advance()
			return it
		}
		node = tn.children[prefix[consumed]]
		consumed++
	}

	// the descent landed in a bucket with part of the prefix left: filter its
	// records by the reconstructed full key
	b := node.(*bucket)
	base := prefix[:consumed-1] // the byte at consumed-1 selected the bucket
	var kvs []iterKV
	for ai := b.ah.Iter(); !ai.Finished(); ai.Next() {
		full := make([]byte, 0, len(base)+1+len(ai.Key()))
		full = append(full, base...)
		if b.pure() {
			full = append(full, b.c0)
		}
		full = append(full, ai.Key()...)
		if !bytes.HasPrefix(full, prefix) {
			continue
		}
		kvs = append(kvs, iterKV{key: full, val: ai.Val()})
	}
	if sorted {
		sortKVs(kvs)
	}
	it.stack = append(it.stack, &iterFrame{kind: frameSorted, kvs: kvs})
	it.advance()
	return it
}

// Finished reports whether the iterator has moved past the last pair.
func (it *Iterator) Finished() bool {
	return it.done
}

// Next advances to the next pair.
func (it *Iterator) Next() {
	if it.done {
		return
	}
	it.advance()
}

// Key returns the current pair's full key.
func (it *Iterator) Key() []byte {
	return it.key
}

// Val returns a pointer to the current pair's value.
func (it *Iterator) Val() *Value {
	return it.val
}

// advance walks the frame stack until a pair has been produced or the
// traversal is exhausted.
func (it *Iterator) advance() {
	for len(it.stack) > 0 {
		f := it.stack[len(it.stack)-1]
		switch f.kind {
		case frameTrie:
			// the node's own value precedes its subtree, so a key is always
			// yielded before its extensions
			if !f.valDone {
				f.valDone = true
				if f.tn.hasVal {
					it.emit(f.path, nil, -1, &f.tn.val)
					return
				}
			}
			if f.next >= 256 {
				it.pop()
				continue
			}
			c := f.tn.children[f.next]
			b := byte(f.next)
			f.next++
			// aliased ranges are contiguous; visiting a child only when it
			// differs from its left neighbour visits each one exactly once
			if c == f.prev {
				continue
			}
			f.prev = c
			it.push(c, f.path, b)

		case frameBucket:
			if f.ah.Finished() {
				it.pop()
				continue
			}
			it.emit(f.path, f.ah.Key(), f.prepend, f.ah.Val())
			f.ah.Next()
			return

		case frameSorted:
			if f.idx >= len(f.kvs) {
				it.pop()
				continue
			}
			e := f.kvs[f.idx]
			f.idx++
			it.key = e.key
			it.val = e.val
			return
		}
	}
	it.done = true
}

func (it *Iterator) pop() {
	it.stack = it.stack[:len(it.stack)-1]
}

// push stacks a frame for the child found at byte b under a node with the
// given path.
func (it *Iterator) push(c child, path []byte, b byte) {
	switch n := c.(type) {
	case *trieNode:
		sub := make([]byte, len(path)+1)
		copy(sub, path)
		sub[len(path)] = b
		it.stack = append(it.stack, &iterFrame{kind: frameTrie, tn: n, path: sub})
	case *bucket:
		if it.sorted {
			// Buffer and sort the whole bucket. All of its keys fall inside
			// the byte range [c0, c1], which no sibling overlaps, so emitting
			// the bucket in one sorted run preserves the global order.
			it.stack = append(it.stack, &iterFrame{
				kind: frameSorted,
				kvs:  collectSorted(n, path),
			})
			return
		}
		prepend := -1
		if n.pure() {
			prepend = int(n.c0)
		}
		it.stack = append(it.stack, &iterFrame{
			kind:    frameBucket,
			path:    path,
			ah:      n.ah.Iter(),
			prepend: prepend,
		})
	}
}

// emit reconstructs the full key for a record into the iterator-owned buffer.
func (it *Iterator) emit(path, suffix []byte, prepend int, v *Value) {
	it.key = it.key[:0]
	it.key = append(it.key, path...)
	if prepend >= 0 {
		it.key = append(it.key, byte(prepend))
	}
	it.key = append(it.key, suffix...)
	it.val = v
}

// collectSorted reconstructs and sorts every full key of a bucket below the
// given path.
func collectSorted(b *bucket, path []byte) []iterKV {
	kvs := make([]iterKV, 0, b.ah.Size())
	for ai := b.ah.Iter(); !ai.Finished(); ai.Next() {
		full := make([]byte, 0, len(path)+1+len(ai.Key()))
		full = append(full, path...)
		if b.pure() {
			full = append(full, b.c0)
		}
		full = append(full, ai.Key()...)
		kvs = append(kvs, iterKV{key: full, val: ai.Val()})
	}
	sortKVs(kvs)
	return kvs
}

func sortKVs(kvs []iterKV) {
	slices.SortFunc(kvs, func(a, b iterKV) int {
		return bytes.Compare(a.key, b.key)
	})
}
