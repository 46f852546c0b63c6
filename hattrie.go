// SPDX-FileCopyrightText: 2025 Mass Labs
//
// SPDX-License-Identifier: MIT

// Package hattrie implements the HAT-trie data structure described in
//
//	Askitis, N., & Sinha, R. (2007). HAT-trie: a cache-conscious trie-based
//	data structure for strings. Proceedings of the thirtieth Australasian
//	conference on Computer science (pp. 97–105).
//
// The HAT-trie is a hybrid of a burst trie and array hash tables: a shallow
// 256-way trie consumes key prefixes and dispatches into leaf buckets that
// store many short key suffixes contiguously. It maps arbitrary byte strings
// (embedded zero bytes included) to 64-bit values, and supports unordered,
// sorted and prefix-bounded iteration.
//
// A trie must not be mutated concurrently. Value pointers returned by Get,
// TryGet and the iterators are borrowed: they are valid only until the next
// call that modifies the trie, and misuse after that is not detected.
package hattrie

import (
	"errors"
	"unsafe"

	"github.com/masslbs/hattrie/ahtable"
)

// Value is the payload stored with every key.
type Value = ahtable.Value

// MaxKeyLen is the longest key a trie can hold.
const MaxKeyLen = ahtable.MaxKeyLen

// ErrKeyTooLong is returned when a key exceeds MaxKeyLen bytes.
var ErrKeyTooLong = errors.New("hattrie: key exceeds maximum length")

// Trie is a HAT-trie mapping byte string keys to Values.
//
// The zero value is an empty trie with the default options and is ready for
// use; New, NewWithOptions and unmarshaling a snapshot also create tries.
type Trie struct {
	root *trieNode
	m    int // number of stored keys
	opts Options
}

// New creates an empty trie with the default options.
func New() *Trie {
	t, err := NewWithOptions(DefaultOptions())
	check(err)
	return t
}

// NewWithOptions creates an empty trie with the given options.
func NewWithOptions(o Options) (*Trie, error) {
	if err := o.validate(); err != nil {
		return nil, err
	}
	t := &Trie{opts: o}
	t.reset()
	return t, nil
}

// reset installs a fresh root whose children all point to a single hybrid
// bucket spanning the whole byte range.
func (t *Trie) reset() {
	if t.opts == (Options{}) {
		t.opts = DefaultOptions()
	}
	b := &bucket{c0: 0x00, c1: 0xff, ah: t.newTable()}
	t.root = newTrieNode(b)
	t.m = 0
}

func (t *Trie) newTable() *ahtable.Table {
	return ahtable.NewWithConfig(t.opts.tableConfig())
}

// Size returns the number of stored keys.
func (t *Trie) Size() int {
	return t.m
}

// Get returns a pointer to the value stored for key, inserting a zero value
// if the key is not present.
func (t *Trie) Get(key []byte) (*Value, error) {
	if len(key) > MaxKeyLen {
		return nil, ErrKeyTooLong
	}
	if t.root == nil {
		t.reset()
	}

	// the empty key terminates on the root itself
	if len(key) == 0 {
		if !t.root.hasVal {
			t.root.hasVal = true
			t.m++
		}
		return &t.root.val, nil
	}

	parent := t.root
	node := parent.children[key[0]]
	parent, node, key = descend(parent, node, key)

	// the key was consumed on a trie node; use its value slot
	if tn, ok := node.(*trieNode); ok {
		return t.claim(tn), nil
	}

	// burst the bucket if it is full, repeating as long as the descent keeps
	// ending in an overfull bucket
	b := node.(*bucket)
	for b.ah.Size() >= t.opts.BurstLimit {
		t.burst(parent, b)

		// the burst invalidated node; search from the parent again
		node = parent.children[key[0]]
		parent, node, key = descend(parent, node, key)

		if tn, ok := node.(*trieNode); ok {
			return t.claim(tn), nil
		}
		b = node.(*bucket)
	}

	before := b.ah.Size()
	var v *Value
	if b.pure() {
		v = b.ah.Get(key[1:])
	} else {
		v = b.ah.Get(key)
	}
	t.m += b.ah.Size() - before
	return v, nil
}

// descend walks the trie while trie nodes remain and more than one key byte
// is left, consuming key bytes as it goes.
func descend(parent *trieNode, node child, key []byte) (*trieNode, child, []byte) {
	for {
		tn, ok := node.(*trieNode)
		if !ok || len(key) == 1 {
			return parent, node, key
		}
		key = key[1:]
		parent = tn
		node = tn.children[key[0]]
	}
}

// claim marks a trie node's terminal value slot as used and returns it.
func (t *Trie) claim(tn *trieNode) *Value {
	if !tn.hasVal {
		tn.hasVal = true
		t.m++
	}
	return &tn.val
}

// TryGet returns a pointer to the value stored for key, or false if the key
// is not present. It never modifies the trie.
func (t *Trie) TryGet(key []byte) (*Value, bool) {
	if len(key) > MaxKeyLen || t.root == nil {
		return nil, false
	}
	if len(key) == 0 {
		if !t.root.hasVal {
			return nil, false
		}
		return &t.root.val, true
	}

	node := t.root.children[key[0]]
	_, node, key = descend(t.root, node, key)

	if tn, ok := node.(*trieNode); ok {
		if !tn.hasVal {
			return nil, false
		}
		return &tn.val, true
	}

	b := node.(*bucket)
	var v *Value
	if b.pure() {
		v = b.ah.TryGet(key[1:])
	} else {
		v = b.ah.TryGet(key)
	}
	if v == nil {
		return nil, false
	}
	return v, true
}

// Del removes key from the trie, reporting whether it was present. The
// owning bucket's slot is compacted in place; buckets are never merged back
// together.
func (t *Trie) Del(key []byte) bool {
	if len(key) > MaxKeyLen || t.root == nil {
		return false
	}
	if len(key) == 0 {
		if !t.root.hasVal {
			return false
		}
		t.root.hasVal = false
		t.root.val = 0
		t.m--
		return true
	}

	node := t.root.children[key[0]]
	_, node, key = descend(t.root, node, key)

	if tn, ok := node.(*trieNode); ok {
		if !tn.hasVal {
			return false
		}
		tn.hasVal = false
		tn.val = 0
		t.m--
		return true
	}

	b := node.(*bucket)
	suffix := key
	if b.pure() {
		suffix = key[1:]
	}
	if !b.ah.Remove(suffix) {
		return false
	}
	t.m--
	return true
}

// Clear removes all entries.
func (t *Trie) Clear() {
	t.reset()
}

// Dup returns a deep copy of the trie. Bucket aliasing is preserved through
// an identity map so that the copy owns the same number of distinct nodes.
func (t *Trie) Dup() *Trie {
	if t.root == nil {
		return &Trie{opts: t.opts}
	}
	memo := make(map[child]child)
	return &Trie{
		root: dupChild(t.root, memo).(*trieNode),
		m:    t.m,
		opts: t.opts,
	}
}

func dupChild(c child, memo map[child]child) child {
	if d, ok := memo[c]; ok {
		return d
	}
	switch n := c.(type) {
	case *trieNode:
		d := &trieNode{val: n.val, hasVal: n.hasVal}
		memo[c] = d
		for i := range n.children {
			d.children[i] = dupChild(n.children[i], memo)
		}
		return d
	case *bucket:
		d := &bucket{c0: n.c0, c1: n.c1, ah: n.ah.Dup()}
		memo[c] = d
		return d
	}
	return nil
}

// All calls fn for every key/value pair in unspecified order, stopping early
// if fn returns false. The key slice is reused between calls.
func (t *Trie) All(fn func(key []byte, val *Value) bool) {
	for it := t.Iter(false); !it.Finished(); it.Next() {
		if !fn(it.Key(), it.Val()) {
			return
		}
	}
}

// Sizeof returns the total number of bytes owned by the trie. Aliased
// children are counted once; the walk is iterative since trie depth is
// bounded only by the longest stored key.
func (t *Trie) Sizeof() int {
	total := int(unsafe.Sizeof(*t))
	if t.root == nil {
		return total
	}
	stack := []child{t.root}
	for len(stack) > 0 {
		nd := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		switch n := nd.(type) {
		case *trieNode:
			total += int(unsafe.Sizeof(*n))
			for i := range n.children {
				// aliased ranges are contiguous, so comparing against the
				// previous entry visits every distinct child once
				if i > 0 && n.children[i] == n.children[i-1] {
					continue
				}
				stack = append(stack, n.children[i])
			}
		case *bucket:
			total += int(unsafe.Sizeof(*n)) + n.ah.Sizeof()
		}
	}
	return total
}
