// SPDX-FileCopyrightText: 2025 Mass Labs
//
// SPDX-License-Identifier: MIT

package hattrie

import (
	"github.com/masslbs/hattrie/ahtable"
)

// A child is one entry of a trie node's dispatch table: either another
// *trieNode or a *bucket, discriminated by dynamic type. Children alias
// freely; a bucket responsible for a range of leading bytes is referenced
// from every child slot of that range.
type child interface {
	isChild()
}

// trieNode is a 256-way dispatch table plus an optional terminal value for
// the key that is consumed exactly at this node.
type trieNode struct {
	val      Value
	hasVal   bool
	children [256]child
}

func (*trieNode) isChild() {}

// newTrieNode creates a trie node with all children pointing to ch.
func newTrieNode(ch child) *trieNode {
	n := &trieNode{}
	for i := range n.children {
		n.children[i] = ch
	}
	return n
}

// bucket is an array hash table functioning as a leaf, annotated with the
// contiguous range [c0, c1] of leading bytes it is responsible for. A pure
// bucket (c0 == c1) stores its keys with the leading byte already consumed by
// the trie descent; a hybrid bucket stores keys whole.
type bucket struct {
	c0, c1 byte
	ah     *ahtable.Table
}

func (*bucket) isChild() {}

func (b *bucket) pure() bool {
	return b.c0 == b.c1
}
