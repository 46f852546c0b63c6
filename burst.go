// SPDX-FileCopyrightText: 2025 Mass Labs
//
// SPDX-License-Identifier: MIT

package hattrie

// burst performs one burst operation on a full bucket that is a child of
// parent. Afterwards all outstanding references into the bucket are invalid;
// callers must re-descend from the parent.
func (t *Trie) burst(parent *trieNode, b *bucket) {
	if b.pure() {
		// Promote the pure bucket to a hybrid one under a fresh intermediate
		// trie node.
		nt := newTrieNode(b)
		parent.children[b.c0] = nt
		b.c0 = 0x00
		b.c1 = 0xff

		// If the bucket held the empty suffix, its key now terminates exactly
		// at the new trie node: lift the value there and drop the record, so
		// the hybrid bucket holds no zero-length keys.
		if v := b.ah.TryGet(nil); v != nil {
			nt.val = *v
			nt.hasVal = true
			b.ah.Remove(nil)
		}
		return
	}
	t.split(parent, b)
}

// split divides a hybrid bucket into two buckets along a leading-byte
// boundary chosen to balance the key counts, then redistributes every record.
func (t *Trie) split(parent *trieNode, b *bucket) {
	// count the occurrences of every leading byte
	var cs [256]int
	for it := b.ah.Iter(); !it.Finished(); it.Next() {
		cs[it.Key()[0]]++
	}

	// choose a split point, greedily extending the left range while doing so
	// keeps the two halves at least as balanced
	j := int(b.c0)
	leftM := cs[j]
	rightM := b.ah.Size() - leftM
	for j+1 < int(b.c1) {
		d := abs((leftM + cs[j+1]) - (rightM - cs[j+1]))
		if d > abs(leftM-rightM) {
			break
		}
		j++
		leftM += cs[j]
		rightM -= cs[j]
	}

	// the halves cover [c0, j] and [j+1, c1]; a single-byte range makes a
	// pure bucket
	left := &bucket{c0: b.c0, c1: byte(j), ah: t.newTable()}
	right := &bucket{c0: byte(j + 1), c1: b.c1, ah: t.newTable()}

	for c := int(b.c0); c <= j; c++ {
		parent.children[c] = left
	}
	for c := j + 1; c <= int(b.c1); c++ {
		parent.children[c] = right
	}

	// distribute the records, stripping the leading byte when the
	// destination is pure
	for it := b.ah.Iter(); !it.Finished(); it.Next() {
		key := it.Key()
		dst := left
		if int(key[0]) > j {
			dst = right
		}
		var v *Value
		if dst.pure() {
			v = dst.ah.Get(key[1:])
		} else {
			v = dst.ah.Get(key)
		}
		*v = *it.Val()
	}
}

func abs(x int) int {
	if x < 0 {
		return -x
	}
	return x
}
