// SPDX-FileCopyrightText: 2025 Mass Labs
//
// SPDX-License-Identifier: MIT

package hattrie

import (
	"fmt"
	"math/rand"
	"testing"

	"github.com/peterldowns/testy/assert"

	"github.com/masslbs/hattrie/internal/testhelper"
)

func TestTrieBasic(t *testing.T) {
	trie := New()
	assert.Equal(t, 0, trie.Size())

	// keys are raw bytes, not text
	v, err := trie.Get([]byte{0x81, 0x70})
	assert.Nil(t, err)
	*v = 10
	assert.Equal(t, 1, trie.Size())

	v, ok := trie.TryGet([]byte{0x81, 0x70})
	assert.True(t, ok)
	assert.Equal(t, Value(10), *v)

	_, ok = trie.TryGet([]byte{0x81})
	assert.False(t, ok)
	_, ok = trie.TryGet([]byte{0x81, 0x70, 0x00})
	assert.False(t, ok)
}

func TestTrieEmptyAndNulKeys(t *testing.T) {
	trie := New()

	keys := [][]byte{
		{},
		{0x00},
		{0x00, 0x14},
		{0x14, 0x00},
		{0x00, 0x14, 0x00},
	}
	for i, key := range keys {
		v, err := trie.Get(key)
		assert.Nil(t, err)
		*v = Value(i)
	}
	assert.Equal(t, len(keys), trie.Size())

	for i, key := range keys {
		v, ok := trie.TryGet(key)
		assert.True(t, ok)
		assert.Equal(t, Value(i), *v)
	}

	// iteration yields exactly these five keys, each exactly once
	seen := make(map[string]Value)
	trie.All(func(key []byte, val *Value) bool {
		_, dup := seen[string(key)]
		assert.False(t, dup)
		seen[string(key)] = *val
		return true
	})
	assert.Equal(t, len(keys), len(seen))
	for i, key := range keys {
		assert.Equal(t, Value(i), seen[string(key)])
	}
}

func TestTrieKeyTooLong(t *testing.T) {
	trie := New()

	longest := make([]byte, MaxKeyLen)
	v, err := trie.Get(longest)
	assert.Nil(t, err)
	*v = 1

	tooLong := make([]byte, MaxKeyLen+1)
	_, err = trie.Get(tooLong)
	assert.True(t, err != nil)

	_, ok := trie.TryGet(tooLong)
	assert.False(t, ok)
	assert.False(t, trie.Del(tooLong))

	v, ok = trie.TryGet(longest)
	assert.True(t, ok)
	assert.Equal(t, Value(1), *v)
}

func TestTrieGetPointerIdempotent(t *testing.T) {
	trie := New()

	a, err := trie.Get([]byte("stable"))
	assert.Nil(t, err)
	b, err := trie.Get([]byte("stable"))
	assert.Nil(t, err)
	assert.True(t, a == b)

	// also for keys that terminate on a trie node
	e1, err := trie.Get(nil)
	assert.Nil(t, err)
	e2, err := trie.Get(nil)
	assert.Nil(t, err)
	assert.True(t, e1 == e2)
}

func TestTrieBurst(t *testing.T) {
	// 20k random keys with first bytes covering the whole range push the
	// root bucket past the burst threshold several times over
	rng := rand.New(rand.NewSource(5))
	keys := testhelper.DistinctKeys(rng, 20_000, 50)

	trie := New()
	for i, key := range keys {
		v, err := trie.Get(key)
		assert.Nil(t, err)
		*v = Value(i)
	}
	assert.Equal(t, len(keys), trie.Size())

	for i, key := range keys {
		v, ok := trie.TryGet(key)
		assert.True(t, ok)
		assert.Equal(t, Value(i), *v)
	}

	// iteration sees every key exactly once
	seen := make(map[string]struct{}, len(keys))
	count := 0
	trie.All(func(key []byte, _ *Value) bool {
		count++
		_, dup := seen[string(key)]
		assert.False(t, dup)
		seen[string(key)] = struct{}{}
		return true
	})
	assert.Equal(t, len(keys), count)
}

func TestTrieDeepBursts(t *testing.T) {
	// Every string up to length 7 over a three letter alphabet, with a burst
	// limit small enough to force pure bucket promotions and nested splits.
	// Many keys are prefixes of other keys, so values keep moving onto trie
	// nodes as the structure bursts.
	trie, err := NewWithOptions(Options{BurstLimit: 16, InitialSlots: 8, MaxLoad: 10})
	assert.Nil(t, err)

	keys := alphabetKeys(7)
	for i, key := range keys {
		v, err := trie.Get(key)
		assert.Nil(t, err)
		*v = Value(i)
	}
	assert.Equal(t, len(keys), trie.Size())

	for i, key := range keys {
		v, ok := trie.TryGet(key)
		assert.True(t, ok)
		assert.Equal(t, Value(i), *v)
	}
}

// alphabetKeys returns every string over {a, b, c} up to the given length,
// the empty string included.
func alphabetKeys(maxLen int) [][]byte {
	keys := [][]byte{{}}
	frontier := [][]byte{{}}
	for l := 0; l < maxLen; l++ {
		var next [][]byte
		for _, p := range frontier {
			for _, c := range []byte("abc") {
				key := append(append([]byte{}, p...), c)
				keys = append(keys, key)
				next = append(next, key)
			}
		}
		frontier = next
	}
	return keys
}

func TestTrieTallyAndDelete(t *testing.T) {
	const (
		numKeys = 20_000
		numOps  = 200_000
	)
	rng := rand.New(rand.NewSource(6))

	keys := make([][]byte, numKeys)
	for i := range keys {
		keys[i] = testhelper.RandKeyRange(rng, 50, 500)
	}

	trie := New()
	shadow := make(map[string]Value)

	for i := 0; i < numOps; i++ {
		key := keys[rng.Intn(numKeys)]
		shadow[string(key)]++
		v, err := trie.Get(key)
		assert.Nil(t, err)
		*v++
	}

	assert.Equal(t, len(shadow), trie.Size())
	for key, want := range shadow {
		v, ok := trie.TryGet([]byte(key))
		assert.True(t, ok)
		assert.Equal(t, want, *v)
	}

	// delete a quarter of the surviving keys
	deleted := make(map[string]bool)
	for key := range shadow {
		if rng.Intn(4) == 0 {
			deleted[key] = true
		}
	}
	for key := range deleted {
		assert.True(t, trie.Del([]byte(key)))
	}
	assert.Equal(t, len(shadow)-len(deleted), trie.Size())

	for key, want := range shadow {
		v, ok := trie.TryGet([]byte(key))
		if deleted[key] {
			assert.False(t, ok)
			continue
		}
		assert.True(t, ok)
		assert.Equal(t, want, *v)
	}

	// deleting twice reports absence
	for key := range deleted {
		assert.False(t, trie.Del([]byte(key)))
	}
}

func TestTrieDelOnTrieNode(t *testing.T) {
	// force a structure where a key terminates on a trie node, then delete it
	trie, err := NewWithOptions(Options{BurstLimit: 4, InitialSlots: 8, MaxLoad: 10})
	assert.Nil(t, err)

	keys := alphabetKeys(4)
	for _, key := range keys {
		v, gerr := trie.Get(key)
		assert.Nil(t, gerr)
		*v = Value(len(key))
	}

	assert.True(t, trie.Del([]byte("a")))
	_, ok := trie.TryGet([]byte("a"))
	assert.False(t, ok)

	// extensions of the deleted key are untouched
	v, ok := trie.TryGet([]byte("ab"))
	assert.True(t, ok)
	assert.Equal(t, Value(2), *v)

	assert.True(t, trie.Del(nil))
	_, ok = trie.TryGet(nil)
	assert.False(t, ok)
	assert.Equal(t, len(keys)-2, trie.Size())
}

func TestTrieSizeof(t *testing.T) {
	trie := New()
	rng := rand.New(rand.NewSource(7))

	prev := trie.Sizeof()
	for i := 0; i < 5000; i++ {
		_, err := trie.Get(testhelper.RandKeyRange(rng, 10, 100))
		assert.Nil(t, err)
		size := trie.Sizeof()
		assert.True(t, size >= prev)
		prev = size
	}

	trie.Clear()
	assert.True(t, trie.Sizeof() < prev)
}

func TestTrieClear(t *testing.T) {
	trie := New()
	for i := 0; i < 1000; i++ {
		v, err := trie.Get([]byte(fmt.Sprintf("key-%d", i)))
		assert.Nil(t, err)
		*v = Value(i)
	}

	trie.Clear()
	assert.Equal(t, 0, trie.Size())
	_, ok := trie.TryGet([]byte("key-1"))
	assert.False(t, ok)

	v, err := trie.Get([]byte("again"))
	assert.Nil(t, err)
	*v = 1
	assert.Equal(t, 1, trie.Size())
}

func TestTrieDup(t *testing.T) {
	trie := New()
	rng := rand.New(rand.NewSource(8))
	keys := testhelper.DistinctKeys(rng, 10_000, 20)
	for i, key := range keys {
		v, err := trie.Get(key)
		assert.Nil(t, err)
		*v = Value(i)
	}

	copied := trie.Dup()
	assert.Equal(t, trie.Size(), copied.Size())
	assert.Equal(t, trie.Sizeof(), copied.Sizeof())

	// mutations do not leak between the two tries
	*mustGet(t, trie, keys[0]) = 999
	*mustGet(t, copied, []byte("only-in-copy")) = 1

	v, ok := copied.TryGet(keys[0])
	assert.True(t, ok)
	assert.Equal(t, Value(0), *v)
	_, ok = trie.TryGet([]byte("only-in-copy"))
	assert.False(t, ok)

	for i, key := range keys[1:] {
		v, ok := copied.TryGet(key)
		assert.True(t, ok)
		assert.Equal(t, Value(i+1), *v)
	}
}

func mustGet(t *testing.T, trie *Trie, key []byte) *Value {
	t.Helper()
	v, err := trie.Get(key)
	assert.Nil(t, err)
	return v
}

func TestTrieAllEarlyStop(t *testing.T) {
	trie := New()
	for i := 0; i < 100; i++ {
		*mustGet(t, trie, []byte(fmt.Sprintf("key-%d", i))) = Value(i)
	}

	count := 0
	trie.All(func(_ []byte, _ *Value) bool {
		count++
		return count < 10
	})
	assert.Equal(t, 10, count)
}

func TestNewWithOptionsValidation(t *testing.T) {
	_, err := NewWithOptions(Options{BurstLimit: 0, InitialSlots: 8, MaxLoad: 10})
	assert.True(t, err != nil)

	_, err = NewWithOptions(Options{BurstLimit: 100, InitialSlots: 6, MaxLoad: 10})
	assert.True(t, err != nil)

	_, err = NewWithOptions(Options{BurstLimit: 100, InitialSlots: 16, MaxLoad: 0})
	assert.True(t, err != nil)

	trie, err := NewWithOptions(Options{BurstLimit: 100, InitialSlots: 16, MaxLoad: 2.5})
	assert.Nil(t, err)
	assert.True(t, trie != nil)
}

func BenchmarkTrieOperations(b *testing.B) {
	type keyGenerator func(i int) []byte

	rng := rand.New(rand.NewSource(9))
	keyDistributions := map[string]keyGenerator{
		"sequential": func(i int) []byte {
			return []byte(fmt.Sprintf("key-%d", i))
		},
		"random": func(_ int) []byte {
			return testhelper.RandKey(rng, 50)
		},
	}

	for distName, genFn := range keyDistributions {
		for _, size := range []int{1000, 100_000} {
			b.Run(fmt.Sprintf("%s_size_%d", distName, size), func(b *testing.B) {
				b.StopTimer()
				trie := New()
				keys := make([][]byte, size)
				for i := range keys {
					keys[i] = genFn(i)
					v, err := trie.Get(keys[i])
					if err != nil {
						b.Fatal(err)
					}
					*v = Value(i)
				}
				b.StartTimer()

				b.Run("get", func(b *testing.B) {
					for i := 0; i < b.N; i++ {
						if _, err := trie.Get(keys[i%size]); err != nil {
							b.Fatal(err)
						}
					}
				})

				b.Run("tryget", func(b *testing.B) {
					for i := 0; i < b.N; i++ {
						trie.TryGet(keys[i%size])
					}
				})
			})
		}
	}
}
