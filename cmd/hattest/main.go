// SPDX-FileCopyrightText: 2025 Mass Labs
//
// SPDX-License-Identifier: MIT

// hattest is a manual exerciser for the hattrie package: it fills a trie
// with random keys, dumps it in sorted order, and round-trips CBOR
// snapshots through a file.
package main

import (
	"fmt"
	"math/rand"
	"os"
	"strconv"

	"github.com/masslbs/hattrie"
)

const snapshotFile = "hattrie.cbor"

func main() {
	if len(os.Args) < 2 {
		usage()
	}

	switch os.Args[1] {
	case "fill":
		fill()
	case "dump":
		dump()
	case "read":
		read()
	default:
		usage()
	}
}

func usage() {
	fmt.Println("usage: hattest fill [n] | dump [n] | read")
	os.Exit(1)
}

func count() int {
	if len(os.Args) < 3 {
		return 100_000
	}
	n, err := strconv.Atoi(os.Args[2])
	check(err)
	return n
}

func build(n int) *hattrie.Trie {
	rng := rand.New(rand.NewSource(42))
	trie := hattrie.New()
	key := make([]byte, 50)
	for i := 0; i < n; i++ {
		rng.Read(key)
		v, err := trie.Get(key)
		check(err)
		*v = uint64(i)
	}
	return trie
}

func fill() {
	n := count()
	trie := build(n)
	fmt.Printf("inserted %d keys: size=%d sizeof=%d bytes\n", n, trie.Size(), trie.Sizeof())

	data, err := trie.MarshalCBOR()
	check(err)
	check(os.WriteFile(snapshotFile, data, 0644))
	fmt.Printf("wrote %d snapshot bytes to %s\n", len(data), snapshotFile)
}

func dump() {
	trie := build(count())
	for it := trie.Iter(true); !it.Finished(); it.Next() {
		fmt.Printf("%x\t%d\n", it.Key(), *it.Val())
	}
}

func read() {
	data, err := os.ReadFile(snapshotFile)
	check(err)

	var trie hattrie.Trie
	check(trie.UnmarshalCBOR(data))
	fmt.Printf("read %d keys: sizeof=%d bytes\n", trie.Size(), trie.Sizeof())
}

func check(err error) {
	if err != nil {
		panic(err)
	}
}
