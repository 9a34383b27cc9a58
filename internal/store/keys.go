package store

import (
	"bytes"
	"sync"
)

// indexNamespace separates index keys from record keys under a kind prefix.
const indexNamespace = "idx:"

// keyPool provides reusable byte slices for building database keys.
var keyPool = sync.Pool{
	New: func() any {
		// Prefix, "idx:", index name, value, NUL and a NanoID fit in 256 bytes
		// for everything but unusually long paths.
		return make([]byte, 0, 256)
	},
}

// buildKey constructs a record key: <prefix><id>.
// Callers MUST call releaseKey when done with the key.
func buildKey(prefix, id string) []byte {
	buf, _ := keyPool.Get().([]byte)
	buf = buf[:0]
	buf = append(buf, prefix...)
	buf = append(buf, id...)
	return buf
}

// indexBase returns <prefix>idx:<name>: which every entry of the index starts with.
func indexBase(prefix, indexName string) []byte {
	buf := make([]byte, 0, len(prefix)+len(indexNamespace)+len(indexName)+1)
	buf = append(buf, prefix...)
	buf = append(buf, indexNamespace...)
	buf = append(buf, indexName...)
	buf = append(buf, ':')
	return buf
}

// buildIndexKey constructs an index entry key: <prefix>idx:<name>:<value>\x00<id>.
// Callers MUST call releaseKey when done with the key.
func buildIndexKey(prefix, indexName, value, id string) []byte {
	buf, _ := keyPool.Get().([]byte)
	buf = buf[:0]
	buf = append(buf, prefix...)
	buf = append(buf, indexNamespace...)
	buf = append(buf, indexName...)
	buf = append(buf, ':')
	buf = append(buf, value...)
	buf = append(buf, 0)
	buf = append(buf, id...)
	return buf
}

// splitIndexKey returns the value and id of an index key given its base.
func splitIndexKey(key, base []byte) (value, id string, ok bool) {
	if !bytes.HasPrefix(key, base) {
		return "", "", false
	}
	rest := key[len(base):]
	sep := bytes.IndexByte(rest, 0)
	if sep < 0 {
		return "", "", false
	}
	return string(rest[:sep]), string(rest[sep+1:]), true
}

// releaseKey returns a key buffer to the pool for reuse.
// After calling this, the key slice must not be used.
func releaseKey(key []byte) {
	if cap(key) <= 1024 {
		keyPool.Put(key[:0]) //nolint:staticcheck // SA6002: slices are fine for sync.Pool
	}
}
