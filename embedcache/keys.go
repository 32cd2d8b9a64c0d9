package embedcache

import "github.com/go-crypt/x/blake2b"

// Key prefix for cached vectors
const vectorPrefix = "embvec"

// makeVectorKey generates the cache key for a (model, text) pair.
// Format: prefix:blake2b(model NUL text)
func makeVectorKey(model, text string) []byte {
	h, _ := blake2b.New(16, nil) // 16 bytes = 128 bits
	h.Write([]byte(model))
	h.Write([]byte{0})
	h.Write([]byte(text))
	sum := h.Sum(nil)

	key := make([]byte, 0, len(vectorPrefix)+1+len(sum))
	key = append(key, vectorPrefix...)
	key = append(key, ':')
	key = append(key, sum...)
	return key
}
