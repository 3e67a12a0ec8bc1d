package utils

import (
	"crypto/sha256"
	"encoding/hex"
	"log"
	"sync"

	lru "github.com/hashicorp/golang-lru/v2"
)

// renderCacheSize bounds how many rendered bodies are kept in memory.
const renderCacheSize = 500

var (
	renderCache     *lru.Cache[string, string]
	renderCacheOnce sync.Once
)

// htmlCache returns the process-wide cache of rendered post bodies, keyed by
// a digest of the markdown source.
func htmlCache() *lru.Cache[string, string] {
	renderCacheOnce.Do(func() {
		l, err := lru.New[string, string](renderCacheSize)
		if err != nil {
			log.Fatalf("Failed to create LRU cache: %v", err)
		}
		renderCache = l
	})
	return renderCache
}

func cacheKey(source string) string {
	sum := sha256.Sum256([]byte(source))
	return hex.EncodeToString(sum[:])
}
