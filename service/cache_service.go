package service

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/dgraph-io/badger/v4"
)

// Cache key prefixes, one namespace per cached artifact kind
const (
	prefixEmbedding = "embedding:"
	prefixSearch    = "search:"
	prefixAnswer    = "answer:"
)

// Default TTLs. Embeddings are deterministic for a fixed model so they
// live long; answers depend on the corpus and expire sooner.
const (
	embeddingTTL = 7 * 24 * time.Hour
	searchTTL    = time.Hour
	answerTTL    = 24 * time.Hour
)

// CacheService is a local key-value cache for embeddings, search results
// and generated answers, backed by badger
type CacheService struct {
	db *badger.DB
}

// NewCacheService opens a badger-backed cache at dir. An empty dir opens
// an in-memory cache, used in tests.
func NewCacheService(dir string) (*CacheService, error) {
	opts := badger.DefaultOptions(dir)
	opts.Logger = nil
	if dir == "" {
		opts = opts.WithInMemory(true)
	}

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("failed to open cache: %w", err)
	}

	return &CacheService{db: db}, nil
}

// Close releases the underlying store
func (c *CacheService) Close() error {
	return c.db.Close()
}

// hashKey derives a fixed-size cache key from an arbitrary input string
func hashKey(prefix, input string) []byte {
	sum := sha256.Sum256([]byte(input))
	return []byte(prefix + hex.EncodeToString(sum[:]))
}

func (c *CacheService) get(key []byte, out interface{}) (bool, error) {
	err := c.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(key)
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, out)
		})
	})
	if err == badger.ErrKeyNotFound {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

func (c *CacheService) set(key []byte, value interface{}, ttl time.Duration) error {
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("failed to marshal cache entry: %w", err)
	}
	return c.db.Update(func(txn *badger.Txn) error {
		entry := badger.NewEntry(key, data).WithTTL(ttl)
		return txn.SetEntry(entry)
	})
}

// GetEmbedding returns a cached embedding for the given text, or nil
func (c *CacheService) GetEmbedding(text string) []float64 {
	var embedding []float64
	found, err := c.get(hashKey(prefixEmbedding, text), &embedding)
	if err != nil {
		log.Printf("Warning: cache read failed: %v", err)
		return nil
	}
	if !found {
		return nil
	}
	return embedding
}

// SetEmbedding caches an embedding for the given text
func (c *CacheService) SetEmbedding(text string, embedding []float64) {
	if err := c.set(hashKey(prefixEmbedding, text), embedding, embeddingTTL); err != nil {
		log.Printf("Warning: cache write failed: %v", err)
	}
}

// GetSearchResults returns cached search results for a query, or false
func (c *CacheService) GetSearchResults(query string, out interface{}) bool {
	found, err := c.get(hashKey(prefixSearch, query), out)
	if err != nil {
		log.Printf("Warning: cache read failed: %v", err)
		return false
	}
	return found
}

// SetSearchResults caches search results for a query
func (c *CacheService) SetSearchResults(query string, results interface{}) {
	if err := c.set(hashKey(prefixSearch, query), results, searchTTL); err != nil {
		log.Printf("Warning: cache write failed: %v", err)
	}
}

// GetAnswer returns a cached generated answer for a question, or ""
func (c *CacheService) GetAnswer(question string) string {
	var answer string
	found, err := c.get(hashKey(prefixAnswer, question), &answer)
	if err != nil {
		log.Printf("Warning: cache read failed: %v", err)
		return ""
	}
	if !found {
		return ""
	}
	return answer
}

// SetAnswer caches a generated answer for a question
func (c *CacheService) SetAnswer(question, answer string) {
	if err := c.set(hashKey(prefixAnswer, question), answer, answerTTL); err != nil {
		log.Printf("Warning: cache write failed: %v", err)
	}
}

// ClearPrefix drops every entry under one of the cache namespaces.
// Returns the number of deleted entries.
func (c *CacheService) ClearPrefix(prefix string) (int, error) {
	deleted := 0
	err := c.db.Update(func(txn *badger.Txn) error {
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()

		p := []byte(prefix)
		var keys [][]byte
		for it.Seek(p); it.ValidForPrefix(p); it.Next() {
			keys = append(keys, it.Item().KeyCopy(nil))
		}
		for _, key := range keys {
			if err := txn.Delete(key); err != nil {
				return err
			}
			deleted++
		}
		return nil
	})
	return deleted, err
}

// CacheStats summarizes cache occupancy per namespace
type CacheStats struct {
	Embeddings int `json:"embeddings"`
	Searches   int `json:"searches"`
	Answers    int `json:"answers"`
}

// Stats counts live entries per namespace
func (c *CacheService) Stats() (*CacheStats, error) {
	stats := &CacheStats{}
	err := c.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false
		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Rewind(); it.Valid(); it.Next() {
			key := string(it.Item().Key())
			switch {
			case strings.HasPrefix(key, prefixEmbedding):
				stats.Embeddings++
			case strings.HasPrefix(key, prefixSearch):
				stats.Searches++
			case strings.HasPrefix(key, prefixAnswer):
				stats.Answers++
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return stats, nil
}
