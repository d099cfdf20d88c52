package suggest

import (
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"fmt"

	"github.com/dgraph-io/ristretto/v2"

	"github.com/anthurium-ai/personal-finance/internal/model"
)

// IndexCache keeps recently built indexes keyed by user and a content hash of
// the history they were built from. Any change to the history changes the
// key, so a cached Index is never stale.
type IndexCache struct {
	c *ristretto.Cache[string, *Index]
}

// NewIndexCache returns a cache holding roughly maxDocs historical documents
// across all entries.
func NewIndexCache(maxDocs int64) (*IndexCache, error) {
	if maxDocs <= 0 {
		maxDocs = 100_000
	}
	c, err := ristretto.NewCache(&ristretto.Config[string, *Index]{
		NumCounters: 10 * maxDocs / 100,
		MaxCost:     maxDocs,
		BufferItems: 64,
	})
	if err != nil {
		return nil, fmt.Errorf("create index cache: %w", err)
	}
	return &IndexCache{c: c}, nil
}

// Index returns the cached Index for history or builds and stores one.
func (ic *IndexCache) Index(userID int64, history []model.TransactionRecord) *Index {
	key := historyKey(userID, history)
	if ix, ok := ic.c.Get(key); ok {
		return ix
	}
	ix := NewIndex(history)
	ic.c.Set(key, ix, int64(ix.Len())+1)
	return ix
}

// Wait blocks until pending writes are visible. Tests use it.
func (ic *IndexCache) Wait() { ic.c.Wait() }

// Close stops the cache's background goroutines.
func (ic *IndexCache) Close() { ic.c.Close() }

func historyKey(userID int64, history []model.TransactionRecord) string {
	h := sha256.New()
	var buf [8]byte
	for _, rec := range history {
		// Length prefixes keep ("ab","c") and ("a","bc") apart.
		binary.BigEndian.PutUint64(buf[:], uint64(len(rec.Description)))
		h.Write(buf[:])
		h.Write([]byte(rec.Description))
		binary.BigEndian.PutUint64(buf[:], uint64(len(rec.CategoryName)))
		h.Write(buf[:])
		h.Write([]byte(rec.CategoryName))
	}
	return fmt.Sprintf("%d:%s", userID, hex.EncodeToString(h.Sum(nil)))
}
