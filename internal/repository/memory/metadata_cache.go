package memory

import (
	"time"

	"freightchat/pkg/store"

	"github.com/patrickmn/go-cache"
)

// MetadataCache holds worker detail records for a short time so repeated
// browsing of the same invoice or document does not hit the worker.
type MetadataCache struct {
	cache *cache.Cache
}

func NewMetadataCache(ttl time.Duration) *MetadataCache {
	return &MetadataCache{cache: cache.New(ttl, 2*ttl)}
}

func (m *MetadataCache) Invoice(id string) (*store.InvoiceRecord, bool) {
	if x, found := m.cache.Get("invoice:" + id); found {
		return x.(*store.InvoiceRecord), true
	}
	return nil, false
}

func (m *MetadataCache) SetInvoice(rec *store.InvoiceRecord) {
	m.cache.SetDefault("invoice:"+rec.InvoiceID, rec)
}

func (m *MetadataCache) Document(id string) (*store.DocumentRecord, bool) {
	if x, found := m.cache.Get("document:" + id); found {
		return x.(*store.DocumentRecord), true
	}
	return nil, false
}

func (m *MetadataCache) SetDocument(rec *store.DocumentRecord) {
	m.cache.SetDefault("document:"+rec.DocumentID, rec)
}

// Flush drops every cached record, e.g. after logout.
func (m *MetadataCache) Flush() {
	m.cache.Flush()
}
