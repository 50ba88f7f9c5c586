package relay

import (
	"context"
	"sync"

	"peer-chat/application/chat/directory"
)

// AddrCache remembers the last advertised address of every listed peer.
type AddrCache struct {
	mu    sync.RWMutex
	peers map[string]directory.Peer
}

func NewAddrCache() *AddrCache {
	return &AddrCache{peers: make(map[string]directory.Peer)}
}

func (c *AddrCache) Put(peers ...directory.Peer) {
	c.mu.Lock()
	defer c.mu.Unlock()

	for _, p := range peers {
		c.peers[p.ID] = p
	}
}

func (c *AddrCache) Get(id string) (directory.Peer, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	p, ok := c.peers[id]
	return p, ok
}

// cachingService feeds every successful List into an [AddrCache].
type cachingService struct {
	directory.Service
	cache *AddrCache
}

// WithAddrCache wraps svc so that List populates cache.
func WithAddrCache(svc directory.Service, cache *AddrCache) directory.Service {
	return &cachingService{Service: svc, cache: cache}
}

func (s *cachingService) List(ctx context.Context) ([]directory.Peer, error) {
	peers, err := s.Service.List(ctx)
	if err != nil {
		return nil, err
	}

	s.cache.Put(peers...)
	return peers, nil
}
