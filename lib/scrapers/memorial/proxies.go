package memorial

import (
	"math/rand/v2"
	"slices"
	"sync"
)

// ProxyPool is the only piece of state shared across concurrent fetch
// attempts: a proxy that fails is evicted so no other worker can pick
// it afterwards.
type ProxyPool struct {
	mu      sync.Mutex
	entries []string
}

func NewProxyPool(proxies []string) *ProxyPool {
	return &ProxyPool{entries: slices.Clone(proxies)}
}

// Pick returns a random proxy from the pool, or ok=false when the pool
// is empty (callers then fetch directly).
func (p *ProxyPool) Pick() (proxy string, ok bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if len(p.entries) == 0 {
		return "", false
	}
	return p.entries[rand.IntN(len(p.entries))], true
}

func (p *ProxyPool) Evict(proxy string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.entries = slices.DeleteFunc(p.entries, func(e string) bool {
		return e == proxy
	})
}

func (p *ProxyPool) Len() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.entries)
}
