package engine

import (
	"log"

	"github.com/five82/controldeck/internal/cache"
)

// persister writes envelopes to the cache off the engine goroutine. Only the
// newest pending envelope is kept; writes happen in submission order.
type persister struct {
	cache   *cache.Store
	pending chan cache.Envelope
	done    chan struct{}
}

func newPersister(c *cache.Store) *persister {
	p := &persister{
		cache:   c,
		pending: make(chan cache.Envelope, 1),
		done:    make(chan struct{}),
	}
	go p.run()
	return p
}

// submit replaces any envelope still waiting to be written. It must only be
// called from one goroutine.
func (p *persister) submit(env cache.Envelope) {
	if p.cache == nil {
		return
	}
	for {
		select {
		case p.pending <- env:
			return
		default:
		}
		select {
		case <-p.pending:
		default:
		}
	}
}

func (p *persister) run() {
	defer close(p.done)
	for env := range p.pending {
		if err := p.cache.Save(env); err != nil {
			log.Printf("engine: cache write failed, continuing in memory: %v", err)
		}
	}
}

// close flushes the pending envelope and waits for the writer to finish.
func (p *persister) close() {
	close(p.pending)
	<-p.done
}
