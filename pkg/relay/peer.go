package relay

import (
	"context"
	"sync"

	"github.com/DeBrosOfficial/overlay/pkg/transport"
)

// peer is one accepted websocket connection and what it announced.
type peer struct {
	id   string
	conn *transport.WebSocketConn

	mu       sync.RWMutex
	isRouter bool
	topics   map[string]struct{}
}

func newPeer(id string, conn *transport.WebSocketConn) *peer {
	return &peer{
		id:     id,
		conn:   conn,
		topics: make(map[string]struct{}),
	}
}

func (p *peer) setRouter(isRouter bool) {
	p.mu.Lock()
	p.isRouter = isRouter
	p.mu.Unlock()
}

func (p *peer) router() bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.isRouter
}

func (p *peer) setSubscribed(topic string, sub bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if sub {
		p.topics[topic] = struct{}{}
	} else {
		delete(p.topics, topic)
	}
}

func (p *peer) subscribed(topic string) bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	_, ok := p.topics[topic]
	return ok
}

// write is safe for concurrent use.
func (p *peer) write(ctx context.Context, frame []byte) error {
	return p.conn.WriteFrame(ctx, frame)
}
