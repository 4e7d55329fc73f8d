package docstore

import (
	"context"
	"sync"
	"time"
)

// Relay meneruskan notifikasi perubahan ke instance lain (mis. Redis pub/sub).
// Relay wajib memanggil Hub.Notify untuk pesan yang diterimanya, termasuk
// pesan yang berasal dari instance ini sendiri.
type Relay interface {
	Publish(ctx context.Context, collection string) error
}

// Hub menyebarkan sinyal "koleksi berubah" ke semua subscriber lokal.
type Hub struct {
	mu    sync.Mutex
	subs  map[string]map[*subscriber]struct{}
	relay Relay
}

type subscriber struct {
	kick chan struct{}
}

func NewHub() *Hub {
	return &Hub{subs: make(map[string]map[*subscriber]struct{})}
}

// SetRelay mengaktifkan relay lintas instance. nil = hanya lokal.
func (h *Hub) SetRelay(r Relay) {
	h.mu.Lock()
	h.relay = r
	h.mu.Unlock()
}

// Publish dipanggil store setelah commit berhasil.
func (h *Hub) Publish(ctx context.Context, collections ...string) {
	h.mu.Lock()
	relay := h.relay
	h.mu.Unlock()

	for _, col := range collections {
		if relay != nil {
			if err := relay.Publish(ctx, col); err == nil {
				continue
			}
			// relay gagal → minimal subscriber lokal tetap dapat kabar
		}
		h.Notify(col)
	}
}

// Notify membangunkan subscriber koleksi tanpa pernah memblokir.
func (h *Hub) Notify(collection string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for s := range h.subs[collection] {
		select {
		case s.kick <- struct{}{}:
		default:
		}
	}
}

func (h *Hub) register(collection string) *subscriber {
	s := &subscriber{kick: make(chan struct{}, 1)}
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.subs[collection] == nil {
		h.subs[collection] = make(map[*subscriber]struct{})
	}
	h.subs[collection][s] = struct{}{}
	return s
}

func (h *Hub) unregister(collection string, s *subscriber) {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.subs[collection], s)
	if len(h.subs[collection]) == 0 {
		delete(h.subs, collection)
	}
}

// Subscribers mengembalikan jumlah subscriber aktif untuk koleksi.
func (h *Hub) Subscribers(collection string) int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.subs[collection])
}

type loadFunc func(ctx context.Context) ([]Document, error)

// subscribe: snapshot awal dimuat sinkron supaya error langsung terlihat.
// Setelah itu satu goroutine per subscriber; kalau consumer lambat, snapshot
// yang belum terkirim diganti yang terbaru.
func subscribe(ctx context.Context, hub *Hub, collection string, load loadFunc) (*Subscription, error) {
	docs, err := load(ctx)
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithCancel(ctx)
	sub := hub.register(collection)
	out := make(chan Snapshot)
	done := make(chan struct{})

	go func() {
		defer close(done)
		defer close(out)
		defer hub.unregister(collection, sub)

		pending := &Snapshot{Collection: collection, Documents: docs, ReadAt: time.Now()}
		for {
			var sendCh chan<- Snapshot
			var next Snapshot
			if pending != nil {
				sendCh = out
				next = *pending
			}
			select {
			case sendCh <- next:
				pending = nil
			case <-sub.kick:
				fresh, err := load(ctx)
				if err != nil {
					if ctx.Err() != nil {
						return
					}
					continue
				}
				pending = &Snapshot{Collection: collection, Documents: fresh, ReadAt: time.Now()}
			case <-ctx.Done():
				return
			}
		}
	}()

	return &Subscription{C: out, stop: cancel, done: done}, nil
}
