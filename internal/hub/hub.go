// Package hub implements the Event Loop Host: a single goroutine that
// owns the Exposed Frame and the Client Registry, runs the Refresh
// Scheduler, and drives the MJPEG fan-out. It is the Go-native stand-in
// for the single-threaded reactor the design describes: the hub
// goroutine is the only code that ever reads or mutates the frame or
// the registry, and every other goroutine talks to it exclusively
// through channels (the subscribe/unsubscribe/publish idiom).
package hub

import (
	"bufio"
	"net"
	"sync"
	"time"

	"github.com/warpcomdev/ustreamerd/internal/frame"
	"github.com/warpcomdev/ustreamerd/internal/metrics"
	"github.com/warpcomdev/ustreamerd/internal/mjpeg"
	"github.com/warpcomdev/ustreamerd/internal/registry"
	"github.com/warpcomdev/ustreamerd/internal/ring"
	"github.com/warpcomdev/ustreamerd/internal/source"
	"github.com/warpcomdev/ustreamerd/internal/svclog"
)

// clientBufferSize bounds how many rendered parts a slow client can fall
// behind by before fan-out starts dropping frames for it, rather than
// blocking the hub.
const clientBufferSize = 4

// client is one registered streaming connection. It is only ever added
// to or removed from the registry by the hub goroutine; the bytes it
// writes to the wire happen on its own writeLoop goroutine.
type client struct {
	conn        net.Conn
	queue       *ring.FrameQueue
	needInitial bool
	handle      *registry.Handle[*client]
	closeOnce   sync.Once
}

func (c *client) disconnect(h *Hub) {
	c.closeOnce.Do(func() {
		c.conn.Close()
		h.unregisterCh <- c
	})
}

type registerReq struct {
	conn  net.Conn
	reply chan struct{}
}

// Hub is the event-loop host. Construct with New, start with Run, and
// stop with Stop.
type Hub struct {
	refreshInterval time.Duration
	fr              *frame.Frame
	src             *source.Source
	reg             *registry.Registry[*client]
	logger          svclog.Logger
	metrics         *metrics.Metrics

	registerCh   chan registerReq
	unregisterCh chan *client
	queryCh      chan chan frame.Snapshot
	stopCh       chan struct{}
	stoppedCh    chan struct{}

	scratch []byte
	scratchW, scratchH int
}

// New builds a Hub. src is the producer-side shared structure this hub
// will poll every refreshInterval.
func New(src *source.Source, refreshInterval time.Duration, logger svclog.Logger, m *metrics.Metrics) *Hub {
	return &Hub{
		refreshInterval: refreshInterval,
		fr:              frame.New(),
		src:             src,
		reg:             registry.New[*client](),
		logger:          logger,
		metrics:         m,
		registerCh:      make(chan registerReq),
		unregisterCh:    make(chan *client),
		queryCh:         make(chan chan frame.Snapshot),
		stopCh:          make(chan struct{}),
		stoppedCh:       make(chan struct{}),
	}
}

// Run executes the event loop. It blocks until Stop is called.
func (h *Hub) Run() {
	ticker := time.NewTicker(h.refreshInterval)
	defer ticker.Stop()
	defer close(h.stoppedCh)

	for {
		select {
		case <-h.stopCh:
			h.drain()
			return

		case req := <-h.registerCh:
			c := &client{conn: req.conn, queue: ring.NewFrameQueue(clientBufferSize), needInitial: true}
			c.handle = h.reg.Add(c)
			go h.writeLoop(c)
			go h.readLoop(c)
			h.metrics.ClientsConnected.Set(float64(h.reg.Len()))
			close(req.reply)

		case c := <-h.unregisterCh:
			h.reg.Remove(c.handle)
			c.queue.Close()
			h.metrics.ClientsConnected.Set(float64(h.reg.Len()))

		case reply := <-h.queryCh:
			reply <- h.fr.Snapshot()

		case <-ticker.C:
			h.tick()
		}
	}
}

// Stop halts the event loop and closes every registered client's
// connection. It blocks until the loop has fully exited.
func (h *Hub) Stop() {
	close(h.stopCh)
	<-h.stoppedCh
}

func (h *Hub) drain() {
	h.reg.Each(func(c *client) {
		c.conn.Close()
	})
}

// tick implements the Refresh Scheduler (design §4.C): decide under the
// source's mutex whether to copy a new frame or go blank, apply that
// decision outside the mutex, then fan out.
func (h *Hub) tick() {
	h.metrics.RefreshTicks.Inc()
	switch h.src.TryConsume(&h.scratch, &h.scratchW, &h.scratchH) {
	case source.Captured:
		h.fr.CopyFrom(h.scratch, h.scratchW, h.scratchH, true)
		h.metrics.RefreshOnline.Set(1)
		h.fanout()
	case source.Offline:
		h.fr.SetBlank()
		h.metrics.RefreshOnline.Set(0)
		h.fanout()
	case source.NoChange:
		if !h.fr.Online() {
			h.fanout()
		}
	}
}

// fanout pushes the current frame bytes to every registered client's
// queue, in registration order. A client more than clientBufferSize
// parts behind has its oldest buffered part evicted rather than
// blocking the hub — the design does not mandate coalescing, only that
// the hub never blocks.
func (h *Hub) fanout() {
	payload := h.fr.Snapshot().Data
	h.reg.Each(func(c *client) {
		if c.queue.Push(payload) {
			h.metrics.FanoutDrops.Inc()
		}
		h.metrics.FanoutFrames.WithLabelValues("stream").Inc()
	})
}

// Register adds conn as a new streaming client. It is called from an
// HTTP handler goroutine and blocks only until the hub has linked the
// client into the registry.
func (h *Hub) Register(conn net.Conn) {
	reply := make(chan struct{})
	select {
	case h.registerCh <- registerReq{conn: conn, reply: reply}:
		<-reply
	case <-h.stopCh:
		conn.Close()
	}
}

// Snapshot returns the Exposed Frame's current bytes and metadata. The
// read happens on the hub goroutine, honouring the invariant that the
// frame is only ever read there.
func (h *Hub) Snapshot() frame.Snapshot {
	reply := make(chan frame.Snapshot, 1)
	select {
	case h.queryCh <- reply:
		return <-reply
	case <-h.stopCh:
		return frame.Snapshot{Data: frame.Blank, Width: frame.BlankWidth, Height: frame.BlankHeight}
	}
}

// writeLoop performs the actual socket writes for one client: the
// preamble once, then one part per payload popped off c.queue. It is
// the only goroutine that ever writes to c.conn.
func (h *Hub) writeLoop(c *client) {
	bw := bufio.NewWriter(c.conn)
	mw := mjpeg.NewWriter(bw)
	for {
		_, open := <-c.queue.Wake()
		for {
			payload, ok := c.queue.Pop()
			if !ok {
				break
			}
			if c.needInitial {
				if err := mw.WritePreamble(); err != nil {
					c.disconnect(h)
					return
				}
				c.needInitial = false
			}
			if err := mw.WritePart(payload, time.Now()); err != nil {
				c.disconnect(h)
				return
			}
			if err := bw.Flush(); err != nil {
				c.disconnect(h)
				return
			}
		}
		if !open {
			return
		}
	}
}

// readLoop only exists to surface client-initiated disconnects (EOF or
// reset) promptly: the push protocol never expects bytes from the
// client, so any bytes read are discarded and only a read error or EOF
// is treated as a disconnect.
func (h *Hub) readLoop(c *client) {
	buf := make([]byte, 64)
	for {
		if _, err := c.conn.Read(buf); err != nil {
			c.disconnect(h)
			return
		}
	}
}
