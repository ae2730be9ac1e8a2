// Package connector implements the miner-facing TCP front-end of
// spec.md §4.6: an acceptor that registers sessions in a hashtable
// keyed by a monotonic client id, a per-session line-JSON parser, and
// an outbound router back to individual sessions. The three cooperating
// POSIX threads of the original design (acceptor, receiver, control
// loop) become: an accept loop that spawns one reader goroutine per
// session (Go's natural replacement for a single poll()-multiplexed
// receiver thread over many file descriptors), plus a control loop
// goroutine — each a direct translation of spec.md §4.6's suspension
// points (accept, recv/Read, send/Write) into blocking goroutine calls.
package connector

import (
	"bufio"
	"encoding/json"
	"fmt"
	"net"
	"sync"
	"sync/atomic"

	"github.com/poolcore/ckdb/pkg/logging"
)

// Connector owns the client session hashtable and the listener.
type Connector struct {
	log  *logging.Logger
	sink StratifierSink

	mu       sync.RWMutex
	sessions map[int64]*Session
	nextID   int64

	listener net.Listener
	control  net.Listener

	closed atomic.Bool
}

// New builds a Connector that forwards parsed messages and drop
// notifications to sink.
func New(sink StratifierSink) *Connector {
	return &Connector{
		log:      logging.GetDefault().Component("connector"),
		sink:     sink,
		sessions: make(map[int64]*Session),
	}
}

// ListenAndServe binds the miner-facing listener at addr and, if
// controlAddr is non-empty, the local control-channel listener, then
// runs the accept loop and control loop until Shutdown is called.
// ListenAndServe blocks; call it in its own goroutine.
func (c *Connector) ListenAndServe(addr, controlAddr string) error {
	l, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("connector: listen %s: %w", addr, err)
	}
	c.listener = l
	c.log.Info("listening for miners", "addr", addr)

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		c.acceptLoop()
	}()

	if controlAddr != "" {
		cl, err := net.Listen("unix", controlAddr)
		if err != nil {
			return fmt.Errorf("connector: listen control %s: %w", controlAddr, err)
		}
		c.control = cl
		wg.Add(1)
		go func() {
			defer wg.Done()
			c.controlLoop()
		}()
	}

	wg.Wait()
	return nil
}

// Shutdown closes the listeners, which unblocks the accept and control
// loops; their goroutines return once any in-flight Accept returns an error.
func (c *Connector) Shutdown() {
	if !c.closed.CompareAndSwap(false, true) {
		return
	}
	if c.listener != nil {
		c.listener.Close()
	}
	if c.control != nil {
		c.control.Close()
	}
	c.mu.Lock()
	sessions := make([]*Session, 0, len(c.sessions))
	for _, s := range c.sessions {
		sessions = append(sessions, s)
	}
	c.mu.Unlock()
	for _, s := range sessions {
		s.invalidate()
	}
}

// acceptLoop is the acceptor thread of spec.md §4.6: blocking accept,
// TCP keep-alive, session registration under the write lock, never
// reading application data itself.
func (c *Connector) acceptLoop() {
	for {
		conn, err := c.listener.Accept()
		if err != nil {
			if c.closed.Load() {
				return
			}
			c.log.Warn("accept error", "error", err)
			continue
		}
		if tc, ok := conn.(*net.TCPConn); ok {
			tc.SetKeepAlive(true)
		}

		session := c.register(conn)
		c.log.Debug("client connected", "client_id", session.ID(), "addr", session.Addr())
		go c.readLoop(session)
	}
}

func (c *Connector) register(conn net.Conn) *Session {
	c.mu.Lock()
	defer c.mu.Unlock()
	id := c.nextID
	c.nextID++
	s := newSession(id, conn)
	c.sessions[id] = s
	return s
}

// readLoop is one session's share of the receiver thread: it reads
// whatever bytes are available, feeds them to the session's line
// parser, and forwards each complete, client_id-tagged JSON message to
// the stratifier sink. Read-0 (EOF) invalidates the session, matching
// spec.md §4.6's "on read-0 the session is invalidated".
func (c *Connector) readLoop(s *Session) {
	chunk := make([]byte, pageSize)
	for {
		n, err := s.conn.Read(chunk)
		if n > 0 {
			ok := s.feed(chunk[:n], func(line []byte) bool {
				tagged, valid := injectClientID(line, s.ID())
				if !valid {
					return false
				}
				c.sink.Forward(tagged)
				return true
			})
			if !ok {
				break
			}
		}
		if err != nil {
			break
		}
	}
	c.invalidateAndNotify(s)
}

// invalidateAndNotify invalidates s (if not already), emits
// dropclient=<id> to the stratifier, and reaps the session from the
// hashtable — the garbage collection spec.md §9 calls for, since the
// original never reaps invalidated sessions.
func (c *Connector) invalidateAndNotify(s *Session) {
	s.invalidate()
	c.sink.DropClient(s.ID())
	c.mu.Lock()
	delete(c.sessions, s.ID())
	c.mu.Unlock()
	c.log.Debug("client disconnected", "client_id", s.ID())
}

// SendToClient looks up the session by id under the read lock, then
// writes outside the lock (the fd must not be held across it, per
// spec.md §4.6).
func (c *Connector) SendToClient(id int64, payload []byte) bool {
	c.mu.RLock()
	s, ok := c.sessions[id]
	c.mu.RUnlock()
	if !ok {
		c.log.Warn("send to unknown client", "client_id", id)
		return false
	}
	if len(payload) == 0 {
		c.log.Warn("send_client called with empty payload", "client_id", id)
		return false
	}
	s.write(payload)
	return true
}

// controlMessage is the wire shape of one control-channel message
// (spec.md §4.6, §6): a mandatory client_id plus an arbitrary payload.
type controlMessage struct {
	ClientID int64 `json:"client_id"`
}

// controlLoop accepts one connection at a time on the local control
// socket, reads a single message, strips client_id, and routes the
// remaining object to that client (spec.md §4.6's control loop thread).
// A leading "shutdown" (case-insensitive) substring in the raw message
// ends the loop.
func (c *Connector) controlLoop() {
	for {
		conn, err := c.control.Accept()
		if err != nil {
			if c.closed.Load() {
				return
			}
			c.log.Warn("control accept error", "error", err)
			continue
		}
		if c.handleControlConn(conn) {
			return
		}
	}
}

func (c *Connector) handleControlConn(conn net.Conn) (shutdown bool) {
	defer conn.Close()
	raw, err := bufio.NewReader(conn).ReadBytes('\n')
	if err != nil && len(raw) == 0 {
		return false
	}
	raw = trimTrailingNewline(raw)

	if isShutdownCommand(raw) {
		c.log.Info("shutdown command received on control channel")
		return true
	}

	var msg controlMessage
	if err := json.Unmarshal(raw, &msg); err != nil {
		c.log.Warn("malformed control message", "error", err)
		return false
	}
	var obj map[string]interface{}
	if err := json.Unmarshal(raw, &obj); err == nil {
		delete(obj, "client_id")
		if out, err := json.Marshal(obj); err == nil {
			c.SendToClient(msg.ClientID, out)
		}
	}
	return false
}

func isShutdownCommand(raw []byte) bool {
	const prefix = "shutdown"
	if len(raw) < len(prefix) {
		return false
	}
	for i := 0; i < len(prefix); i++ {
		a, b := raw[i], prefix[i]
		if 'A' <= a && a <= 'Z' {
			a += 'a' - 'A'
		}
		if a != b {
			return false
		}
	}
	return true
}

func trimTrailingNewline(b []byte) []byte {
	for len(b) > 0 && (b[len(b)-1] == '\n' || b[len(b)-1] == '\r') {
		b = b[:len(b)-1]
	}
	return b
}
