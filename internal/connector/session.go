package connector

import (
	"bytes"
	"encoding/json"
	"net"
	"sync"
)

// pageSize bounds the per-session ring buffer; maxMsgSize is the
// longest line the connector will accept, per spec.md §6.
const (
	pageSize  = 4096
	maxMsgSize = 1024
)

// Session is one accepted miner connection: a stable id, its socket,
// and the ring buffer the per-session parser scans for complete
// newline-delimited JSON lines (spec.md §4.6). id is assigned once and
// never reused for the life of the process, unlike the generational
// handles the accounting store hands out.
type Session struct {
	id   int64
	addr string

	mu    sync.Mutex
	conn  net.Conn
	buf   []byte
	valid bool
}

func newSession(id int64, conn net.Conn) *Session {
	return &Session{
		id:    id,
		addr:  conn.RemoteAddr().String(),
		conn:  conn,
		buf:   make([]byte, 0, pageSize),
		valid: true,
	}
}

// ID returns the session's stable client id.
func (s *Session) ID() int64 { return s.id }

// Addr returns the session's remote address, for logging.
func (s *Session) Addr() string { return s.addr }

func (s *Session) isValid() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.valid
}

// invalidate closes the underlying connection and marks the session
// dead. Safe to call more than once.
func (s *Session) invalidate() {
	s.mu.Lock()
	if !s.valid {
		s.mu.Unlock()
		return
	}
	s.valid = false
	conn := s.conn
	s.mu.Unlock()
	conn.Close()
}

// write sends payload followed by a newline to the client, per spec.md
// §4.6's outbound write contract. A write on an invalidated session is
// a no-op; any write error invalidates the session.
func (s *Session) write(payload []byte) {
	s.mu.Lock()
	if !s.valid {
		s.mu.Unlock()
		return
	}
	conn := s.conn
	s.mu.Unlock()

	if _, err := conn.Write(append(payload, '\n')); err != nil {
		s.invalidate()
	}
}

// feed appends newly read bytes to the session's buffer and extracts
// every complete newline-terminated line, invoking onLine for each. It
// implements spec.md §4.6's per-session parser:
//   - a line longer than maxMsgSize invalidates the session;
//   - a line that fails onLine's JSON validation sends a terse error
//     and invalidates the session;
//   - residual bytes after the last newline are kept for the next read.
//
// feed reports false if the session was invalidated while processing
// (oversize line or invalid JSON), in which case the caller should stop
// reading from this session.
func (s *Session) feed(chunk []byte, onLine func(line []byte) bool) bool {
	s.buf = append(s.buf, chunk...)

	for {
		idx := bytes.IndexByte(s.buf, '\n')
		if idx < 0 {
			break
		}
		line := s.buf[:idx]
		s.buf = s.buf[idx+1:]

		if len(line)+1 > maxMsgSize {
			s.invalidate()
			return false
		}
		if !onLine(line) {
			s.write([]byte("Invalid JSON, disconnecting"))
			s.invalidate()
			return false
		}
	}

	if len(s.buf) > maxMsgSize {
		// A line that never terminates before exceeding maxMsgSize is
		// itself oversize, per spec.md §8 scenario 6.
		s.invalidate()
		return false
	}
	return true
}

// injectClientID parses line as a JSON object, overrides any prior
// "client_id" field with id, and returns the re-serialised object. It
// reports false if line is not a JSON object.
func injectClientID(line []byte, id int64) ([]byte, bool) {
	var obj map[string]interface{}
	if err := json.Unmarshal(line, &obj); err != nil {
		return nil, false
	}
	obj["client_id"] = id
	out, err := json.Marshal(obj)
	if err != nil {
		return nil, false
	}
	return out, true
}
