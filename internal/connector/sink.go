package connector

// StratifierSink is the process-supervision IPC channel to the upstream
// stratifier (spec.md §1, §6) — explicitly out of scope for this core,
// so the connector only depends on this narrow interface rather than a
// concrete transport.
type StratifierSink interface {
	// Forward delivers one parsed, client_id-tagged JSON message.
	Forward(line []byte)
	// DropClient notifies the stratifier that a session was invalidated.
	DropClient(id int64)
}

// ChannelSink is a StratifierSink that publishes both message kinds on
// a single buffered channel, for callers (tests, or a real IPC bridge)
// that want to drain egress traffic from one place.
type ChannelSink struct {
	ch chan Egress
}

// Egress is one unit of stratifier-bound traffic: either a forwarded
// client message or a drop notification.
type Egress struct {
	ClientID int64
	Line     []byte // nil for a drop notification
	Dropped  bool
}

// NewChannelSink builds a ChannelSink with the given channel buffer size.
func NewChannelSink(buffer int) *ChannelSink {
	return &ChannelSink{ch: make(chan Egress, buffer)}
}

func (c *ChannelSink) Forward(line []byte) {
	c.ch <- Egress{Line: line}
}

func (c *ChannelSink) DropClient(id int64) {
	c.ch <- Egress{ClientID: id, Dropped: true}
}

// Out exposes the egress channel for consumption.
func (c *ChannelSink) Out() <-chan Egress { return c.ch }
