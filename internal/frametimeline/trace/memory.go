package trace

import "sync"

// Packet is a concrete envelope capturing one emitted trace packet, used by
// Memory and by tests asserting on trace output.
type Packet struct {
	ClockID ClockID
	TimestampNs int64
	DisplayFrame *DisplayFramePacket
	SurfaceFrame *SurfaceFramePacket
}

// Memory is an in-process Sink that retains every packet emitted to it, for
// tests asserting on trace output.
type Memory struct {
	mu sync.Mutex
	packets []Packet
}

// NewMemory returns an empty Memory sink.
func NewMemory() *Memory {
	return &Memory{}
}

func (m *Memory) NewTracePacket() PacketBuilder {
	return &memoryBuilder{sink: m}
}

// Packets returns a snapshot of every packet emitted so far, in emission
// order.
func (m *Memory) Packets() []Packet {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]Packet, len(m.packets))
	copy(out, m.packets)
	return out
}

// DisplayFramePackets filters Packets to just the DisplayFrame ones.
func (m *Memory) DisplayFramePackets() []DisplayFramePacket {
	var out []DisplayFramePacket
	for _, p := range m.Packets() {
		if p.DisplayFrame != nil {
			out = append(out, *p.DisplayFrame)
		}
	}
	return out
}

// SurfaceFramePackets filters Packets to just the SurfaceFrame ones.
func (m *Memory) SurfaceFramePackets() []SurfaceFramePacket {
	var out []SurfaceFramePacket
	for _, p := range m.Packets() {
		if p.SurfaceFrame != nil {
			out = append(out, *p.SurfaceFrame)
		}
	}
	return out
}

func (m *Memory) append(p Packet) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.packets = append(m.packets, p)
}

type memoryBuilder struct {
	sink *Memory
	clockID ClockID
	timestampNs int64
}

func (b *memoryBuilder) SetTimestampClockID(id ClockID) PacketBuilder {
	b.clockID = id
	return b
}

func (b *memoryBuilder) SetTimestamp(ns int64) PacketBuilder {
	b.timestampNs = ns
	return b
}

func (b *memoryBuilder) SetFrameTimelineEvent() EventBuilder {
	return &memoryEvent{builder: b}
}

type memoryEvent struct {
	builder *memoryBuilder
}

func (e *memoryEvent) SetDisplayFrame(pkt DisplayFramePacket) {
	e.builder.sink.append(Packet{
		ClockID: e.builder.clockID,
		TimestampNs: e.builder.timestampNs,
		DisplayFrame: &pkt,
	})
}

func (e *memoryEvent) SetSurfaceFrame(pkt SurfaceFramePacket) {
	e.builder.sink.append(Packet{
		ClockID: e.builder.clockID,
		TimestampNs: e.builder.timestampNs,
		SurfaceFrame: &pkt,
	})
}

var _ Sink = (*Memory)(nil)
