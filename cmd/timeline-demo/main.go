// Command timeline-demo drives a synthetic compositor session through the
// frame timeline engine and optionally streams the resulting trace
// packets over gRPC.
package main

import (
	"flag"
	"log"
	"net"

	"google.golang.org/grpc"

	"github.com/banshee-data/frametimeline/internal/frametimeline/demo"
	"github.com/banshee-data/frametimeline/internal/frametimeline/dump"
	"github.com/banshee-data/frametimeline/internal/frametimeline/engine"
	"github.com/banshee-data/frametimeline/internal/frametimeline/jank"
	"github.com/banshee-data/frametimeline/internal/frametimeline/token"
	"github.com/banshee-data/frametimeline/internal/frametimeline/trace"
	"github.com/banshee-data/frametimeline/internal/monitoring"
	"github.com/banshee-data/frametimeline/internal/timeutil"
)

func main() {
	var (
		frames int
		vsyncPeriodNs int64
		jankEvery int
		grpcAddr string
		jankOnly bool
	)

	flag.IntVar(&frames, "frames", 120, "number of simulated VSYNC cycles")
	flag.Int64Var(&vsyncPeriodNs, "vsync-period-ns", 16_666_667, "simulated vsync period, nanoseconds")
	flag.IntVar(&jankEvery, "jank-every", 11, "inject a present-delay jank every Nth frame (0 disables)")
	flag.StringVar(&grpcAddr, "grpc-addr", "", "if set, serve trace export over gRPC on this address")
	flag.BoolVar(&jankOnly, "jank", false, "dump only janky display frames at the end of the run")
	flag.Parse()

	var sink trace.Sink = trace.Noop{}
	var grpcServer *grpc.Server
	if grpcAddr != "" {
		lis, err := net.Listen("tcp", grpcAddr)
		if err != nil {
			log.Fatalf("listen %s: %v", grpcAddr, err)
		}
		grpcSink := trace.NewGrpcSink()
		sink = grpcSink

		grpcServer = grpc.NewServer()
		trace.RegisterTraceExportServer(grpcServer, grpcSink)
		go func() {
			monitoring.Logf("timeline-demo: serving trace export on %s", grpcAddr)
			if err := grpcServer.Serve(lis); err != nil {
				monitoring.Logf("timeline-demo: grpc server stopped: %v", err)
			}
		}()
	}

	tokens := token.NewManager(timeutil.RealClock{})
	ft := engine.New(tokens, jank.DefaultThresholds(), 100, sink)

	opts := demo.DefaultOptions()
	opts.Frames = frames
	opts.VsyncPeriodNs = vsyncPeriodNs
	opts.JankEvery = jankEvery
	demo.Run(ft, opts)

	mode := dump.All
	if jankOnly {
		mode = dump.JankOnly
	}
	if err := dump.Write(logWriter{}, ft.DisplayFrames(), mode); err != nil {
		log.Fatalf("dump: %v", err)
	}

	if grpcServer != nil {
		grpcServer.GracefulStop()
	}
}

// logWriter adapts io.Writer onto monitoring.Logf so the dump surface
// shares the rest of the binary's logging path rather than writing
// straight to stdout.
type logWriter struct{}

func (logWriter) Write(p []byte) (int, error) {
	monitoring.Logf("%s", string(p))
	return len(p), nil
}
