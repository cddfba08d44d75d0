// Command timeline-dump renders the -jank/-all text dump against a
// synthetic session. There is no persisted trace store to read from, so
// this tool generates and dumps a session in one run.
package main

import (
	"flag"
	"log"
	"os"

	"github.com/banshee-data/frametimeline/internal/frametimeline/demo"
	"github.com/banshee-data/frametimeline/internal/frametimeline/dump"
	"github.com/banshee-data/frametimeline/internal/frametimeline/engine"
	"github.com/banshee-data/frametimeline/internal/frametimeline/jank"
	"github.com/banshee-data/frametimeline/internal/frametimeline/token"
	"github.com/banshee-data/frametimeline/internal/timeutil"
)

func main() {
	var (
		jankOnly bool
		all bool
		frames int
	)
	flag.BoolVar(&jankOnly, "jank", false, "dump only display frames with a non-zero jank_type")
	flag.BoolVar(&all, "all", true, "dump every retained display frame (default)")
	flag.IntVar(&frames, "frames", 60, "number of simulated VSYNC cycles to generate")
	flag.Parse()

	mode := dump.All
	if jankOnly {
		mode = dump.JankOnly
	}

	tokens := token.NewManager(timeutil.RealClock{})
	ft := engine.New(tokens, jank.DefaultThresholds(), 100, nil)

	opts := demo.DefaultOptions()
	opts.Frames = frames
	demo.Run(ft, opts)

	if err := dump.Write(os.Stdout, ft.DisplayFrames(), mode); err != nil {
		log.Fatalf("dump: %v", err)
	}
}
