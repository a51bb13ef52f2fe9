// statusview is an optional visual frontend: it polls a running
// sidbridge instance's status endpoint and renders the latest telemetry
// as scrolling text, mirroring the teacher's ebiten-based GUI frontend
// precedent but consuming JSON over HTTP instead of sharing process
// memory (the wire protocol this reads from has no IPC contract of its
// own, so a loopback poll is the only place to host this without
// inventing one).
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"image/color"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/text"
	"golang.org/x/image/font/basicfont"
)

var (
	colorBackground = color.RGBA{R: 0x10, G: 0x10, B: 0x10, A: 0xff}
	colorAmber      = color.RGBA{R: 0xff, G: 0xb0, B: 0x20, A: 0xff}
)

// snapshot mirrors TelemetrySnapshot's JSON shape. Deliberately
// independent of the root package's type so this binary has no compile
// dependency on the engine internals - it is a client of the HTTP API,
// nothing more.
type snapshot struct {
	FrameCount      uint64
	TotalEvents     uint64
	TotalBytes      uint64
	MinFrameNanos   int64
	AvgFrameNanos   int64
	MaxFrameNanos   int64
	QueueDepth      int
	QueuePeakDepth  int
	DroppedCount    uint32
	ResyncCount     uint32
	BufferOverflows uint32
	FrameDrift      int64
	Paused          bool
	ModelA, ModelB  string
}

type view struct {
	url    string
	client *http.Client
	lines  []string
	err    error
}

func newView(url string) *view {
	return &view{url: url, client: &http.Client{Timeout: 500 * time.Millisecond}}
}

func (v *view) Update() error {
	resp, err := v.client.Get(v.url)
	if err != nil {
		v.err = err
		return nil
	}
	defer resp.Body.Close()

	var snap snapshot
	if err := json.NewDecoder(resp.Body).Decode(&snap); err != nil {
		v.err = err
		return nil
	}
	v.err = nil
	v.lines = []string{
		fmt.Sprintf("frames        %d", snap.FrameCount),
		fmt.Sprintf("events        %d", snap.TotalEvents),
		fmt.Sprintf("bytes         %d", snap.TotalBytes),
		fmt.Sprintf("queue depth   %d / peak %d", snap.QueueDepth, snap.QueuePeakDepth),
		fmt.Sprintf("dropped       %d", snap.DroppedCount),
		fmt.Sprintf("resyncs       %d", snap.ResyncCount),
		fmt.Sprintf("overflows     %d", snap.BufferOverflows),
		fmt.Sprintf("frame drift   %d", snap.FrameDrift),
		fmt.Sprintf("paused        %t", snap.Paused),
		fmt.Sprintf("models        %s / %s", snap.ModelA, snap.ModelB),
	}
	return nil
}

func (v *view) Draw(screen *ebiten.Image) {
	screen.Fill(colorBackground)
	if v.err != nil {
		text.Draw(screen, "no connection: "+v.err.Error(), basicfont.Face7x13, 8, 20, colorAmber)
		return
	}
	for i, line := range v.lines {
		text.Draw(screen, line, basicfont.Face7x13, 8, 20+i*16, colorAmber)
	}
}

func (v *view) Layout(_, _ int) (int, int) {
	return 420, 220
}

func main() {
	addr := flag.String("addr", "http://127.0.0.1:7581/status", "sidbridge status endpoint")
	flag.Parse()

	ebiten.SetWindowTitle("sidbridge status")
	ebiten.SetWindowSize(420, 220)
	if err := ebiten.RunGame(newView(*addr)); err != nil && !strings.Contains(err.Error(), "termination") {
		log.Fatal(err)
	}
}
