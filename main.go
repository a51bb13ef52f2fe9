// main.go - host binary entry point: wires the USB-CDC transport, frame
// parser, event queue, scheduler and audio sink together and runs the
// event/audio context and the render context as two supervised goroutines.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/charmbracelet/log"
	"github.com/spf13/pflag"
	"golang.org/x/sync/errgroup"
)

// hostSink combines the scheduler's event intake and the control
// handler's command intake into the single ParserSink the frame parser
// expects (§9 Open Questions: both entry points feed the same queue).
type hostSink struct {
	scheduler *EventScheduler
	control   *ControlHandler
}

func (h *hostSink) PushRegisterEvent(chipMask, addr, value uint8, delta uint32) {
	h.scheduler.PushRegisterEvent(chipMask, addr, value, delta)
}

func (h *hostSink) HandleCommand(opcode, param0, param1, param2 uint8) {
	h.control.HandleCommand(opcode, param0, param1, param2)
}

func main() {
	configPath := scanConfigFlag(os.Args[1:])
	cfg, err := loadConfig(configPath)
	if err != nil {
		newLogger(false).Error("config load failed", "err", err)
		os.Exit(1)
	}
	registerFlags(&cfg)
	pflag.Parse()

	logger := newLogger(cfg.Verbose)
	logger.Info("starting sidbridge", "device", cfg.Device, "sample_rate", cfg.SampleRate, "headless", cfg.Headless)

	cellA := NewReferenceSIDCell()
	cellB := NewReferenceSIDCell()
	modelA, modelB := parseChipModels(cfg.ChipModel)
	cellA.SetChipModel(modelA)
	cellB.SetChipModel(modelB)
	cellA.SetSamplingParameters(sidClockPAL, cfg.SampleRate)
	cellB.SetSamplingParameters(sidClockPAL, cfg.SampleRate)

	queue := NewEventQueue(cfg.QueueCapacity)
	scheduler := NewEventScheduler(cellA, cellB, queue, sidClockPAL, cfg.SampleRate, cfg.Gain)
	control := NewControlHandler(scheduler, cellA, cellB)
	for i, models := range modelCycle {
		if models == [2]ChipModel{modelA, modelB} {
			control.modelIdx = i
		}
	}
	sink := &hostSink{scheduler: scheduler, control: control}

	cache := NewSnapshotCache()
	telemetry := NewTelemetry(queue, cache, logger)
	statusServer := NewStatusServer(cache, logger)

	parser := NewFrameParser(parseWireProfile(cfg.WireProfile), parseHeaderProfile(cfg.HeaderProfile), sink, telemetry, 4096)
	flow := NewFlowController(queue)

	pool := NewBufferPool(4, 256)
	pump := NewSamplePump(scheduler, pool)

	if !cfg.Headless {
		player, err := NewOtoPlayer(cfg.SampleRate)
		if err != nil {
			logger.Error("audio sink init failed", "err", err)
			os.Exit(1)
		}
		player.SetupPlayer(pool)
		player.Start()
		defer player.Close()
	}

	transport, err := OpenSerialTransport(cfg.Device, cfg.Baud)
	if err != nil {
		logger.Error("transport open failed", "err", err)
		os.Exit(1)
	}
	defer transport.Close()
	if err := transport.WriteReadyLine(); err != nil {
		logger.Warn("could not write handshake line", "err", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return runEventAudioContext(gctx, transport, parser, flow, pump, telemetry, control)
	})
	g.Go(func() error {
		return runRenderContext(gctx, telemetry)
	})
	g.Go(func() error {
		return statusServer.Serve(gctx, "127.0.0.1:7581")
	})

	if err := g.Wait(); err != nil && gctx.Err() == nil {
		logger.Error("fatal error", "err", err)
		os.Exit(1)
	}
	logger.Info("shutdown complete")
}

// runEventAudioContext is the single-threaded cooperative loop that owns
// C2-C7: poll the transport (subject to backpressure), feed the parser,
// and keep the sample pump filling buffers for the audio sink.
func runEventAudioContext(ctx context.Context, transport *SerialTransport, parser *FrameParser, flow *FlowController, pump *SamplePump, telemetry *Telemetry, control *ControlHandler) error {
	buf := make([]byte, 4096)
	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		default:
		}

		didWork := false

		if flow.Poll() {
			n, err := transport.Read(buf)
			if err != nil {
				return err
			}
			if n > 0 {
				parser.Feed(buf[:n], time.Now().UnixNano())
				didWork = true
			}
		}

		for pump.Pump() {
			didWork = true
		}

		if !didWork {
			time.Sleep(time.Millisecond)
		}

		select {
		case <-ticker.C:
			a, b := control.CurrentModels()
			telemetry.SetModels(a, b)
			telemetry.SetPaused(flow.Paused())
			telemetry.Publish()
		default:
		}
	}
}

// runRenderContext is the read-mostly consumer side: it periodically
// logs a status line from the cached snapshot, never touching C1-C7
// state directly.
func runRenderContext(ctx context.Context, telemetry *Telemetry) error {
	ticker := time.NewTicker(2 * time.Second)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			telemetry.LogStatusLine()
		}
	}
}

func newLogger(verbose bool) *log.Logger {
	logger := log.NewWithOptions(os.Stderr, log.Options{
		ReportTimestamp: true,
		TimeFormat:      time.Kitchen,
		Prefix:          "sidbridge",
	})
	if verbose {
		logger.SetLevel(log.DebugLevel)
	} else {
		logger.SetLevel(log.InfoLevel)
	}
	return logger
}
