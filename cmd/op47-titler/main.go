// Command op47-titler reads WebVTT subtitle cues and dispatches them to a
// downstream video mixer as OP-47 VANC teletext packets, driven by a
// clock-ticked scheduler and controlled over a small HTTP surface.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"golang.org/x/net/netutil"

	"github.com/wst-titler/op47/internal/audit"
	"github.com/wst-titler/op47/internal/config"
	"github.com/wst-titler/op47/internal/debugfs"
	"github.com/wst-titler/op47/internal/dispatcher"
	"github.com/wst-titler/op47/internal/httpapi"
	"github.com/wst-titler/op47/internal/scheduler"
	"github.com/wst-titler/op47/internal/segmenter"
	"github.com/wst-titler/op47/internal/timesource"
)

// activeExternalClock forwards timecode datagrams to whichever
// ExternalClock the most recent POST /titling (timeMode=external) created,
// so a single long-lived UDP listener can serve every titling session.
type activeExternalClock struct {
	mu    sync.Mutex
	clock *timesource.ExternalClock
}

func (a *activeExternalClock) set(c *timesource.ExternalClock) {
	a.mu.Lock()
	a.clock = c
	a.mu.Unlock()
}

func (a *activeExternalClock) Ingest(fromAddr string, t float64) bool {
	a.mu.Lock()
	c := a.clock
	a.mu.Unlock()
	if c == nil {
		return false
	}
	return c.Ingest(fromAddr, t)
}

func main() {
	channelLayer := flag.String("channel-layer", "1", "channel layer identifier for the APPLY command grammar")
	envFile := flag.String("env-file", "", "optional .env-style file to seed configuration from")
	debugfsDir := flag.String("debugfs", "", "optional FUSE mount point for live debug state (linux only)")
	timecodeUDPAddr := flag.String("timecode-udp-addr", "", "optional udp address to receive external timecode datagrams on")
	maxConns := flag.Int("max-conns", 64, "maximum concurrent HTTP connections to the control surface")
	flag.Parse()

	if *envFile != "" {
		if err := config.LoadEnvFile(*envFile); err != nil {
			log.Printf("env file %q not applied: %v", *envFile, err)
		}
	}
	cfg := config.Load()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	auditLog, err := audit.Open(cfg.AuditDBPath)
	if err != nil {
		log.Printf("audit log disabled: %v", err)
		auditLog = nil
	} else {
		defer auditLog.Close()
	}

	sender := dispatcher.New(cfg.DownstreamAddr, *channelLayer)
	go sender.Run(ctx)

	wdisp := newWSTDispatcher(wstConfig(cfg), sender)
	sched := scheduler.New(wdisp, auditLog)

	activeClock := &activeExternalClock{}
	if *timecodeUDPAddr != "" {
		go func() {
			if err := timesource.ListenUDP(ctx, *timecodeUDPAddr, activeClock); err != nil {
				log.Printf("timecode udp listener: %v", err)
			}
		}()
	}

	api := &httpapi.Server{
		Scheduler:           sched,
		Dispatcher:          sender,
		Audit:               auditLog,
		SegConfig:           segmenter.Config{LineWidth: cfg.LineWidth, MaxLines: cfg.MaxLines},
		TimecodeStrictMatch: cfg.TimecodeStrictMatch,
		ExternalAddr:        cfg.DownstreamAddr + "/time",
		OnExternalClock:     activeClock.set,
	}

	ln, err := net.Listen("tcp", cfg.HTTPAddr)
	if err != nil {
		log.Fatalf("listen %s: %v", cfg.HTTPAddr, err)
	}
	ln = netutil.LimitListener(ln, *maxConns)

	srv := &http.Server{Handler: api.Mux()}
	serverErr := make(chan error, 1)
	go func() {
		log.Printf("op47-titler listening on %s (max conns %d)", cfg.HTTPAddr, *maxConns)
		serverErr <- srv.Serve(ln)
	}()

	if *debugfsDir != "" {
		unmount, err := debugfs.Mount(ctx, *debugfsDir, sched)
		if err != nil {
			log.Printf("debugfs mount %s failed: %v", *debugfsDir, err)
		} else {
			log.Printf("debugfs mounted at %s", *debugfsDir)
			defer unmount()
		}
	}

	select {
	case err := <-serverErr:
		if err != nil && err != http.ErrServerClosed {
			log.Printf("http: %v", err)
		}
	case <-ctx.Done():
		fmt.Println("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Printf("http shutdown: %v", err)
		}
		<-serverErr
	}
	sched.Stop()
	os.Exit(0)
}
