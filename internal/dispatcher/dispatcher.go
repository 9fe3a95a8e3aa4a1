// Package dispatcher maintains a persistent TCP connection to a downstream
// mixer and formats OP-47 packet sets into the ASCII command it expects.
package dispatcher

import (
	"bufio"
	"context"
	"encoding/base64"
	"fmt"
	"log"
	"math/rand"
	"net"
	"strings"
	"sync"
	"time"

	"github.com/wst-titler/op47/internal/metrics"
)

const (
	baseReconnectDelay = 2 * time.Second
	dialTimeout        = 5 * time.Second
)

// Sink abstracts the transport a Dispatcher writes command lines to, so
// tests can capture output without opening a real socket.
type Sink interface {
	WriteLine(line string) error
}

// netSink writes CRLF-terminated lines to a live TCP connection.
type netSink struct {
	conn net.Conn
}

func (s *netSink) WriteLine(line string) error {
	_, err := fmt.Fprintf(s.conn, "%s\r\n", line)
	return err
}

// Dispatcher owns one reconnecting TCP connection to a channel layer mixer
// and serializes writes of APPLY commands carrying base64-encoded OP-47
// packets.
type Dispatcher struct {
	addr          string
	channelLayer  string
	reconnects    int

	mu   sync.Mutex
	sink Sink // nil when not connected; writes are dropped silently
}

// New builds a Dispatcher targeting addr (host:port) for the given channel
// layer identifier used in the APPLY command grammar.
func New(addr, channelLayer string) *Dispatcher {
	return &Dispatcher{addr: addr, channelLayer: channelLayer}
}

// Run dials addr and reconnects with jittered exponential backoff until ctx
// is canceled. Intended to run in its own goroutine for the lifetime of the
// process.
func (d *Dispatcher) Run(ctx context.Context) {
	attempt := 0
	for {
		if ctx.Err() != nil {
			return
		}
		conn, err := net.DialTimeout("tcp", d.addr, dialTimeout)
		if err != nil {
			d.setSink(nil)
			wait := jitter(backoffFor(attempt))
			log.Printf("dispatcher: dial %s failed (attempt %d): %v; retrying in %s", d.addr, attempt+1, err, wait.Round(time.Millisecond))
			attempt++
			d.mu.Lock()
			d.reconnects++
			d.mu.Unlock()
			metrics.DispatcherReconnects.Inc()
			if sleepCtx(ctx, wait) != nil {
				return
			}
			continue
		}

		log.Printf("dispatcher: connected to %s", d.addr)
		attempt = 0
		d.setSink(&netSink{conn: conn})
		d.readUntilClosed(ctx, conn)
		d.setSink(nil)

		if ctx.Err() != nil {
			return
		}
		wait := jitter(baseReconnectDelay)
		log.Printf("dispatcher: connection to %s lost; reconnecting in %s", d.addr, wait.Round(time.Millisecond))
		if sleepCtx(ctx, wait) != nil {
			return
		}
	}
}

// readUntilClosed blocks until the connection closes or ctx is canceled,
// discarding any bytes the mixer sends back.
func (d *Dispatcher) readUntilClosed(ctx context.Context, conn net.Conn) {
	done := make(chan struct{})
	go func() {
		defer close(done)
		r := bufio.NewReader(conn)
		buf := make([]byte, 4096)
		for {
			if _, err := r.Read(buf); err != nil {
				return
			}
		}
	}()
	select {
	case <-ctx.Done():
		conn.Close()
		<-done
	case <-done:
		conn.Close()
	}
}

func (d *Dispatcher) setSink(s Sink) {
	d.mu.Lock()
	d.sink = s
	d.mu.Unlock()
}

// SetSink injects a Sink directly, bypassing Run/Dial. Used by tests.
func (d *Dispatcher) SetSink(s Sink) {
	d.setSink(s)
}

// Reconnects returns the number of dial failures observed so far.
func (d *Dispatcher) Reconnects() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.reconnects
}

// Connected reports whether a live sink is currently attached.
func (d *Dispatcher) Connected() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.sink != nil
}

// Apply formats packets into an APPLY command line and writes it to the
// current sink. If no sink is attached, the write is dropped silently; the
// next scheduler tick will retry on the next state change.
func (d *Dispatcher) Apply(packets [][]byte) error {
	d.mu.Lock()
	sink := d.sink
	d.mu.Unlock()
	if sink == nil {
		return nil
	}
	return sink.WriteLine(formatApply(d.channelLayer, packets))
}

// formatApply builds the "APPLY <channelLayer> OP47 <pkt1_b64>[ <pkt2_b64>...]" line.
func formatApply(channelLayer string, packets [][]byte) string {
	encoded := make([]string, len(packets))
	for i, p := range packets {
		encoded[i] = base64.StdEncoding.EncodeToString(p)
	}
	return fmt.Sprintf("APPLY %s OP47 %s", channelLayer, strings.Join(encoded, " "))
}

func backoffFor(attempt int) time.Duration {
	d := baseReconnectDelay * time.Duration(1<<uint(min(attempt, 5)))
	if d > 60*time.Second {
		return 60 * time.Second
	}
	return d
}

func min(a, b int) int {
	if a < b {
		return a
	}
	return b
}

// jitter adds +/-25% random jitter to d, matching the teacher's httpclient
// retry spread so many dispatchers reconnecting to the same mixer after a
// shared outage do not reconnect in lock-step.
func jitter(d time.Duration) time.Duration {
	if d <= 0 {
		return 0
	}
	frac := float64(d) * 0.25
	delta := time.Duration(rand.Int63n(int64(frac*2+1))) - time.Duration(frac)
	result := d + delta
	if result < 0 {
		return 0
	}
	return result
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(d):
		return nil
	}
}
