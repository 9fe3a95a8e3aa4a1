package timesource

import (
	"context"
	"net"
	"testing"
	"time"
)

func TestAutonomousClockAdvancesWithRealTime(t *testing.T) {
	c := NewAutonomousClock(10.0)
	t0, ok := c.GetTime()
	if !ok {
		t.Fatal("expected autonomous clock to always have a reading")
	}
	if t0 < 10.0 || t0 > 10.2 {
		t.Fatalf("initial time = %v, want close to 10.0", t0)
	}
	time.Sleep(150 * time.Millisecond)
	t1, _ := c.GetTime()
	if t1 <= t0 {
		t.Fatalf("expected time to advance, got t0=%v t1=%v", t0, t1)
	}
}

func TestAutonomousClockResetRebasesOrigin(t *testing.T) {
	c := NewAutonomousClock(0)
	c.Reset(100.0)
	t0, _ := c.GetTime()
	if t0 < 100.0 || t0 > 100.2 {
		t.Fatalf("time after reset = %v, want close to 100.0", t0)
	}
}

func TestExternalClockNoReadingUntilIngested(t *testing.T) {
	c := NewExternalClock("mixer1/time", false)
	if _, ok := c.GetTime(); ok {
		t.Fatal("expected no reading before any Ingest call")
	}
}

func TestExternalClockLenientMatchAcceptsAnyTimeSuffix(t *testing.T) {
	c := NewExternalClock("mixer1/time", false)
	if !c.Ingest("anything/time", 5.0) {
		t.Fatal("expected lenient match to accept any /time suffix")
	}
	v, ok := c.GetTime()
	if !ok || v != 5.0 {
		t.Fatalf("GetTime() = (%v, %v), want (5.0, true)", v, ok)
	}
}

func TestExternalClockStrictMatchRequiresExactAddress(t *testing.T) {
	c := NewExternalClock("mixer1/time", true)
	if c.Ingest("mixer2/time", 5.0) {
		t.Fatal("strict match should reject a non-matching address")
	}
	if _, ok := c.GetTime(); ok {
		t.Fatal("no reading should have been accepted")
	}
	if !c.Ingest("mixer1/time", 7.0) {
		t.Fatal("strict match should accept the exact configured address")
	}
	v, _ := c.GetTime()
	if v != 7.0 {
		t.Fatalf("GetTime() = %v, want 7.0", v)
	}
}

func TestListenUDPFeedsExternalClock(t *testing.T) {
	addr := pickFreeUDPAddr(t)
	clock := NewExternalClock("mixer1/time", false)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	errCh := make(chan error, 1)
	go func() { errCh <- ListenUDP(ctx, addr, clock) }()
	time.Sleep(50 * time.Millisecond) // let the listener bind

	conn, err := net.Dial("udp", addr)
	if err != nil {
		t.Fatalf("dial udp: %v", err)
	}
	defer conn.Close()
	if _, err := conn.Write([]byte("mixer1/time 12.5")); err != nil {
		t.Fatalf("write udp: %v", err)
	}

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if v, ok := clock.GetTime(); ok {
			if v != 12.5 {
				t.Fatalf("GetTime() = %v, want 12.5", v)
			}
			cancel()
			<-errCh
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatal("timed out waiting for ingested reading")
}

func pickFreeUDPAddr(t *testing.T) string {
	t.Helper()
	pc, err := net.ListenPacket("udp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("find free udp port: %v", err)
	}
	addr := pc.LocalAddr().String()
	pc.Close()
	return addr
}
