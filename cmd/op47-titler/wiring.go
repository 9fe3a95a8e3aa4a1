package main

import (
	"strings"
	"time"

	"github.com/wst-titler/op47/internal/config"
	"github.com/wst-titler/op47/internal/dispatcher"
	"github.com/wst-titler/op47/internal/metrics"
	"github.com/wst-titler/op47/internal/wst"
	"github.com/wst-titler/op47/internal/x26"
)

// wstConfig translates the environment-driven config.Config into the
// wst.Config the encoder needs.
func wstConfig(c *config.Config) wst.Config {
	mode := wst.X26
	if strings.EqualFold(c.DiacriticsEncoding, "latin2") {
		mode = wst.Latin2
	}

	caron := x26.CaronCompose
	if strings.EqualFold(c.CaronEncoding, "g2") {
		caron = x26.CaronG2
	}

	variant := x26.G2Default
	switch strings.ToLower(c.G2Variant) {
	case "alt1":
		variant = x26.G2Alt1
	case "alt2":
		variant = x26.G2Alt2
	case "iso88592":
		variant = x26.G2ISO88592
	}

	return wst.Config{
		Magazine:       c.Magazine,
		Page:           c.Page,
		StartRow:       c.StartRow,
		DiacriticsMode: mode,
		X26: x26.Config{
			CaronEncoding:       caron,
			CaronDiacriticIndex: c.CaronDiacriticIndex,
			G2Variant:           variant,
		},
	}
}

// wstDispatcher adapts a *dispatcher.Dispatcher plus a wst.Config into the
// scheduler.Dispatcher interface (Show/Clear over display lines), encoding
// each call into an OP-47 packet set before handing it to the transport.
type wstDispatcher struct {
	cfg    wst.Config
	sender *dispatcher.Dispatcher
}

func newWSTDispatcher(cfg wst.Config, sender *dispatcher.Dispatcher) *wstDispatcher {
	return &wstDispatcher{cfg: cfg, sender: sender}
}

func (d *wstDispatcher) Show(lines []string) error {
	start := time.Now()
	packets := wst.EncodeSubtitle(d.cfg, lines)
	metrics.EncodeDuration.Observe(time.Since(start).Seconds())
	metrics.SegmentsDispatched.WithLabelValues("show").Inc()
	return d.sender.Apply(packets)
}

func (d *wstDispatcher) Clear() error {
	packets := wst.EncodeSubtitle(d.cfg, nil)
	metrics.SegmentsDispatched.WithLabelValues("clear").Inc()
	return d.sender.Apply(packets)
}
