// Package vtt extracts subtitle cues from a WebVTT document, tolerating
// malformed blocks rather than failing the whole parse. The document may be
// read from a local file path or fetched over http(s), transparently
// decompressing a brotli-encoded response body.
package vtt

import (
	"bufio"
	"fmt"
	"io"
	"net/http"
	"os"
	"regexp"
	"strconv"
	"strings"

	"github.com/andybalholm/brotli"

	"github.com/wst-titler/op47/internal/httpclient"
	"github.com/wst-titler/op47/internal/safeurl"
	"github.com/wst-titler/op47/internal/segmenter"
)

var timestampLine = regexp.MustCompile(`^(?:(\d+):)?(\d{2}):(\d{2})\.(\d{3})\s*-->\s*(?:(\d+):)?(\d{2}):(\d{2})\.(\d{3})`)

// httpClient carries httpclient.Default's overall and header timeouts, so a
// dead VTT origin cannot hang a load forever.
var httpClient = httpclient.Default()

// Load reads a WebVTT document from src, which is either a local file path or
// an http(s):// URL, and returns its extracted cues.
func Load(src string) ([]segmenter.Cue, error) {
	r, err := open(src)
	if err != nil {
		return nil, err
	}
	defer r.Close()
	return Parse(r)
}

func open(src string) (io.ReadCloser, error) {
	if safeurl.IsHTTPOrHTTPS(src) {
		return fetch(src)
	}
	f, err := os.Open(src)
	if err != nil {
		return nil, fmt.Errorf("open vtt file: %w", err)
	}
	return f, nil
}

func fetch(src string) (io.ReadCloser, error) {
	req, err := http.NewRequest(http.MethodGet, src, nil)
	if err != nil {
		return nil, fmt.Errorf("build vtt request: %w", err)
	}

	resp, err := httpclient.DoWithRetry(req.Context(), httpClient, req, httpclient.DefaultRetryPolicy)
	if err != nil {
		return nil, fmt.Errorf("fetch vtt: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		resp.Body.Close()
		return nil, fmt.Errorf("fetch vtt: unexpected status %d", resp.StatusCode)
	}

	body := resp.Body
	if strings.EqualFold(resp.Header.Get("Content-Encoding"), "br") {
		return brotliReadCloser{r: brotli.NewReader(body), underlying: body}, nil
	}
	return body, nil
}

type brotliReadCloser struct {
	r          io.Reader
	underlying io.Closer
}

func (b brotliReadCloser) Read(p []byte) (int, error) { return b.r.Read(p) }
func (b brotliReadCloser) Close() error               { return b.underlying.Close() }

// Parse extracts cues from a WebVTT document read from r. A WEBVTT header
// line and NOTE blocks are ignored; blocks with a malformed timestamp line
// are skipped rather than failing the whole parse.
func Parse(r io.Reader) ([]segmenter.Cue, error) {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	var cues []segmenter.Cue
	var block []string
	flush := func() {
		if len(block) == 0 {
			return
		}
		if cue, ok := parseBlock(block); ok {
			cues = append(cues, cue)
		}
		block = nil
	}

	first := true
	for sc.Scan() {
		line := sc.Text()
		trimmed := strings.TrimSpace(line)

		if first {
			first = false
			if strings.HasPrefix(trimmed, "WEBVTT") {
				continue
			}
		}

		if trimmed == "" {
			flush()
			continue
		}
		if strings.HasPrefix(trimmed, "NOTE") {
			flush()
			continue
		}
		block = append(block, trimmed)
	}
	flush()

	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("scan vtt: %w", err)
	}
	return cues, nil
}

// parseBlock interprets one blank-line-delimited block as a cue. A block may
// optionally begin with a cue identifier line; the first line matching
// timestampLine is the timing line, and every non-blank line after it is
// joined (whitespace-collapsed) into the cue text. Returns ok=false if no
// timestamp line is found.
func parseBlock(lines []string) (segmenter.Cue, bool) {
	idx := -1
	for i, l := range lines {
		if timestampLine.MatchString(l) {
			idx = i
			break
		}
	}
	if idx < 0 {
		return segmenter.Cue{}, false
	}

	m := timestampLine.FindStringSubmatch(lines[idx])
	start, err := parseTimestamp(m[1], m[2], m[3], m[4])
	if err != nil {
		return segmenter.Cue{}, false
	}
	end, err := parseTimestamp(m[5], m[6], m[7], m[8])
	if err != nil {
		return segmenter.Cue{}, false
	}
	if end <= start {
		return segmenter.Cue{}, false
	}

	var textParts []string
	for _, l := range lines[idx+1:] {
		textParts = append(textParts, l)
	}
	text := strings.Join(strings.Fields(strings.Join(textParts, " ")), " ")
	if text == "" {
		return segmenter.Cue{}, false
	}

	return segmenter.Cue{StartS: start, EndS: end, Text: text}, true
}

func parseTimestamp(hours, minutes, seconds, millis string) (float64, error) {
	h := 0
	if hours != "" {
		var err error
		h, err = strconv.Atoi(hours)
		if err != nil {
			return 0, err
		}
	}
	m, err := strconv.Atoi(minutes)
	if err != nil {
		return 0, err
	}
	s, err := strconv.Atoi(seconds)
	if err != nil {
		return 0, err
	}
	ms, err := strconv.Atoi(millis)
	if err != nil {
		return 0, err
	}
	return float64(h*3600+m*60+s) + float64(ms)/1000.0, nil
}
