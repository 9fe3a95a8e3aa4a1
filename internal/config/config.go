// Package config loads process configuration from the environment.
package config

import (
	"os"
	"strconv"
	"strings"
)

// Config holds every OP47_* setting recognized by the titling daemon.
type Config struct {
	Magazine int  // 0..7; wire value 0 is decoder-interpreted as magazine 8
	Page     byte // 0x00..0xFF

	StartRow            int
	DiacriticsEncoding  string // "latin2" | "x26"
	CaronEncoding       string // "compose" | "g2"
	CaronDiacriticIndex int    // 1..15
	G2Variant           string // "default" | "alt1" | "alt2" | "iso88592"

	LineWidth int
	MaxLines  int

	DownstreamAddr string // host:port of the video mixer
	HTTPAddr       string

	AuditDBPath string // empty disables the audit log

	TimecodeStrictMatch bool
}

// Load reads Config from the process environment. Call LoadEnvFile(".env")
// before Load to seed the environment from a .env-style file.
func Load() *Config {
	c := &Config{
		Magazine:            getEnvInt("OP47_MAGAZINE", 0),
		Page:                byte(getEnvInt("OP47_PAGE", 0x01)),
		StartRow:            getEnvInt("OP47_START_ROW", 19),
		DiacriticsEncoding:  getEnv("OP47_DIACRITICS_ENCODING", "x26"),
		CaronEncoding:       getEnv("OP47_CARON_ENCODING", "compose"),
		CaronDiacriticIndex: getEnvInt("OP47_CARON_DIACRITIC_INDEX", 15),
		G2Variant:           getEnv("OP47_G2_VARIANT", "default"),
		LineWidth:           getEnvInt("OP47_LINE_WIDTH", 38),
		MaxLines:            getEnvInt("OP47_MAX_LINES", 2),
		DownstreamAddr:      os.Getenv("OP47_DOWNSTREAM_ADDR"),
		HTTPAddr:            getEnv("OP47_HTTP_ADDR", ":8047"),
		AuditDBPath:         "./op47-dispatch.db",
		TimecodeStrictMatch: getEnvBool("OP47_TIMECODE_STRICT_MATCH", false),
	}
	if v, ok := os.LookupEnv("OP47_AUDIT_DB_PATH"); ok {
		c.AuditDBPath = v
	}
	if c.CaronDiacriticIndex < 1 || c.CaronDiacriticIndex > 15 {
		c.CaronDiacriticIndex = 15
	}
	if c.LineWidth <= 0 {
		c.LineWidth = 38
	}
	if c.MaxLines <= 0 {
		c.MaxLines = 2
	}
	return c
}

func getEnv(key, defaultVal string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultVal
}

func getEnvInt(key string, defaultVal int) int {
	if v := os.Getenv(key); v != "" {
		n, err := strconv.Atoi(v)
		if err == nil {
			return n
		}
	}
	return defaultVal
}

func getEnvBool(key string, defaultVal bool) bool {
	if v := os.Getenv(key); v != "" {
		return v == "1" || strings.EqualFold(v, "true") || strings.EqualFold(v, "yes")
	}
	return defaultVal
}
