package config

import (
	"fmt"
	"strconv"
	"strings"
)

// rateUnits is matched against the upper-cased input, longest suffix
// first so "KIB" is not read as "B".
var rateUnits = []struct {
	suffix string
	bytes  float64
}{
	{"GIB", 1 << 30},
	{"MIB", 1 << 20},
	{"KIB", 1 << 10},
	{"GB", 1e9},
	{"MB", 1e6},
	{"KB", 1e3},
	{"B", 1},
}

// ParseRate converts a transfer rate such as "5MB/s", "512KiB" or "0" to
// bytes per second. The "/s" is optional; a bare number is bytes. Empty
// and "0" mean unlimited and return 0.
func ParseRate(s string) (int64, error) {
	num := strings.ToUpper(strings.TrimSpace(s))
	num, _ = strings.CutSuffix(num, "/S")
	num = strings.TrimSpace(num)

	if num == "" || num == "0" {
		return 0, nil
	}

	scale := 1.0

	for _, u := range rateUnits {
		if rest, ok := strings.CutSuffix(num, u.suffix); ok {
			num, scale = strings.TrimSpace(rest), u.bytes
			break
		}
	}

	v, err := strconv.ParseFloat(num, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid rate %q: %w", s, err)
	}

	if v < 0 {
		return 0, fmt.Errorf("invalid rate %q: must be non-negative", s)
	}

	return int64(v * scale), nil
}

// BandwidthBytes is the parsed bandwidth limit in bytes per second, 0 for
// unlimited. Call only on a validated config.
func (n NetworkConfig) BandwidthBytes() int64 {
	v, err := ParseRate(n.BandwidthLimit)
	if err != nil {
		return 0
	}

	return v
}
