// Package device probes host capability once at startup so the answering
// pipeline can decide whether the model's reasoning mode is affordable.
package device

import (
	"bufio"
	"os"
	"strconv"
	"strings"
)

// Tier classifies the host for adaptive model behaviour.
type Tier string

const (
	// TierFull runs generation with the reasoning trace enabled.
	TierFull Tier = "full"
	// TierLite runs generation with reasoning disabled.
	TierLite Tier = "lite"
	// TierBlocked cannot run local generation at all.
	TierBlocked Tier = "blocked"
)

// Info is the capability probe result, computed once and threaded through
// as configuration.
type Info struct {
	Tier            Tier
	RAMGB           int
	ThinkingEnabled bool
}

// Detect probes the host and classifies it. On platforms where total RAM
// cannot be read the host is assumed capable, matching the original
// behaviour of trusting a device that passed the environment check.
func Detect() Info {
	return classify(totalRAMGB())
}

func classify(ramGB int) Info {
	switch {
	case ramGB > 0 && ramGB < 8:
		return Info{Tier: TierBlocked, RAMGB: ramGB}
	case ramGB > 0 && ramGB < 16:
		return Info{Tier: TierLite, RAMGB: ramGB}
	default:
		return Info{Tier: TierFull, RAMGB: ramGB, ThinkingEnabled: true}
	}
}

// totalRAMGB reads total memory from /proc/meminfo. Returns 0 when the
// file is unavailable (non-Linux hosts).
func totalRAMGB() int {
	f, err := os.Open("/proc/meminfo")
	if err != nil {
		return 0
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := scanner.Text()
		if !strings.HasPrefix(line, "MemTotal:") {
			continue
		}
		fields := strings.Fields(line)
		if len(fields) < 2 {
			return 0
		}
		kb, err := strconv.ParseInt(fields[1], 10, 64)
		if err != nil {
			return 0
		}
		return int(kb / (1024 * 1024))
	}
	return 0
}
