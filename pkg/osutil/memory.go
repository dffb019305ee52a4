package osutil

import (
	"os"
	"strconv"
	"strings"

	"github.com/pbnjay/memory"
)

const (
	// This is the default value for cgroup's limit_in_bytes. This is not a
	// valid value and indicates that the memory is not restricted.
	// See https://unix.stackexchange.com/questions/420906/what-is-the-value-for-the-cgroups-limit-in-bytes-if-the-memory-is-not-restricted
	unrestrictedMemoryLimit = 9223372036854771712
)

var (
	cgroupV1MemoryLimitLocation = "/sys/fs/cgroup/memory/memory.limit_in_bytes"
	cgroupV2MemoryLimitLocation = "/sys/fs/cgroup/memory.max"
)

// GetTotalMemory returns the total available memory size. The call is
// container-aware.
func GetTotalMemory() uint64 {
	totalMemory := memory.TotalMemory()

	for _, location := range []string{cgroupV2MemoryLimitLocation, cgroupV1MemoryLimitLocation} {
		if limit, ok := readMemoryLimit(location); ok && limit < totalMemory {
			return limit
		}
	}
	return totalMemory
}

// readMemoryLimit parses a cgroup memory limit file. Unrestricted limits,
// written as "max" in v2, are reported as absent.
func readMemoryLimit(location string) (uint64, bool) {
	raw, err := os.ReadFile(location)
	if err != nil {
		return 0, false
	}

	value := strings.TrimSpace(string(raw))
	if value == "max" {
		return 0, false
	}

	limit, err := strconv.ParseUint(value, 10, 64)
	if err != nil || limit == 0 || limit == unrestrictedMemoryLimit {
		return 0, false
	}
	return limit, true
}
