//go:build !unix

package vecfleet

import "time"

// processCPUTime is unavailable on this platform; CPU usage reports 0.
func processCPUTime() time.Duration {
	return 0
}
