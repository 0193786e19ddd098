package runner

import "runtime"

var (
	// ab crashes with more than 50 concurrent connections on some platforms
	SafeLevels    = []int{10, 20, 30, 40, 50}
	DefaultLevels = []int{25, 50, 100, 200, 400}

	DefaultSizes = []int{1, 10, 50, 100, 100000, 100000000}
)

const (
	DefaultRequests        = 1000
	DefaultSizeConcurrency = 50
	DefaultSizePath        = "/sizer?size={{.Size}}"
)

// LimitsConcurrency reports whether goos is known to destabilize ab above
// about 50 connections.
func LimitsConcurrency(goos string) bool {
	return goos == "windows"
}

// LevelsFor returns the default concurrency levels for goos. An empty goos
// means the running platform.
func LevelsFor(goos string) []int {
	if goos == "" {
		goos = runtime.GOOS
	}
	if LimitsConcurrency(goos) {
		return append([]int(nil), SafeLevels...)
	}
	return append([]int(nil), DefaultLevels...)
}

// DefaultConfig is the standard chart plan for the running platform.
// Tool, host and port are left for the caller.
func DefaultConfig() Config {
	return Config{
		Requests:        DefaultRequests,
		Levels:          LevelsFor(""),
		Sizes:           append([]int(nil), DefaultSizes...),
		SizeConcurrency: DefaultSizeConcurrency,
		SizePath:        DefaultSizePath,
	}
}
