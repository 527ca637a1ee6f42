package platform

import (
	"context"
	"fmt"
	"runtime"

	"github.com/shirou/gopsutil/v4/host"
)

// RealDetector implements Detector using actual platform detection.
type RealDetector struct{}

// NewDetector creates a new platform detector.
func NewDetector() Detector {
	return &RealDetector{}
}

// Detect reports the running process's OS and architecture as addon tokens
// and, on Linux, the distribution as reported by gopsutil.
//
// Detect does not reject unknown OS or architecture values; it passes them
// through so the locator can fail with a message naming them. Distribution
// detection failures are swallowed unless the context was cancelled.
func (d *RealDetector) Detect(ctx context.Context) (*Info, error) {
	return detect(ctx, runtime.GOOS, runtime.GOARCH)
}

func detect(ctx context.Context, goos, goarch string) (*Info, error) {
	info := &Info{
		OS:     OSToken(goos),
		Arch:   ArchToken(goarch),
		GOOS:   goos,
		GOARCH: goarch,
	}

	if goos != "linux" {
		return info, nil
	}

	platform, family, version, err := host.PlatformInformationWithContext(ctx)
	if err != nil {
		if ctx.Err() != nil {
			return nil, fmt.Errorf("platform detection cancelled: %w", ctx.Err())
		}
		return info, nil
	}

	platform = normalizePlatform(platform)
	if platform != "" {
		info.Platform = platform
		info.Family = mapFamily(family)
		info.Version = normalizePlatform(version)
		// gopsutil reports alpine with an empty family
		if platform == "alpine" {
			info.Family = FamilyAlpine
		}
	}

	return info, nil
}
