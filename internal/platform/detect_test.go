package platform

import (
	"context"
	"runtime"
	"testing"
)

// MockDetector is a test implementation of Detector.
type MockDetector struct {
	info *Info
	err  error
}

// NewMockDetector creates a mock detector with specified return values.
func NewMockDetector(info *Info, err error) Detector {
	return &MockDetector{info: info, err: err}
}

// Detect returns the pre-configured info and error.
func (m *MockDetector) Detect(ctx context.Context) (*Info, error) {
	return m.info, m.err
}

func TestRealDetector_Detect(t *testing.T) {
	detector := NewDetector()

	info, err := detector.Detect(context.Background())
	if err != nil {
		t.Fatalf("Detect() error = %v", err)
	}

	if info.GOOS != runtime.GOOS {
		t.Errorf("GOOS = %v, want %v", info.GOOS, runtime.GOOS)
	}
	if info.GOARCH != runtime.GOARCH {
		t.Errorf("GOARCH = %v, want %v", info.GOARCH, runtime.GOARCH)
	}
	if info.OS != OSToken(runtime.GOOS) {
		t.Errorf("OS = %v, want %v", info.OS, OSToken(runtime.GOOS))
	}
	if info.Arch != ArchToken(runtime.GOARCH) {
		t.Errorf("Arch = %v, want %v", info.Arch, ArchToken(runtime.GOARCH))
	}

	if runtime.GOOS == "linux" {
		// Distro detection may fail gracefully, but a platform implies a family
		if info.Platform != "" && info.Family == "" {
			t.Error("Family should be set when Platform is set")
		}
	} else if info.Platform != "" || info.Family != "" || info.Version != "" {
		t.Errorf("distro fields should be empty on non-Linux, got %+v", info)
	}
}

func TestDetect_NonLinuxSkipsDistro(t *testing.T) {
	info, err := detect(context.Background(), "darwin", "arm64")
	if err != nil {
		t.Fatalf("detect() error = %v", err)
	}

	if info.OS != "darwin" || info.Arch != "arm64" {
		t.Errorf("got %s/%s, want darwin/arm64", info.OS, info.Arch)
	}
	if info.GetDistro() != nil {
		t.Errorf("GetDistro() = %+v, want nil", info.GetDistro())
	}
}

func TestDetect_PassesThroughUnknownValues(t *testing.T) {
	info, err := detect(context.Background(), "plan9", "sparc64")
	if err != nil {
		t.Fatalf("detect() error = %v", err)
	}

	if info.OS != "plan9" {
		t.Errorf("OS = %q, want plan9", info.OS)
	}
	if info.Arch != "sparc64" {
		t.Errorf("Arch = %q, want sparc64", info.Arch)
	}
}

func TestInfo_GetDistro(t *testing.T) {
	tests := []struct {
		name string
		info *Info
		want *Distro
	}{
		{
			name: "Linux with distro info",
			info: &Info{OS: "linux", Arch: "x64", Platform: "ubuntu", Family: "debian", Version: "22.04"},
			want: &Distro{ID: "ubuntu", Family: "debian", Version: "22.04"},
		},
		{
			name: "Linux without distro info",
			info: &Info{OS: "linux", Arch: "x64"},
			want: nil,
		},
		{
			name: "macOS",
			info: &Info{OS: "darwin", Arch: "arm64", Platform: "darwin"},
			want: nil,
		},
		{
			name: "Windows",
			info: &Info{OS: "win32", Arch: "x64"},
			want: nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tt.info.GetDistro()
			if got == nil && tt.want == nil {
				return
			}
			if got == nil || tt.want == nil {
				t.Errorf("GetDistro() = %v, want %v", got, tt.want)
				return
			}
			if *got != *tt.want {
				t.Errorf("GetDistro() = %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestInfo_BooleanMethods(t *testing.T) {
	tests := []struct {
		name   string
		info   *Info
		checks map[string]bool
	}{
		{
			name: "Linux x64 Alpine",
			info: &Info{OS: "linux", Arch: "x64", Platform: "alpine", Family: FamilyAlpine},
			checks: map[string]bool{
				"IsLinux":        true,
				"IsMacOS":        false,
				"IsWindows":      false,
				"IsX64":          true,
				"IsARM64":        false,
				"IsAppleSilicon": false,
				"IsAlpine":       true,
			},
		},
		{
			name: "macOS arm64 (Apple Silicon)",
			info: &Info{OS: "darwin", Arch: "arm64"},
			checks: map[string]bool{
				"IsLinux":        false,
				"IsMacOS":        true,
				"IsX64":          false,
				"IsARM64":        true,
				"IsAppleSilicon": true,
				"IsAlpine":       false,
			},
		},
		{
			name: "Windows x64",
			info: &Info{OS: "win32", Arch: "x64"},
			checks: map[string]bool{
				"IsWindows":      true,
				"IsLinux":        false,
				"IsX64":          true,
				"IsAppleSilicon": false,
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			methods := map[string]func() bool{
				"IsLinux":        tt.info.IsLinux,
				"IsMacOS":        tt.info.IsMacOS,
				"IsWindows":      tt.info.IsWindows,
				"IsX64":          tt.info.IsX64,
				"IsARM64":        tt.info.IsARM64,
				"IsAppleSilicon": tt.info.IsAppleSilicon,
				"IsAlpine":       tt.info.IsAlpine,
			}
			for name, want := range tt.checks {
				if got := methods[name](); got != want {
					t.Errorf("%s() = %v, want %v", name, got, want)
				}
			}
		})
	}
}

func TestMockDetector(t *testing.T) {
	want := &Info{OS: "linux", Arch: "arm64"}
	detector := NewMockDetector(want, nil)

	got, err := detector.Detect(context.Background())
	if err != nil {
		t.Fatalf("Detect() error = %v", err)
	}
	if got != want {
		t.Errorf("Detect() = %+v, want %+v", got, want)
	}
}
