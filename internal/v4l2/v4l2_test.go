package v4l2

import (
	"path/filepath"
	"runtime"
	"testing"
)

func TestFourCC(t *testing.T) {
	tests := []struct {
		code uint32
		want string
	}{
		{0x56595559, "YUYV"},
		{0x59565955, "UYVY"},
		{0x3231564e, "NV12"},
		{0x47504a4d, "MJPG"},
	}
	for _, tt := range tests {
		if got := FourCC(tt.code); got != tt.want {
			t.Errorf("FourCC(%#x) = %q, want %q", tt.code, got, tt.want)
		}
	}
}

func TestCstr(t *testing.T) {
	if got := cstr([]byte{'u', 'v', 'c', 0, 'x'}); got != "uvc" {
		t.Errorf("cstr() = %q, want uvc", got)
	}
	if got := cstr([]byte("full")); got != "full" {
		t.Errorf("cstr() without terminator = %q", got)
	}
}

func TestQueryNonDevice(t *testing.T) {
	if runtime.GOOS != "linux" {
		t.Skip("V4L2 is Linux only")
	}
	if _, err := Query("/dev/null"); err == nil {
		t.Error("Query(/dev/null) should fail")
	}
	if _, err := Query(filepath.Join(t.TempDir(), "video0")); err == nil {
		t.Error("Query() on a missing node should fail")
	}
	if _, err := Formats("/dev/null"); err == nil {
		t.Error("Formats(/dev/null) should fail")
	}
}
