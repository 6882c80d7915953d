// Package pipeline defines the capability set every encode pipeline variant
// implements and the selection of a variant from a resolved configuration.
package pipeline

import (
	"io"

	"github.com/smazurov/encodenode/internal/resolver"
)

// Status is the outcome of a pipeline operation.
type Status int

const (
	StatusSuccess Status = iota
	StatusDeviceLost
	StatusDeviceFailed
	StatusOtherFailure
)

func (s Status) String() string {
	switch s {
	case StatusSuccess:
		return "success"
	case StatusDeviceLost:
		return "device_lost"
	case StatusDeviceFailed:
		return "device_failed"
	default:
		return "failure"
	}
}

// Recoverable reports whether the supervisor resets and retries on s.
func (s Status) Recoverable() bool {
	return s == StatusDeviceLost || s == StatusDeviceFailed
}

// Pipeline is one concrete encode pipeline. Construction must not touch
// hardware; that happens in Init.
type Pipeline interface {
	SetMultiView()
	SetNumViews(n int)
	Init(cfg resolver.Config) Status
	// Run processes input until completion or failure.
	Run() Status
	ResetDevice() Status
	ResetComponents(cfg resolver.Config) Status
	Close()
	PrintInfo(w io.Writer)
	CaptureStart() Status
	CaptureStop()
}
