// Package demo implements a synthetic frame producer for ustreamerd's
// demo mode (USTREAMERD_DEMO): a ticker publishes a JPEG into a
// source.Source at a fixed rate, the same run-loop-over-a-ticker shape
// as the teacher's dirsource.Source.Run.
package demo

import (
	"context"
	"os"
	"time"

	"github.com/warpcomdev/ustreamerd/internal/frame"
	"github.com/warpcomdev/ustreamerd/internal/source"
)

// Producer feeds one fixed JPEG into a source.Source at FramesPerSecond,
// standing in for a real capture pipeline.
type Producer struct {
	src             *source.Source
	picture         []byte
	width           int
	height          int
	framesPerSecond int
}

// New builds a Producer that publishes picture (width x height) at fps.
// fps <= 0 defaults to 15, matching the teacher's fakesource default.
func New(src *source.Source, picture []byte, width, height, fps int) *Producer {
	if fps <= 0 {
		fps = 15
	}
	return &Producer{src: src, picture: picture, width: width, height: height, framesPerSecond: fps}
}

// NewFromFile loads a JPEG from disk to seed the Producer. path must
// point at a valid JPEG file; this package does not decode it, only
// republishes the raw bytes.
func NewFromFile(src *source.Source, path string, width, height, fps int) (*Producer, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return New(src, data, width, height, fps), nil
}

// NewBlank builds a Producer that republishes the bundled 1x1 blank
// JPEG, useful for smoke-testing the pipeline without any real asset.
func NewBlank(src *source.Source, fps int) *Producer {
	return New(src, frame.Blank, frame.BlankWidth, frame.BlankHeight, fps)
}

// Run publishes the frame on every tick until ctx is cancelled.
func (p *Producer) Run(ctx context.Context) {
	ticker := time.NewTicker(time.Second / time.Duration(p.framesPerSecond))
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			p.src.PublishOffline()
			return
		case <-ticker.C:
			p.src.Publish(p.picture, p.width, p.height)
		}
	}
}
