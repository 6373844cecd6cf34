package player

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"mp3player/internal/app/errors"
)

// LoopStatus reports segment playback progress to the caller's UI.
type LoopStatus struct {
	Loop     int
	Total    int
	Position float64
}

// SegmentOptions control looped playback of a time range.
type SegmentOptions struct {
	Start float64
	End   float64
	// Loops is 1..MaxLoops, or InfiniteLoops to repeat until cancelled.
	Loops int
	// Preview caps each pass at PreviewSeconds from Start.
	Preview        bool
	PreviewSeconds float64
	OnTick         func(LoopStatus)
}

func (o *SegmentOptions) validate() error {
	if o.End <= o.Start {
		return errors.InvalidField("segment", "end must be after start")
	}
	if o.Loops != InfiniteLoops && (o.Loops < 1 || o.Loops > MaxLoops) {
		return errors.OutOfRange("loops", 1, MaxLoops)
	}
	if o.PreviewSeconds <= 0 {
		o.PreviewSeconds = DefaultPreviewSeconds
	}
	return nil
}

// PlaySegment plays [Start, End) the requested number of times, seeking back
// to Start between passes, and leaves the player paused when done. The end
// check runs every UpdateInterval, so playback can overshoot End by at most
// one tick.
func (p *Player) PlaySegment(ctx context.Context, opts SegmentOptions) error {
	if err := opts.validate(); err != nil {
		return err
	}

	end := opts.End
	if opts.Preview && opts.Start+opts.PreviewSeconds < end {
		end = opts.Start + opts.PreviewSeconds
	}

	duration, err := p.Duration(ctx)
	if err != nil {
		return err
	}
	// A segment ending at the file's tail can outrun time-pos: mpv drops
	// the property once playback stops at EOF.
	nearEOF := end >= duration-EndTolerance

	p.log.Info("playing segment",
		zap.Float64("start", opts.Start),
		zap.Float64("end", end),
		zap.Int("loops", opts.Loops),
		zap.Bool("preview", opts.Preview))

	ticker := time.NewTicker(UpdateInterval)
	defer ticker.Stop()

	for loop := 1; ; loop++ {
		if err := p.Seek(ctx, opts.Start); err != nil {
			return err
		}
		if err := p.Resume(ctx); err != nil {
			return err
		}

		lastPos := opts.Start
		for reached := false; !reached; {
			select {
			case <-ctx.Done():
				_ = p.Pause(context.Background())
				return ctx.Err()
			case <-ticker.C:
			}

			pos, err := p.Position(ctx)
			if err != nil {
				if nearEOF || end-lastPos < EndTolerance {
					reached = true
					break
				}
				return err
			}
			lastPos = pos
			if opts.OnTick != nil {
				opts.OnTick(LoopStatus{Loop: loop, Total: opts.Loops, Position: pos})
			}
			reached = pos >= end
		}

		if opts.Loops != InfiniteLoops && loop >= opts.Loops {
			break
		}
	}

	return p.Pause(ctx)
}

// LoopLabel renders a loop counter such as "2/5" or "3/∞".
func LoopLabel(loop, total int) string {
	if total == InfiniteLoops {
		return fmt.Sprintf("%d/∞", loop)
	}
	return fmt.Sprintf("%d/%d", loop, total)
}
