package pipeline

import (
	"context"
	"path/filepath"

	"go.uber.org/zap"

	"mp3player/internal/app/errors"
	"mp3player/internal/app/marker"
	"mp3player/internal/app/model"
	"mp3player/internal/app/segment"
)

// SegmentOutcome is the result for one segment of a file.
type SegmentOutcome struct {
	Index   int
	Start   float64
	End     float64
	Text    string
	Skipped bool
	Err     error
}

// SegmentsResult summarizes a per-segment transcription run.
type SegmentsResult struct {
	Transcribed int
	Skipped     int
	Failed      int
	Outcomes    []SegmentOutcome
	Segments    []segment.Segment
}

// TranscribeSegments transcribes each marker-delimited segment of
// audioPath, fills segment contents, and saves the updated sidecar.
// Segments that already have content are skipped unless opts.Force.
func (p *Pipeline) TranscribeSegments(ctx context.Context, audioPath string, store *marker.Store, opts Options) (*SegmentsResult, error) {
	if !store.Exists(audioPath) {
		return nil, errors.Wrapf(errors.ErrMarkerNotFound, "no marker sidecar for %s", audioPath)
	}

	mgr, err := store.LoadManager(audioPath, 0)
	if err != nil {
		return nil, err
	}

	segments := segment.FromMarkers(mgr.Markers())
	if len(segments) == 0 {
		return nil, errors.Wrapf(errors.ErrSegmentNotFound, "no segments in %s", audioPath)
	}

	pm := NewProgressManager(ProgressConfig{
		Enabled: opts.ShowProgress && len(segments) > 1,
		Writer:  opts.ProgressOut,
	})
	bar := pm.CreateBar(len(segments), "Transcribing segments")
	defer pm.Wait()

	result := &SegmentsResult{}
	fileName := filepath.Base(audioPath)

	// Segments run sequentially: each one extracts a temp WAV from the
	// same source file, and order keeps the sidecar deterministic.
	for i := range segments {
		s := &segments[i]
		outcome := SegmentOutcome{Index: s.Index, Start: s.Start, End: s.End}

		if err := ctx.Err(); err != nil {
			outcome.Err = err
			result.Failed++
			result.Outcomes = append(result.Outcomes, outcome)
			bar.Increment()
			continue
		}

		if s.Content != "" && !opts.Force {
			outcome.Text = s.Content
			outcome.Skipped = true
			result.Skipped++
			result.Outcomes = append(result.Outcomes, outcome)
			bar.Increment()
			continue
		}

		text, err := p.transcriber.TranscriptSegment(audioPath, s.Start, s.End)
		if err != nil {
			p.log.Warn("segment transcription failed",
				zap.String("file", fileName),
				zap.Int("segment", s.Index),
				zap.Error(err))
			outcome.Err = err
			result.Failed++
			result.Outcomes = append(result.Outcomes, outcome)
			bar.Increment()
			continue
		}

		s.Content = text
		outcome.Text = text
		result.Transcribed++
		result.Outcomes = append(result.Outcomes, outcome)

		if p.db != nil {
			p.recordSegment(ctx, fileName, audioPath, s)
		}
		bar.Increment()
	}
	bar.Complete()

	segment.SyncToMarkers(segments, mgr)
	if err := store.Save(audioPath, mgr); err != nil {
		return result, errors.Wrap(err, "save marker sidecar")
	}

	result.Segments = segments
	return result, nil
}

func (p *Pipeline) recordSegment(ctx context.Context, fileName, path string, s *segment.Segment) {
	_, err := p.db.Record(ctx, &model.Transcript{
		FileName:      fileName,
		FilePath:      path,
		AudioDuration: s.Duration(),
		SegmentStart:  s.Start,
		SegmentEnd:    s.End,
		Text:          s.Content,
	})
	if err != nil {
		p.log.Warn("failed to record segment transcript",
			zap.String("file", fileName),
			zap.Int("segment", s.Index),
			zap.Error(err))
	}
}
