package api

// Transcriber converts a whole audio file to text.
type Transcriber interface {
	Transcript(inputFilePath string) (string, error)
}

// SegmentTranscriber additionally transcribes a time range of an audio
// file. Start and end are absolute positions in seconds.
type SegmentTranscriber interface {
	Transcriber
	TranscriptSegment(inputFilePath string, startSec, endSec float64) (string, error)
}
