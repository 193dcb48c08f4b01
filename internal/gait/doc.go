// Package gait holds the shared types for gait event extraction from
// wearable-sensor recordings: the immutable SensorSeries input, the detected
// EventIndexSet output and the typed errors returned by the detector.
//
// The algorithm itself lives in the subpackages:
//
//	wavelet    continuous wavelet transform (complex Morlet)
//	peaks      local maxima with prominence filtering
//	detect     the heel-strike / toe-off detector
//	intervals  stance, swing and stride durations from event indices
//	stats      cross-modality correlation and sample-size estimation
//	ingest     CSV loading and per-subject bundles
//	pipeline   batch processing over subjects
//	report     text, PNG and HTML output
package gait
