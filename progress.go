package combustion

import "github.com/meigma/combustion/internal/convtype"

// Re-export progress types from convtype.
type (
	// ProgressEvent represents a progress update during conversion.
	ProgressEvent = convtype.ProgressEvent

	// ProgressStage identifies the current phase of a conversion.
	ProgressStage = convtype.ProgressStage

	// ProgressFunc receives progress updates during conversion.
	// It is called synchronously from the converting goroutine.
	ProgressFunc = convtype.ProgressFunc
)

// Re-export progress stage constants.
const (
	// StageLoading indicates the map and resource maps are being parsed.
	StageLoading = convtype.StageLoading

	// StageImporting indicates auxiliary tags are being merged.
	StageImporting = convtype.StageImporting

	// StageResolving indicates bitmap and sound tags are being resolved.
	StageResolving = convtype.StageResolving

	// StageEncoding indicates the converted map is being encoded.
	StageEncoding = convtype.StageEncoding
)
