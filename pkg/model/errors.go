package model

import "github.com/m-mizutani/goerr/v2"

// Error tags classify pipeline failures so that the orchestrator can turn
// them into user-displayable diagnostics without string matching.
var (
	// ErrCorpusUnavailable marks an unreadable corpus source.
	ErrCorpusUnavailable = goerr.NewTag("corpus_unavailable")

	// ErrIndexNotBuilt marks a search against an empty or unbuilt index.
	ErrIndexNotBuilt = goerr.NewTag("index_not_built")

	// ErrGenerationUnavailable marks an unreachable generation service.
	ErrGenerationUnavailable = goerr.NewTag("generation_unavailable")

	// ErrGenerationTimeout marks a generation request that exceeded its deadline.
	ErrGenerationTimeout = goerr.NewTag("generation_timeout")

	// ErrGeneration marks any other generation service failure.
	ErrGeneration = goerr.NewTag("generation_error")
)
