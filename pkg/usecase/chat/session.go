// Package chat implements the query pipeline: embed the query, retrieve the
// nearest documents, compose the prompt, and generate the reply.
package chat

import (
	"context"
	"io"
	"strings"
	"sync/atomic"

	"github.com/m-mizutani/goerr/v2"

	"staffrag/pkg/adapter"
	"staffrag/pkg/model"
	"staffrag/pkg/utils/logging"
	"staffrag/pkg/vectorindex"
)

// DefaultTopK is the default retrieval count. Against a corpus of tens of
// records it degenerates to "return everything ranked", which matches the
// intended behavior; the index clamps it either way.
const DefaultTopK = 30

// Phase is the pipeline stage of the query currently in flight.
type Phase int32

const (
	PhaseIdle Phase = iota
	PhaseEmbedding
	PhaseRetrieving
	PhaseComposing
	PhaseGenerating
)

func (p Phase) String() string {
	switch p {
	case PhaseIdle:
		return "idle"
	case PhaseEmbedding:
		return "embedding"
	case PhaseRetrieving:
		return "retrieving"
	case PhaseComposing:
		return "composing"
	case PhaseGenerating:
		return "generating"
	default:
		return "unknown"
	}
}

// Session owns all per-conversation state: the corpus, the built index, and
// the bounded history. It admits one query at a time; concurrent queries
// against the same session are rejected rather than interleaved.
type Session struct {
	id     model.SessionID
	ollama adapter.Ollama
	index  *vectorindex.Index
	docs   []model.Document

	history      *History
	systemPrompt string
	topK         int

	inFlight atomic.Bool
	phase    atomic.Int32
}

// Config holds the tunable parts of a session.
type Config struct {
	SystemPrompt    string // defaults to DefaultSystemPrompt
	TopK            int    // defaults to DefaultTopK
	MaxHistoryTurns int    // defaults to DefaultMaxTurns
}

// New creates a session over an already built index. docs and the index rows
// must be parallel: the index returns document positions.
func New(ollama adapter.Ollama, docs []model.Document, index *vectorindex.Index, cfg Config) *Session {
	if cfg.SystemPrompt == "" {
		cfg.SystemPrompt = DefaultSystemPrompt
	}
	if cfg.TopK <= 0 {
		cfg.TopK = DefaultTopK
	}

	return &Session{
		id:           model.NewSessionID(),
		ollama:       ollama,
		index:        index,
		docs:         docs,
		history:      NewHistory(cfg.MaxHistoryTurns),
		systemPrompt: cfg.SystemPrompt,
		topK:         cfg.TopK,
	}
}

// BuildIndex embeds the whole corpus and builds the vector index. An empty
// corpus yields an empty index, which degrades every later query to a
// "no documents" reply instead of failing startup.
func BuildIndex(ctx context.Context, ollama adapter.Ollama, docs []model.Document) (*vectorindex.Index, error) {
	index := vectorindex.New()
	if len(docs) == 0 {
		return index, nil
	}

	texts := make([]string, len(docs))
	for i, doc := range docs {
		texts[i] = doc.Text
	}

	vectors, err := ollama.EmbedBatch(ctx, texts)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to embed corpus")
	}
	if err := index.Build(vectors); err != nil {
		return nil, goerr.Wrap(err, "failed to build vector index")
	}

	logging.From(ctx).Info("vector index built",
		"documents", index.Len(),
		"dimension", index.Dimension())
	return index, nil
}

// ID returns the session identity.
func (s *Session) ID() model.SessionID {
	return s.id
}

// Phase reports the stage of the query currently in flight, or PhaseIdle.
func (s *Session) Phase() Phase {
	return Phase(s.phase.Load())
}

// Recent returns the last n completed turns in chronological order.
func (s *Session) Recent(n int) []model.Turn {
	return s.history.Recent(n)
}

// Retrieve embeds the query and returns the nearest documents, ranked by
// ascending distance.
func (s *Session) Retrieve(ctx context.Context, query string) ([]model.Retrieval, error) {
	if s.index.Len() == 0 {
		return nil, goerr.New("no documents are indexed", goerr.T(model.ErrIndexNotBuilt))
	}

	vec, err := s.ollama.Embed(ctx, query)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to embed query")
	}

	hits, err := s.index.Search(vec, s.topK)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to search index")
	}

	retrievals := make([]model.Retrieval, len(hits))
	for i, hit := range hits {
		retrievals[i] = model.Retrieval{Document: s.docs[hit.Index], Distance: hit.Distance}
	}
	return retrievals, nil
}

// Ask runs the full pipeline and blocks until the reply is complete. The
// turn is recorded in history only when the pipeline completes; a failed
// query leaves the conversation untouched.
func (s *Session) Ask(ctx context.Context, query string) (string, error) {
	return s.run(ctx, query, nil)
}

// AskStream runs the full pipeline, delivering token fragments to onToken in
// generation order as they arrive, and returns the accumulated reply.
func (s *Session) AskStream(ctx context.Context, query string, onToken func(token string)) (string, error) {
	return s.run(ctx, query, onToken)
}

// Answer is the presentation-facing variant of Ask: every failure is
// converted into a plain-text diagnostic returned as if it were a reply, so
// a per-query failure never escapes to the caller as an error.
func (s *Session) Answer(ctx context.Context, query string) string {
	reply, err := s.Ask(ctx, query)
	if err != nil {
		logging.From(ctx).Warn("query failed", "session", string(s.id), "error", err)
		return Diagnostic(err)
	}
	return reply
}

// AnswerStream is the presentation-facing variant of AskStream. The
// diagnostic for a failed query is returned but not delivered to onToken.
func (s *Session) AnswerStream(ctx context.Context, query string, onToken func(token string)) string {
	reply, err := s.AskStream(ctx, query, onToken)
	if err != nil {
		logging.From(ctx).Warn("query failed", "session", string(s.id), "error", err)
		return Diagnostic(err)
	}
	return reply
}

func (s *Session) run(ctx context.Context, query string, onToken func(string)) (string, error) {
	if !s.inFlight.CompareAndSwap(false, true) {
		return "", goerr.New("another query is already in flight", goerr.V("session", s.id))
	}
	defer func() {
		s.phase.Store(int32(PhaseIdle))
		s.inFlight.Store(false)
	}()

	logger := logging.From(ctx).With("session", string(s.id))

	if s.index.Len() == 0 {
		return "", goerr.New("no documents are indexed", goerr.T(model.ErrIndexNotBuilt))
	}

	s.phase.Store(int32(PhaseEmbedding))
	vec, err := s.ollama.Embed(ctx, query)
	if err != nil {
		return "", goerr.Wrap(err, "failed to embed query")
	}

	s.phase.Store(int32(PhaseRetrieving))
	hits, err := s.index.Search(vec, s.topK)
	if err != nil {
		return "", goerr.Wrap(err, "failed to search index")
	}
	logger.Debug("documents retrieved", "hits", len(hits))

	s.phase.Store(int32(PhaseComposing))
	docs := make([]string, len(hits))
	for i, hit := range hits {
		docs[i] = s.docs[hit.Index].Text
	}
	prompt := buildPrompt(s.systemPrompt, s.history.Recent(s.history.maxTurns), docs, query)

	s.phase.Store(int32(PhaseGenerating))
	var reply string
	if onToken == nil {
		reply, err = s.ollama.Generate(ctx, prompt)
		if err != nil {
			return "", goerr.Wrap(err, "failed to generate reply")
		}
	} else {
		reply, err = s.generateStream(ctx, prompt, onToken)
		if err != nil {
			return "", err
		}
	}

	reply = strings.TrimSpace(reply)
	s.history.Append(query, reply)
	logger.Debug("query completed", "turns", s.history.Len())
	return reply, nil
}

func (s *Session) generateStream(ctx context.Context, prompt string, onToken func(string)) (string, error) {
	stream, err := s.ollama.GenerateStream(ctx, prompt)
	if err != nil {
		return "", goerr.Wrap(err, "failed to start generation stream")
	}
	defer stream.Close()

	var b strings.Builder
	for {
		token, err := stream.Recv()
		if err == io.EOF {
			break
		}
		if err != nil {
			return "", goerr.Wrap(err, "failed to receive token")
		}
		onToken(token)
		b.WriteString(token)
	}
	return b.String(), nil
}

// Diagnostic converts a pipeline error into the message shown to the user.
func Diagnostic(err error) string {
	switch {
	case goerr.HasTag(err, model.ErrIndexNotBuilt):
		return "No documents are loaded, so there is nothing to search."
	case goerr.HasTag(err, model.ErrCorpusUnavailable):
		return "The document corpus could not be read."
	case goerr.HasTag(err, model.ErrGenerationUnavailable):
		return "Cannot connect to the generation service. Is Ollama running?"
	case goerr.HasTag(err, model.ErrGenerationTimeout):
		return "The request to the generation service timed out. Please try again."
	default:
		return "Something went wrong while answering: " + err.Error()
	}
}
