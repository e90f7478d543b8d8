package adapter

import (
	"bufio"
	"encoding/json"
	"io"

	"github.com/m-mizutani/goerr/v2"

	"staffrag/pkg/model"
)

// TokenStream is a lazy, finite, non-restartable sequence of generated text
// fragments, decoded from Ollama's newline-delimited JSON stream. It is not
// safe for concurrent use.
type TokenStream struct {
	body    io.ReadCloser
	scanner *bufio.Scanner
	done    bool
}

// NewTokenStream wraps a newline-delimited JSON body in a TokenStream. The
// stream takes ownership of body and closes it when exhausted.
func NewTokenStream(body io.ReadCloser) *TokenStream {
	scanner := bufio.NewScanner(body)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	return &TokenStream{
		body:    body,
		scanner: scanner,
	}
}

// Recv returns the next token fragment. It returns io.EOF once the stream is
// exhausted, after which the underlying connection is closed.
func (s *TokenStream) Recv() (string, error) {
	if s.done {
		return "", io.EOF
	}

	for s.scanner.Scan() {
		line := s.scanner.Bytes()
		if len(line) == 0 {
			continue
		}

		var chunk generateResponse
		if err := json.Unmarshal(line, &chunk); err != nil {
			s.close()
			return "", goerr.Wrap(err, "failed to decode stream fragment", goerr.T(model.ErrGeneration))
		}

		if chunk.Done {
			s.close()
			if chunk.Response == "" {
				return "", io.EOF
			}
			return chunk.Response, nil
		}
		if chunk.Response == "" {
			continue
		}
		return chunk.Response, nil
	}

	err := s.scanner.Err()
	s.close()
	if err != nil {
		return "", goerr.Wrap(err, "failed to read generation stream", goerr.T(model.ErrGeneration))
	}
	return "", io.EOF
}

// Close releases the underlying connection. It is safe to call after Recv
// has returned io.EOF.
func (s *TokenStream) Close() error {
	s.close()
	return nil
}

func (s *TokenStream) close() {
	if !s.done {
		s.done = true
		_ = s.body.Close()
	}
}
