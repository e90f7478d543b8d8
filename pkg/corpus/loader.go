// Package corpus loads the document corpus from a flat text source.
//
// A corpus file is UTF-8 text in which records are separated by a blank
// line. Records are opaque: no field structure is parsed out of them.
package corpus

import (
	"os"
	"strings"

	"github.com/m-mizutani/goerr/v2"

	"staffrag/pkg/model"
)

// Load reads the corpus file at path and returns its documents in file
// order. An unreadable source is reported with model.ErrCorpusUnavailable;
// the caller decides whether to abort or continue with an empty corpus.
func Load(path string) ([]model.Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to read corpus file",
			goerr.V("file", path),
			goerr.T(model.ErrCorpusUnavailable))
	}
	return Parse(string(data)), nil
}

// Parse splits raw text into documents on blank-line boundaries. Each record
// is trimmed of surrounding whitespace and empty records are dropped, so the
// result contains exactly the non-empty records in their original order.
func Parse(text string) []model.Document {
	text = strings.ReplaceAll(text, "\r\n", "\n")

	var docs []model.Document
	for _, block := range strings.Split(text, "\n\n") {
		block = strings.TrimSpace(block)
		if block == "" {
			continue
		}
		docs = append(docs, model.Document{Index: len(docs), Text: block})
	}
	return docs
}
