// Package corpus reads the scraped-course CSV corpus. Each row with an https
// URL and a non-empty body becomes a Document; the raw file lines are kept for
// substring counting. Malformed rows are logged and skipped.
package corpus

import (
	"bufio"
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/Adithya-Monish-Kumar-K/edumetrics-search/internal/indexer/tokenizer"
	"github.com/Adithya-Monish-Kumar-K/edumetrics-search/internal/ingestion"
	"github.com/Adithya-Monish-Kumar-K/edumetrics-search/internal/ingestion/validator"
	apperrors "github.com/Adithya-Monish-Kumar-K/edumetrics-search/pkg/errors"
)

const (
	urlColumn  = "url"
	textColumn = "html_text"
)

// Document is one corpus entry: its URL, raw text and cleaned word tokens.
type Document struct {
	URL    string
	Text   string
	Tokens []string
}

// NewDocument tokenizes text into a Document.
func NewDocument(url, text string) Document {
	return Document{URL: url, Text: text, Tokens: tokenizer.Words(text)}
}

type Corpus struct {
	Documents []Document
	// Lines holds every non-empty raw line after the header.
	Lines   []string
	Skipped int
}

// Requests returns the documents as ingestion requests for publishing.
func (c *Corpus) Requests() []ingestion.IngestRequest {
	out := make([]ingestion.IngestRequest, len(c.Documents))
	for i, d := range c.Documents {
		out[i] = ingestion.IngestRequest{URL: d.URL, Text: d.Text}
	}
	return out
}

// LoadFile opens path and parses it with Load.
func LoadFile(path string) (*Corpus, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening corpus %s: %w: %w", path, apperrors.ErrCorpusIO, err)
	}
	defer f.Close()
	c, err := Load(f)
	if err != nil {
		return nil, fmt.Errorf("corpus %s: %w", path, err)
	}
	return c, nil
}

// Load parses a CSV corpus whose header names url and html_text columns (in
// any position and case). A later row for an already seen URL replaces the
// earlier one. Only a missing header or an unreadable stream fails the load.
func Load(r io.Reader) (*Corpus, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("reading corpus: %w: %w", apperrors.ErrCorpusIO, err)
	}
	log := slog.Default().With("component", "corpus")

	cr := csv.NewReader(bytes.NewReader(data))
	cr.LazyQuotes = true
	cr.FieldsPerRecord = -1
	cr.ReuseRecord = true

	header, err := cr.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("empty corpus: %w", apperrors.ErrCorpusIO)
		}
		return nil, fmt.Errorf("reading header: %w: %w", apperrors.ErrCorpusIO, err)
	}
	urlIdx, textIdx := -1, -1
	for i, name := range header {
		switch strings.ToLower(strings.TrimSpace(strings.TrimPrefix(name, "\ufeff"))) {
		case urlColumn:
			urlIdx = i
		case textColumn:
			textIdx = i
		}
	}
	if urlIdx < 0 || textIdx < 0 {
		return nil, fmt.Errorf("header must contain %s and %s columns: %w", urlColumn, textColumn, apperrors.ErrCorpusIO)
	}

	lines, err := rawLines(data)
	if err != nil {
		return nil, fmt.Errorf("splitting lines: %w: %w", apperrors.ErrCorpusIO, err)
	}
	c := &Corpus{Lines: lines}
	seen := make(map[string]int)
	for {
		record, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			var parseErr *csv.ParseError
			if errors.As(err, &parseErr) {
				log.Warn("skipping malformed row", "line", parseErr.StartLine, "error", err)
				c.Skipped++
				continue
			}
			return nil, fmt.Errorf("reading rows: %w: %w", apperrors.ErrCorpusIO, err)
		}
		if urlIdx >= len(record) || textIdx >= len(record) {
			c.Skipped++
			continue
		}

		req := ingestion.IngestRequest{URL: record[urlIdx], Text: record[textIdx]}
		if err := validator.ValidateIngestRequest(&req); err != nil {
			line, _ := cr.FieldPos(0)
			log.Debug("skipping row", "line", line, "reason", err)
			c.Skipped++
			continue
		}

		doc := NewDocument(req.URL, req.Text)
		if i, dup := seen[doc.URL]; dup {
			log.Warn("duplicate url, keeping latest row", "url", doc.URL)
			c.Documents[i] = doc
			continue
		}
		seen[doc.URL] = len(c.Documents)
		c.Documents = append(c.Documents, doc)
	}
	return c, nil
}

// rawLines splits data into lines, dropping the header and blank lines.
func rawLines(data []byte) ([]string, error) {
	var lines []string
	sc := bufio.NewScanner(bytes.NewReader(data))
	sc.Buffer(make([]byte, 0, 64*1024), 16<<20)
	first := true
	for sc.Scan() {
		if first {
			first = false
			continue
		}
		if line := strings.TrimSpace(sc.Text()); line != "" {
			lines = append(lines, sc.Text())
		}
	}
	return lines, sc.Err()
}
