// Package ingest turns uploaded PDF files into page-level text chunks.
package ingest

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/ledongthuc/pdf"
	"golang.org/x/sync/errgroup"

	"examenbot/internal/contextutil"
	"examenbot/internal/domain"
)

const defaultConcurrency = 4

// File is an uploaded PDF.
type File struct {
	Name string
	Data []byte
}

// FileResult is the ingestion outcome for a single file.
type FileResult struct {
	Filename string
	Pages    int // total pages in the document
	Chunks   []domain.TextChunk
	Err      error
}

// Result holds per-file outcomes in input order.
type Result struct {
	Files []FileResult
}

// Chunks returns the chunks of all successfully parsed files, in file order.
func (r Result) Chunks() []domain.TextChunk {
	var chunks []domain.TextChunk
	for _, f := range r.Files {
		if f.Err == nil {
			chunks = append(chunks, f.Chunks...)
		}
	}
	return chunks
}

// Succeeded returns the number of files parsed without error.
func (r Result) Succeeded() int {
	n := 0
	for _, f := range r.Files {
		if f.Err == nil {
			n++
		}
	}
	return n
}

// Failed returns the number of files that could not be parsed.
func (r Result) Failed() int {
	return len(r.Files) - r.Succeeded()
}

// Ingestor parses batches of PDFs.
type Ingestor struct {
	concurrency int
}

// NewIngestor creates an Ingestor that parses at most concurrency files at once.
func NewIngestor(concurrency int) *Ingestor {
	if concurrency <= 0 {
		concurrency = defaultConcurrency
	}
	return &Ingestor{concurrency: concurrency}
}

// IngestAll parses every file. A file that fails is recorded in its FileResult and does
// not stop the rest of the batch.
func (i *Ingestor) IngestAll(ctx context.Context, files []File) Result {
	logger := contextutil.LoggerFromContext(ctx)

	results := make([]FileResult, len(files))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(i.concurrency)

	for idx, f := range files {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				results[idx] = FileResult{Filename: f.Name, Err: err}
				return nil
			}
			pages, chunks, err := extract(f.Name, f.Data)
			results[idx] = FileResult{Filename: f.Name, Pages: pages, Chunks: chunks, Err: err}
			return nil
		})
	}
	_ = g.Wait()

	res := Result{Files: results}
	for _, fr := range res.Files {
		if fr.Err != nil {
			logger.WarnContext(ctx, "skipping unreadable document", "filename", fr.Filename, "error", fr.Err)
			continue
		}
		logger.DebugContext(ctx, "document parsed", "filename", fr.Filename, "pages", fr.Pages, "chunks", len(fr.Chunks))
	}
	logger.InfoContext(ctx, "ingestion completed",
		"files", len(files),
		"succeeded", res.Succeeded(),
		"failed", res.Failed(),
		"chunks", len(res.Chunks()),
	)
	return res
}

// ExtractPages returns one chunk per page with non-blank text, tagged with its
// 1-based page number and filename.
func ExtractPages(filename string, data []byte) ([]domain.TextChunk, error) {
	_, chunks, err := extract(filename, data)
	return chunks, err
}

func extract(filename string, data []byte) (pages int, chunks []domain.TextChunk, err error) {
	// The PDF parser panics on some malformed inputs.
	defer func() {
		if r := recover(); r != nil {
			pages, chunks = 0, nil
			err = &domain.DocumentParseError{Filename: filename, Err: fmt.Errorf("parser panic: %v", r)}
		}
	}()

	if len(data) == 0 {
		return 0, nil, &domain.DocumentParseError{Filename: filename, Err: errors.New("empty file")}
	}

	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return 0, nil, &domain.DocumentParseError{Filename: filename, Err: err}
	}

	pages = reader.NumPage()
	for i := 1; i <= pages; i++ {
		page := reader.Page(i)
		if page.V.IsNull() {
			continue
		}
		// Font names are page resources, so the font map is built per page.
		text, err := page.GetPlainText(nil)
		if err != nil {
			return 0, nil, &domain.DocumentParseError{Filename: filename, Err: fmt.Errorf("page %d: %w", i, err)}
		}
		text = strings.TrimSpace(text)
		if text == "" {
			continue
		}
		chunks = append(chunks, domain.TextChunk{
			Content: text,
			Page:    i,
			Source:  filename,
		})
	}
	return pages, chunks, nil
}
