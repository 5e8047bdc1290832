package storage

import "time"

// DocumentRecord represents a stored PDF.
type DocumentRecord struct {
	ID         string
	Filename   string
	Path       string
	Hash       string // SHA256 hex string of file content
	SizeBytes  int64
	Pages      int
	Chunks     int
	UploadedAt time.Time
}

// CorpusRecord represents an index build. At most one record is active.
type CorpusRecord struct {
	ID         string
	Collection string
	DocsetHash string // hash over the hashes of the documents it was built from
	ChunkCount int
	CreatedAt  time.Time
	Active     bool
}
