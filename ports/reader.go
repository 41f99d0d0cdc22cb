package ports

import "context"

// RawTable is the storage-independent tabular contract the pipeline consumes:
// arbitrary string column names and untyped string cells. Which cells are
// timestamps or numbers is decided by the indexer, not the reader.
type RawTable struct {
	Headers []string
	Rows    [][]string
}

// TableReader acquires the raw measurement table from wherever it lives
// (local file, network source, cache). The pipeline never touches storage
// formats directly.
type TableReader interface {
	Read(ctx context.Context) (*RawTable, error)
}
