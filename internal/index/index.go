package index

// MaterialIndex defines the interface for material indexing operations.
// Consumers should depend on this interface rather than the concrete *DB type
// to facilitate testing with mocks.
type MaterialIndex interface {
	UpsertMaterial(row MaterialRow, body string, sources []string) error
	DeleteMaterial(path string) error
	GetChecksum(path string) (string, error)
	AllChecksums() (map[string]string, error)
	AllPaths() (map[string]struct{}, error)
	ListMaterials(limit, offset int, area, sortKey string) ([]MaterialRow, int, error)
	Search(query string, limit int) ([]SearchResult, error)
	Sources() ([]string, error)
	MaterialsUsingSource(source string) ([]string, error)
	Close() error
}

// Verify *DB satisfies MaterialIndex at compile time.
var _ MaterialIndex = (*DB)(nil)
