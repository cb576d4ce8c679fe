package db

// KNNQuery is the input for vector similarity search.
// Tenant, when non-empty, becomes a mandatory TAG pre-filter: the engine
// restricts candidates before ranking, it never merely boosts.
type KNNQuery struct {
	IndexName    string
	Tenant       string
	TenantField  string
	VectorField  string
	Vector       []float32
	K            int
	EFRuntime    int // HNSW query-time candidate pool (0 = engine default)
	ReturnFields []string
}

// TextQuery is the input for BM25 text search over the TEXT fields.
type TextQuery struct {
	IndexName    string
	Query        string
	Tenant       string
	TenantField  string
	TextFields   []string
	TopK         int
	ReturnFields []string
}

// SearchResult is the output of a search operation.
type SearchResult struct {
	Total   int
	Entries []SearchEntry
}

// SearchEntry is a single document hit from a search.
type SearchEntry struct {
	Key    string
	Score  float64
	Fields map[string]string
}
