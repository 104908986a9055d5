package janaushadhi

import (
	"encoding/json"
	"os"
	"path/filepath"

	"github.com/medperplexity/clinical-api/logging"
)

// Store reads the catalog from <dir>/jan_aushadhi.json. The file is re-read
// on every call so catalog updates land without a restart; the search path
// treats a missing or broken file as an empty catalog, never an error.
type Store struct {
	dir string
}

// NewStore creates a catalog store rooted at the given data directory.
func NewStore(dir string) *Store {
	return &Store{dir: dir}
}

// Load returns all catalog entries, empty when the store is unavailable.
func (s *Store) Load() []CatalogEntry {
	path := filepath.Join(s.dir, "jan_aushadhi.json")

	raw, err := os.ReadFile(path)
	if err != nil {
		logging.Warn("Jan Aushadhi catalog unavailable", "path", path, "error", err)
		return []CatalogEntry{}
	}

	var entries []CatalogEntry
	if err := json.Unmarshal(raw, &entries); err != nil {
		logging.Warn("Jan Aushadhi catalog is not valid JSON", "path", path, "error", err)
		return []CatalogEntry{}
	}

	return entries
}

// Stats summarizes the catalog: how many generics it lists and the total
// market-minus-scheme savings across all of them.
func (s *Store) Stats() CatalogStats {
	entries := s.Load()

	var total float64
	for _, e := range entries {
		total += e.MarketAvgPrice - e.JanPrice
	}

	return CatalogStats{
		TotalDrugs:       len(entries),
		PotentialSavings: total,
	}
}
