package search

import (
	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/analysis/analyzer/keyword"
	"github.com/blevesearch/bleve/v2/analysis/analyzer/simple"
	"github.com/blevesearch/bleve/v2/analysis/lang/en"
	"github.com/blevesearch/bleve/v2/mapping"
)

// buildIndexMapping creates the Bleve index mapping for search documents.
//
// Names and descriptions get English stemming. Venues, cities and genre paths
// use the simple analyzer so "Tech House" is not stemmed into "tech hous".
// IDs, types and statuses are keywords for exact filtering and facets.
func buildIndexMapping() mapping.IndexMapping {
	indexMapping := bleve.NewIndexMapping()
	indexMapping.DefaultAnalyzer = en.AnalyzerName

	docMapping := bleve.NewDocumentMapping()

	// --- Text fields ---

	nameFieldMapping := bleve.NewTextFieldMapping()
	nameFieldMapping.Analyzer = en.AnalyzerName
	nameFieldMapping.Store = true
	nameFieldMapping.IncludeTermVectors = true // For highlighting
	docMapping.AddFieldMappingsAt("name", nameFieldMapping)

	// Description and bio: searchable but not stored (too large)
	descFieldMapping := bleve.NewTextFieldMapping()
	descFieldMapping.Analyzer = en.AnalyzerName
	descFieldMapping.Store = false
	docMapping.AddFieldMappingsAt("description", descFieldMapping)

	artistsFieldMapping := bleve.NewTextFieldMapping()
	artistsFieldMapping.Analyzer = en.AnalyzerName
	artistsFieldMapping.Store = true
	artistsFieldMapping.IncludeTermVectors = true
	docMapping.AddFieldMappingsAt("artists", artistsFieldMapping)

	for _, field := range []string{"venue", "city", "genre_paths"} {
		fm := bleve.NewTextFieldMapping()
		fm.Analyzer = simple.Name
		fm.Store = true
		docMapping.AddFieldMappingsAt(field, fm)
	}

	// --- Keyword fields (exact match, facetable) ---

	for _, field := range []string{"id", "type", "status"} {
		fm := bleve.NewTextFieldMapping()
		fm.Analyzer = keyword.Name
		fm.Store = field != "id"
		docMapping.AddFieldMappingsAt(field, fm)
	}

	genreIDsFieldMapping := bleve.NewTextFieldMapping()
	genreIDsFieldMapping.Analyzer = keyword.Name
	genreIDsFieldMapping.Store = true
	genreIDsFieldMapping.IncludeTermVectors = true // For faceting
	docMapping.AddFieldMappingsAt("genre_ids", genreIDsFieldMapping)

	// --- Numeric fields (range queries, sorting) ---

	for _, field := range []string{"starts_at", "created_at", "updated_at"} {
		fm := bleve.NewNumericFieldMapping()
		fm.Store = true
		docMapping.AddFieldMappingsAt(field, fm)
	}

	indexMapping.AddDocumentMapping("_default", docMapping)

	return indexMapping
}
