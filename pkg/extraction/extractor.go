package extraction

import "context"

// DataStructure classifies the shape of extracted content.
type DataStructure string

const (
	DataText   DataStructure = "text"
	DataTable  DataStructure = "table"
	DataMixed  DataStructure = "mixed"
	DataBinary DataStructure = "binary"
)

// ExtractedData is the payload an Extractor produces for one attachment.
type ExtractedData struct {
	Text           string
	Tables         []map[string]any
	EmbeddedImages []string
}

// Result is the full return value of an extraction, cache status included.
type Result struct {
	Success       bool
	FileType      string
	FileName      string
	DataStructure DataStructure
	ExtractedData ExtractedData
	ToolsUsed     []string
	CascadeLog    []string
	FromCache     bool
}

// Extractor is the required contract of the file-parser collaborator
// (spec.md §6): PDF/Excel/Word/audio parsing lives outside the core and is
// reached only through this interface.
type Extractor interface {
	Extract(ctx context.Context, raw []byte, fileType, fileName, tenantID string) (Result, error)
}

// CachingExtractor wraps an Extractor with the shared DocumentExtractionCache,
// keyed by (tenantId, SHA-256(raw)) per spec.md §3/§4.B.
type CachingExtractor struct {
	cache *Cache
	inner Extractor
}

// NewCachingExtractor builds a CachingExtractor over cache and inner.
func NewCachingExtractor(cache *Cache, inner Extractor) *CachingExtractor {
	return &CachingExtractor{cache: cache, inner: inner}
}

// Extract consults the cache first; on a miss it delegates to the inner
// Extractor and stores the result before returning. Cache errors never
// block extraction — they are swallowed per spec.md §7.
func (c *CachingExtractor) Extract(ctx context.Context, raw []byte, fileType, fileName, tenantID string) (Result, error) {
	hash := ContentHash(raw)

	if entry, ok := c.cache.Get(tenantID, hash); ok {
		return Result{
			Success:       true,
			FileType:      entry.FileType,
			FileName:      entry.FileName,
			DataStructure: DataText,
			ExtractedData: ExtractedData{Text: entry.Text},
			ToolsUsed:     entry.ToolsUsed,
			FromCache:     true,
		}, nil
	}

	result, err := c.inner.Extract(ctx, raw, fileType, fileName, tenantID)
	if err != nil {
		return result, err
	}
	result.FromCache = false

	if result.Success {
		c.cache.Set(tenantID, hash, Entry{
			Text:      result.ExtractedData.Text,
			FileName:  result.FileName,
			FileType:  result.FileType,
			ToolsUsed: result.ToolsUsed,
		})
	}
	return result, nil
}
