package extraction

import (
	"context"
	"errors"
	"strings"
	"unicode/utf8"
)

// ErrUnsupportedFileType is returned for formats PlainTextExtractor does
// not itself decode. PDF/Excel/Word/audio parsing is an explicit
// out-of-scope collaborator (spec.md §2); this extractor only handles the
// plain-text family directly so the pipeline never nil-derefs its
// Extractor when no richer parser is configured.
var ErrUnsupportedFileType = errors.New("extraction: unsupported file type")

// plainTextTypes are the file-type tokens (as passed by the caller,
// typically a MIME subtype or extension) this extractor decodes directly.
var plainTextTypes = map[string]bool{
	"text":     true,
	"txt":      true,
	"plain":    true,
	"markdown": true,
	"md":       true,
	"csv":      true,
	"json":     true,
	"yaml":     true,
	"yml":      true,
	"log":      true,
}

// PlainTextExtractor decodes UTF-8 text-family attachments inline and
// reports ErrUnsupportedFileType for anything requiring a real document
// parser (PDF, Excel, Word, audio transcription).
type PlainTextExtractor struct{}

func NewPlainTextExtractor() *PlainTextExtractor { return &PlainTextExtractor{} }

func (e *PlainTextExtractor) Extract(_ context.Context, raw []byte, fileType, fileName, _ string) (Result, error) {
	kind := strings.ToLower(strings.TrimPrefix(fileType, "."))
	if !plainTextTypes[kind] {
		return Result{Success: false, FileType: fileType, FileName: fileName}, ErrUnsupportedFileType
	}
	if !utf8.Valid(raw) {
		return Result{Success: false, FileType: fileType, FileName: fileName}, ErrUnsupportedFileType
	}

	structure := DataText
	if kind == "csv" {
		structure = DataTable
	}

	return Result{
		Success:       true,
		FileType:      fileType,
		FileName:      fileName,
		DataStructure: structure,
		ExtractedData: ExtractedData{Text: string(raw)},
		ToolsUsed:     []string{"plaintext"},
	}, nil
}
