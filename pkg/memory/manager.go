// Package memory implements the per-session MemoryManager: a rolling
// recall window, attachment log, and periodic summarization, per spec.md
// §3/§4.C.
//
// Grounded on the teacher's pkg/session/manager.go Session type (rolling
// in-memory state behind a mutex, Clone-style export) and
// pkg/mcp/tokens.go's truncation helpers (front/char-bound truncation is
// the same concern applied to message/attachment content here).
package memory

import (
	"context"
	"log/slog"
	"strings"
	"sync"
	"time"
)

const (
	// MaxMessages bounds the rolling message window.
	MaxMessages = 8
	// MaxMessageChars truncates any single message's content.
	MaxMessageChars = 50_000
	// MaxAttachments bounds the attachment log.
	MaxAttachments = 8
	// MaxAttachmentChars truncates any single attachment's extracted text.
	MaxAttachmentChars = 100_000
	// MaxRecentMessages is how many raw messages getContextForPrompt surfaces.
	MaxRecentMessages = 4
	// MaxAttachmentContextChars bounds the side-door attachment snippet.
	MaxAttachmentContextChars = 4_000
	// MaxExportAttachmentChars bounds attachment text on export (spec.md §6).
	MaxExportAttachmentChars = 2_000

	// SummarizeMaxTokens and SummarizeTemperature are the fixed generation
	// parameters for the summarization call (spec.md §4.C).
	SummarizeMaxTokens  = 300
	SummarizeTemperature = 0.3
)

// Message is one turn of the rolling conversation window.
type Message struct {
	Role      string
	Content   string
	Timestamp time.Time
}

// Attachment is one entry of the attachment log.
type Attachment struct {
	FileName      string
	ExtractedText string
	Timestamp     time.Time
}

// Context is the payload getContextForPrompt hands to the orchestrator.
type Context struct {
	MemorySummary      string
	RecentMessages     []Message
	AttachmentContext  string
	HasMemory          bool
}

// ExportedState is the snapshot produced by Export/consumed by Import.
// Attachment text is truncated to MaxExportAttachmentChars by design
// (spec.md §8: "export-bounded identity").
type ExportedState struct {
	Messages       []Message
	Attachments    []Attachment
	QueryCount     int
	CurrentSummary string
	NyanBooted     bool
}

// Summarizer is the narrow provider-chain contract the manager needs to
// generate a rolling summary; pkg/llmchain.Chain satisfies it.
type Summarizer interface {
	Summarize(ctx context.Context, prompt string, maxTokens int, temperature float64) (string, error)
}

// Manager holds one session's rolling memory state.
type Manager struct {
	mu sync.Mutex

	messages    []Message
	attachments []Attachment
	queryCount  int

	currentSummary string
	nyanBooted     bool

	summarizer Summarizer
}

// NewManager constructs an empty Manager backed by summarizer.
func NewManager(summarizer Summarizer) *Manager {
	return &Manager{summarizer: summarizer}
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}

// AddMessage appends a message (and optional attachment) to the rolling
// window, evicting the oldest entry once the bound is exceeded.
func (m *Manager) AddMessage(role, content string, attachment *Attachment) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.messages = append(m.messages, Message{
		Role:      role,
		Content:   truncate(content, MaxMessageChars),
		Timestamp: time.Now(),
	})
	if overflow := len(m.messages) - MaxMessages; overflow > 0 {
		m.messages = m.messages[overflow:]
	}

	if attachment != nil {
		a := *attachment
		a.ExtractedText = truncate(a.ExtractedText, MaxAttachmentChars)
		a.Timestamp = time.Now()
		m.attachments = append(m.attachments, a)
		if overflow := len(m.attachments) - MaxAttachments; overflow > 0 {
			m.attachments = m.attachments[overflow:]
		}
	}
}

// ShouldSummarize increments the query counter and reports whether a
// summarization pass is due: every 2nd user query, when at least 2
// messages are present.
func (m *Manager) ShouldSummarize() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.queryCount++
	return m.queryCount%2 == 0 && len(m.messages) >= 2
}

// GenerateSummary builds a compact digest of the current window and
// attachment metadata and invokes the summarizer. On success, the summary
// replaces currentSummary, the raw window is trimmed to the last 4
// messages, and queryCount resets. On failure, the previous summary is
// retained and no error propagates to the caller beyond the log line
// (spec.md §4.C: "On failure: retain previous summary, no throw").
func (m *Manager) GenerateSummary(ctx context.Context) {
	m.mu.Lock()
	prompt := m.buildSummarizationPromptLocked()
	m.mu.Unlock()

	summary, err := m.summarizer.Summarize(ctx, prompt, SummarizeMaxTokens, SummarizeTemperature)
	if err != nil {
		slog.Warn("memory: summarization failed, retaining previous summary", "error", err)
		return
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.currentSummary = strings.TrimSpace(summary)
	if len(m.messages) > 4 {
		m.messages = m.messages[len(m.messages)-4:]
	}
	m.queryCount = 0
}

func (m *Manager) buildSummarizationPromptLocked() string {
	var b strings.Builder
	b.WriteString("Summarize the following conversation window in at most 5 sentences.\n")
	for _, msg := range m.messages {
		b.WriteString(msg.Role)
		b.WriteString(": ")
		b.WriteString(msg.Content)
		b.WriteString("\n")
	}
	if len(m.attachments) > 0 {
		b.WriteString("Attachments present: ")
		names := make([]string, len(m.attachments))
		for i, a := range m.attachments {
			names[i] = a.FileName
		}
		b.WriteString(strings.Join(names, ", "))
		b.WriteString("\n")
	}
	return b.String()
}

// sideDoorPhrases are lowercase phrases that indicate the user is referring
// to a previously uploaded attachment without naming it explicitly.
var sideDoorPhrases = []string{
	"the document", "that document", "this document",
	"the file", "that file", "this file", "the attached file",
	"the attachment", "that attachment", "uploaded", "the upload",
	"the pdf", "that pdf", "the spreadsheet", "that spreadsheet",
	"the excel file", "the word doc", "the doc", "that doc",
	"the image", "that image", "this image", "the photo", "that photo",
	"what i sent", "what i uploaded",
}

func containsSideDoorPhrase(query string) bool {
	q := strings.ToLower(query)
	for _, phrase := range sideDoorPhrases {
		if strings.Contains(q, phrase) {
			return true
		}
	}
	return false
}

var (
	pdfKeywords   = []string{"pdf"}
	excelKeywords = []string{"excel", "spreadsheet", "xls"}
	imageKeywords = []string{"image", "photo", "picture"}
)

func hasSuffixFold(name string, suffixes ...string) bool {
	lower := strings.ToLower(name)
	for _, suf := range suffixes {
		if strings.HasSuffix(lower, suf) {
			return true
		}
	}
	return false
}

// selectAttachment implements the side-door resolution order from
// spec.md §4.C: explicit filename-prefix match, then kind heuristics
// keyed off query keywords, then the most recent attachment.
func (m *Manager) selectAttachment(query string) *Attachment {
	if len(m.attachments) == 0 {
		return nil
	}
	q := strings.ToLower(query)

	for i := len(m.attachments) - 1; i >= 0; i-- {
		a := m.attachments[i]
		prefix := strings.ToLower(a.FileName)
		if idx := strings.IndexAny(prefix, "."); idx > 0 {
			prefix = prefix[:idx]
		}
		if prefix != "" && strings.Contains(q, prefix) {
			return &m.attachments[i]
		}
	}

	var wantSuffixes []string
	switch {
	case containsAny(q, pdfKeywords):
		wantSuffixes = []string{".pdf"}
	case containsAny(q, excelKeywords):
		wantSuffixes = []string{".xls", ".xlsx"}
	case containsAny(q, imageKeywords):
		wantSuffixes = []string{".png", ".jpg", ".jpeg", ".gif", ".webp"}
	}
	if wantSuffixes != nil {
		for i := len(m.attachments) - 1; i >= 0; i-- {
			if hasSuffixFold(m.attachments[i].FileName, wantSuffixes...) {
				return &m.attachments[i]
			}
		}
	}

	return &m.attachments[len(m.attachments)-1]
}

func containsAny(haystack string, needles []string) bool {
	for _, n := range needles {
		if strings.Contains(haystack, n) {
			return true
		}
	}
	return false
}

// GetContextForPrompt assembles the recall payload for a given query:
// the rolling summary, up to MaxRecentMessages raw messages, and — only
// when the query contains a side-door phrase — up to
// MaxAttachmentContextChars of one prior attachment's extracted text, chosen
// by filename prefix, then by kind, then as the most recent.
func (m *Manager) GetContextForPrompt(query string) Context {
	m.mu.Lock()
	defer m.mu.Unlock()

	recent := m.messages
	if len(recent) > MaxRecentMessages {
		recent = recent[len(recent)-MaxRecentMessages:]
	}
	recentCopy := make([]Message, len(recent))
	copy(recentCopy, recent)

	var attachmentContext string
	if containsSideDoorPhrase(query) {
		if a := m.selectAttachment(query); a != nil {
			attachmentContext = truncate(a.ExtractedText, MaxAttachmentContextChars)
		}
	}

	return Context{
		MemorySummary:     m.currentSummary,
		RecentMessages:    recentCopy,
		AttachmentContext: attachmentContext,
		HasMemory:         m.currentSummary != "" || len(m.messages) > 0,
	}
}

// BuildMemoryPrompt renders the recall context as a single text block
// suitable for prefixing the S2 reasoning prompt.
func (m *Manager) BuildMemoryPrompt(query string) string {
	ctx := m.GetContextForPrompt(query)
	if !ctx.HasMemory {
		return ""
	}
	var b strings.Builder
	if ctx.MemorySummary != "" {
		b.WriteString("Prior conversation summary: ")
		b.WriteString(ctx.MemorySummary)
		b.WriteString("\n")
	}
	for _, msg := range ctx.RecentMessages {
		b.WriteString(msg.Role)
		b.WriteString(": ")
		b.WriteString(msg.Content)
		b.WriteString("\n")
	}
	if ctx.AttachmentContext != "" {
		b.WriteString("Referenced attachment content: ")
		b.WriteString(ctx.AttachmentContext)
		b.WriteString("\n")
	}
	return b.String()
}

// Clear resets the manager to its zero state.
func (m *Manager) Clear() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.messages = nil
	m.attachments = nil
	m.queryCount = 0
	m.currentSummary = ""
	m.nyanBooted = false
}

// NyanBooted reports whether the session's intro has already run.
func (m *Manager) NyanBooted() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.nyanBooted
}

// SetNyanBooted marks the session's intro as having run.
func (m *Manager) SetNyanBooted(v bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nyanBooted = v
}

// Export captures a snapshot bounded per spec.md §6 (attachment text
// truncated to MaxExportAttachmentChars).
func (m *Manager) Export() ExportedState {
	m.mu.Lock()
	defer m.mu.Unlock()

	attachments := make([]Attachment, len(m.attachments))
	for i, a := range m.attachments {
		attachments[i] = Attachment{
			FileName:      a.FileName,
			ExtractedText: truncate(a.ExtractedText, MaxExportAttachmentChars),
			Timestamp:     a.Timestamp,
		}
	}
	messages := make([]Message, len(m.messages))
	copy(messages, m.messages)

	return ExportedState{
		Messages:       messages,
		Attachments:    attachments,
		QueryCount:     m.queryCount,
		CurrentSummary: m.currentSummary,
		NyanBooted:     m.nyanBooted,
	}
}

// Import restores a previously exported state verbatim.
func (m *Manager) Import(state ExportedState) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.messages = append([]Message(nil), state.Messages...)
	m.attachments = append([]Attachment(nil), state.Attachments...)
	m.queryCount = state.QueryCount
	m.currentSummary = state.CurrentSummary
	m.nyanBooted = state.NyanBooted
}
