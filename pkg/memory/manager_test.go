package memory

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSummarizer struct {
	summary string
	err     error
	calls   int
}

func (f *fakeSummarizer) Summarize(ctx context.Context, prompt string, maxTokens int, temperature float64) (string, error) {
	f.calls++
	if f.err != nil {
		return "", f.err
	}
	return f.summary, nil
}

func TestAddMessageBoundsWindow(t *testing.T) {
	m := NewManager(&fakeSummarizer{})
	for i := 0; i < MaxMessages+5; i++ {
		m.AddMessage("user", "hello", nil)
	}
	ctx := m.GetContextForPrompt("hi")
	assert.LessOrEqual(t, len(ctx.RecentMessages), MaxRecentMessages)
	assert.LessOrEqual(t, len(m.messages), MaxMessages)
}

func TestAddMessageTruncatesLongContent(t *testing.T) {
	m := NewManager(&fakeSummarizer{})
	long := strings.Repeat("x", MaxMessageChars+100)
	m.AddMessage("user", long, nil)
	assert.Len(t, m.messages[0].Content, MaxMessageChars)
}

func TestAttachmentLogBounded(t *testing.T) {
	m := NewManager(&fakeSummarizer{})
	for i := 0; i < MaxAttachments+3; i++ {
		m.AddMessage("user", "x", &Attachment{FileName: "f.txt", ExtractedText: "text"})
	}
	assert.LessOrEqual(t, len(m.attachments), MaxAttachments)
}

func TestShouldSummarizeEveryOtherQueryWithEnoughMessages(t *testing.T) {
	m := NewManager(&fakeSummarizer{})
	assert.False(t, m.ShouldSummarize()) // queryCount=1
	assert.False(t, m.ShouldSummarize()) // queryCount=2 but <2 messages
	m.AddMessage("user", "a", nil)
	m.AddMessage("assistant", "b", nil)
	assert.False(t, m.ShouldSummarize()) // queryCount=3
	assert.True(t, m.ShouldSummarize())  // queryCount=4, >=2 messages
}

func TestGenerateSummarySuccessResetsCounterAndTrimsWindow(t *testing.T) {
	summarizer := &fakeSummarizer{summary: "a concise summary"}
	m := NewManager(summarizer)
	for i := 0; i < 6; i++ {
		m.AddMessage("user", "msg", nil)
	}
	m.queryCount = 2

	m.GenerateSummary(context.Background())

	assert.Equal(t, "a concise summary", m.currentSummary)
	assert.Equal(t, 0, m.queryCount)
	assert.LessOrEqual(t, len(m.messages), 4)
}

func TestGenerateSummaryFailureRetainsPrevious(t *testing.T) {
	summarizer := &fakeSummarizer{err: errors.New("provider down")}
	m := NewManager(summarizer)
	m.currentSummary = "old summary"
	m.AddMessage("user", "msg", nil)

	m.GenerateSummary(context.Background())

	assert.Equal(t, "old summary", m.currentSummary)
}

func TestGetContextForPromptSideDoorSelectsByFilenamePrefix(t *testing.T) {
	m := NewManager(&fakeSummarizer{})
	m.AddMessage("user", "here", &Attachment{FileName: "quarterly_report.pdf", ExtractedText: "Q3 numbers"})
	m.AddMessage("user", "here2", &Attachment{FileName: "notes.txt", ExtractedText: "random notes"})

	ctx := m.GetContextForPrompt("what does the document quarterly_report say")
	assert.Contains(t, ctx.AttachmentContext, "Q3 numbers")
}

func TestGetContextForPromptSideDoorFallsBackToMostRecent(t *testing.T) {
	m := NewManager(&fakeSummarizer{})
	m.AddMessage("user", "here", &Attachment{FileName: "a.txt", ExtractedText: "first"})
	m.AddMessage("user", "here2", &Attachment{FileName: "b.txt", ExtractedText: "second"})

	ctx := m.GetContextForPrompt("what does the document say")
	assert.Contains(t, ctx.AttachmentContext, "second")
}

func TestExportTruncatesAttachmentText(t *testing.T) {
	m := NewManager(&fakeSummarizer{})
	long := strings.Repeat("y", MaxExportAttachmentChars+500)
	m.AddMessage("user", "x", &Attachment{FileName: "a.txt", ExtractedText: long})

	exported := m.Export()
	require.Len(t, exported.Attachments, 1)
	assert.Len(t, exported.Attachments[0].ExtractedText, MaxExportAttachmentChars)
}

func TestImportRestoresState(t *testing.T) {
	m := NewManager(&fakeSummarizer{})
	m.AddMessage("user", "hi", nil)
	m.currentSummary = "sum"
	exported := m.Export()

	restored := NewManager(&fakeSummarizer{})
	restored.Import(exported)

	assert.Equal(t, "sum", restored.currentSummary)
	assert.Len(t, restored.messages, 1)
}
