package orchestrator

import (
	"context"
	"fmt"
	"strings"

	"github.com/codeready-toolchain/tarsy/pkg/datapkg"
	"github.com/codeready-toolchain/tarsy/pkg/extensions/chemistry"
	"github.com/codeready-toolchain/tarsy/pkg/extensions/financial"
	"github.com/codeready-toolchain/tarsy/pkg/extensions/seedmetric"
	"github.com/codeready-toolchain/tarsy/pkg/fetch"
	"github.com/codeready-toolchain/tarsy/pkg/llmchain"
	"github.com/codeready-toolchain/tarsy/pkg/memory"
	"github.com/codeready-toolchain/tarsy/pkg/preflight"
)

// maxAttachmentAggregateChars bounds the combined attachment text S2
// includes in the user prompt (spec.md §4.G S2).
const maxAttachmentAggregateChars = 100_000

// maxPhotos is how many photos S-1's vision pre-analysis inspects.
const maxPhotos = 5

// legalKeywords heuristically flags legal prose in extracted attachment
// text for DocContext.HasLegalDoc (spec.md §4.G S-1's context-extraction
// step; no dedicated legal-detector module exists beyond the routing-flag
// filename check in pkg/preflight, so attachment *content* is scanned here
// with the same kind of keyword heuristic pkg/extensions/financial uses
// for document-type detection).
var legalKeywords = []string{"whereas", "pursuant to", "herein", "the parties agree", "governing law", "indemnif"}

func looksLegalText(text string) bool {
	lower := strings.ToLower(text)
	for _, kw := range legalKeywords {
		if strings.Contains(lower, kw) {
			return true
		}
	}
	return false
}

// runSMinus1 ingests attachments and photos, runs the chemistry/vision
// enrichment cascade, integrates session memory, and writes the S-1
// artifact. It returns the context-extraction result and doc context S0
// needs, plus the aggregated attachment text S2 needs.
func (p *Pipeline) runSMinus1(ctx context.Context, in Input, st *state, mgr *memory.Manager) (preflight.ContextResult, preflight.DocContext, string) {
	var docCtx preflight.DocContext
	var attachmentsText strings.Builder
	attachmentNames := make([]string, 0, len(in.Documents))

	for _, doc := range in.Documents {
		result, err := p.Extractor.Extract(ctx, doc.Data, doc.FileType, doc.FileName, in.TenantID)
		if err != nil || !result.Success {
			p.Logger.Warn("orchestrator: attachment extraction failed", "file", doc.FileName, "error", err)
			continue
		}
		text := result.ExtractedData.Text
		attachmentsText.WriteString(text)
		attachmentsText.WriteString("\n")
		attachmentNames = append(attachmentNames, doc.FileName)

		if financial.DetectDocumentType(text) != "unknown" {
			docCtx.HasFinancialDoc = true
		}
		if looksLegalText(text) {
			docCtx.HasLegalDoc = true
		}
		if mgr != nil {
			mgr.AddMessage("attachment", doc.FileName, &memory.Attachment{
				FileName:      doc.FileName,
				ExtractedText: text,
			})
		}
	}

	chemHeader, visionSearchText := p.runImagePipeline(ctx, in, st)
	st.chemistryHeader = chemHeader

	var memoryPrefix string
	if mgr != nil {
		memoryPrefix = mgr.BuildMemoryPrompt(in.Query)
	}

	ctxResult := preflight.ContextResult{
		InferredTicker:   inferTickerFromHistory(memoryPrefix),
		HasFinancialHint: docCtx.HasFinancialDoc || strings.Contains(strings.ToLower(in.Query), "stock") || strings.Contains(strings.ToLower(in.Query), "ticker"),
	}

	combined := attachmentsText.String()
	if visionSearchText != "" {
		combined += "\n" + visionSearchText
	}

	_ = st.pkg.WriteStage(datapkg.StageSMinus1, map[string]any{
		"attachmentCount": len(attachmentNames),
		"photoCount":      len(in.Photos),
		"chemistryHeader": chemHeader,
		"hasFinancialDoc": docCtx.HasFinancialDoc,
		"hasLegalDoc":     docCtx.HasLegalDoc,
	})

	return ctxResult, docCtx, combined
}

// inferTickerFromHistory is a cheap heuristic: an all-caps 1-5 letter token
// anywhere in the recalled memory prefix is taken as a carried-over ticker
// hint, per spec.md §4.G S-1's "inferred ticker" context-extraction field.
func inferTickerFromHistory(memoryPrefix string) string {
	for _, word := range strings.Fields(memoryPrefix) {
		trimmed := strings.Trim(word, ".,!?$")
		if len(trimmed) >= 1 && len(trimmed) <= 5 && trimmed == strings.ToUpper(trimmed) && isAlpha(trimmed) {
			return trimmed
		}
	}
	return ""
}

func isAlpha(s string) bool {
	for _, r := range s {
		if r < 'A' || r > 'Z' {
			return false
		}
	}
	return len(s) > 0
}

// runImagePipeline runs S-1's image pre-analysis, chemistry gate and
// enrichment, and vision-search enrichment, returning the chemistry
// header text (if any compound was confidently identified) and the
// vision-search result text (if chemistry was gated out or failed).
func (p *Pipeline) runImagePipeline(ctx context.Context, in Input, st *state) (chemHeader, visionSearch string) {
	if p.Vision == nil || len(in.Photos) == 0 {
		return "", ""
	}

	photos := in.Photos
	if len(photos) > maxPhotos {
		photos = photos[:maxPhotos]
	}

	var chemicalDescriptions []string
	var otherDescriptions []string
	for _, photo := range photos {
		category, description, err := p.Vision.AnalyzeImage(ctx, photo.Data)
		if err != nil {
			continue
		}
		if ImageCategory(category) == ImageChemical {
			chemicalDescriptions = append(chemicalDescriptions, description)
		} else {
			otherDescriptions = append(otherDescriptions, description)
		}
	}

	if len(chemicalDescriptions) > 0 && dominantDomainIsChemistry(chemicalDescriptions) {
		combined := strings.Join(chemicalDescriptions, " ")
		id := chemistry.Identify(ctx, p.Chemistry, combined)
		if header, ok := chemistry.BuildHeader(id); ok {
			return header, ""
		}
	} else {
		otherDescriptions = append(otherDescriptions, chemicalDescriptions...)
	}

	if p.Search == nil || len(otherDescriptions) == 0 {
		return "", ""
	}
	terms := meaningfulTerms(strings.Join(otherDescriptions, " "))
	if len(terms) == 0 {
		return "", ""
	}
	resp := p.Search.BestEffort(ctx, in.ClientID, strings.Join(terms, " "))
	if resp == nil {
		return "", ""
	}
	return "", resp.Text
}

// nonChemistryDomainHints are keyword sets that outvote "chemical" when a
// vision description is actually math/engineering/biology/finance imagery
// mislabeled by the vision model as chemical (spec.md §4.G S-1's
// scholastic-domain classifier gate).
var nonChemistryDomainHints = map[string][]string{
	"math":        {"integral", "derivative", "theorem", "matrix", "equation solve"},
	"engineering": {"circuit", "voltage", "load bearing", "schematic diagram"},
	"biology":     {"cell membrane", "dna strand", "organism", "species"},
	"finance":     {"balance sheet", "revenue", "stock chart", "candlestick"},
}

// dominantDomainIsChemistry runs the scholastic-domain classifier: if a
// non-chemistry keyword set outscores the combined text's chemical framing,
// the image is relabeled away from chemistry enrichment.
func dominantDomainIsChemistry(descriptions []string) bool {
	combined := strings.ToLower(strings.Join(descriptions, " "))
	for _, hints := range nonChemistryDomainHints {
		for _, hint := range hints {
			if strings.Contains(combined, hint) {
				return false
			}
		}
	}
	return true
}

var stopwords = map[string]bool{
	"the": true, "a": true, "an": true, "of": true, "and": true, "in": true,
	"is": true, "with": true, "this": true, "that": true, "to": true,
}

// meaningfulTerms extracts 2-8 non-stopword terms from a vision
// description for the vision-search fallback query, per spec.md §4.G S-1.
func meaningfulTerms(description string) []string {
	var terms []string
	for _, word := range strings.Fields(strings.ToLower(description)) {
		word = strings.Trim(word, ".,!?;:()")
		if word == "" || stopwords[word] || len(word) < 3 {
			continue
		}
		terms = append(terms, word)
		if len(terms) == 8 {
			break
		}
	}
	if len(terms) < 2 {
		return nil
	}
	return terms
}

// runS0 invokes the preflight router (or uses the caller-supplied
// pre-computed result), issues the seed-metric/realtime search cascades it
// calls for, and writes the S0 artifact.
func (p *Pipeline) runS0(ctx context.Context, in Input, st *state, ctxResult preflight.ContextResult, docCtx preflight.DocContext) preflight.Result {
	var result preflight.Result
	if in.PreComputedPreflight != nil {
		result = *in.PreComputedPreflight
	} else {
		result = p.Router.Route(ctx, in.ClientID, preflight.Input{
			Query:         in.Query,
			DocContext:    docCtx,
			ContextResult: ctxResult,
		})
	}

	if result.Mode == preflight.ModeSeedMetric && p.Search != nil {
		p.runSeedMetricSearch(ctx, in, st, result)
	}
	if result.RoutingFlags.NeedsRealtimeSearch && p.Search != nil {
		if resp := p.Search.BestEffort(ctx, in.ClientID, in.Query); resp != nil {
			st.searchContext = resp.Text
			st.didSearch = true
		}
	}

	st.mode = result.Mode
	st.preflightResult = result

	_ = st.pkg.WriteStage(datapkg.StageS0, map[string]any{
		"mode":   string(result.Mode),
		"ticker": result.Ticker,
	})
	return result
}

// runSeedMetricSearch issues the seed-metric module's 4-query-per-city
// rate-limited fan-out and folds the formatted results into the search
// context S2 will render from.
func (p *Pipeline) runSeedMetricSearch(ctx context.Context, in Input, st *state, result preflight.Result) {
	cities := seedmetric.ExtractCities(in.Query)
	if len(cities) == 0 {
		return
	}
	var queries []string
	for _, city := range cities {
		queries = append(queries, seedmetric.QueriesPerCity(city)...)
	}
	blocks, err := p.Search.RateLimitedFanout(ctx, in.ClientID, queries)
	if err != nil && len(blocks) == 0 {
		return
	}
	st.searchContext = fetch.FormatLabeledBlocks(blocks)
	st.didSearch = true
}

// fastPathNoTicker implements spec.md §4.G S0's fast path: psi-ema mode
// with no verified ticker renders a fixed "no data" template and jumps
// straight to finalize with audit BYPASS.
func (p *Pipeline) fastPathNoTicker(result preflight.Result) (string, bool) {
	if result.Mode != preflight.ModePsiEMA {
		return "", false
	}
	if result.StockContext != nil && result.StockContext.Verified {
		return "", false
	}
	return fmt.Sprintf("No market data is available for %s right now, so the Ψ-EMA analysis can't run.", result.Ticker), true
}

// runS1 composes the system-message sequence via buildSystemContext and
// writes the S1 artifact.
func (p *Pipeline) runS1(in Input, st *state) {
	messages := preflight.BuildSystemContext(st.preflightResult, p.BaseProtocol, preflight.SystemContextOptions{
		IsFirstQuery:       st.isFirstQuery,
		CompressedProtocol: p.CompressedProtocol,
	})
	st.systemMessages = messages

	nyanMode := "compressed"
	if st.isFirstQuery {
		nyanMode = "full"
	}
	_ = st.pkg.WriteStage(datapkg.StageS1, map[string]any{
		"nyanMode":           nyanMode,
		"systemMessageCount": len(messages),
	})
}

// runS2 assembles the reasoning prompt and either short-circuits to a
// locally-rendered structured answer or invokes the reasoning LLM.
func (p *Pipeline) runS2(ctx context.Context, in Input, st *state, attachmentsText string) error {
	if answer, ok := p.directOutput(st); ok {
		st.draftAnswer = answer
		st.directOutput = true
		_ = st.pkg.WriteStage(datapkg.StageS2, map[string]any{"directOutput": true})
		return nil
	}
	st.directOutput = false

	prompt := p.buildReasoningPrompt(in, st, attachmentsText)
	system := strings.Join(st.systemMessages, "\n\n")

	text, err := p.Chain.CallWithRetry(ctx, llmchain.CallOptions{
		Prompt:      prompt,
		System:      system,
		Temperature: 0.15,
		MaxTokens:   1500,
		Provider:    in.Provider,
	})
	if err != nil {
		return fmt.Errorf("%w: %v", ErrProviderExhausted, err)
	}
	st.draftAnswer = text
	st.tokensOut += approxTokens(text)
	st.tokensIn += approxTokens(prompt) + approxTokens(system)

	_ = st.pkg.WriteStage(datapkg.StageS2, map[string]any{"directOutput": false})
	return nil
}

// approxTokens is a cheap 4-chars-per-token estimate used only for the
// swarm budget accounting surfaced on Output; it is not billed usage.
func approxTokens(s string) int {
	return (len(s) + 3) / 4
}

// directOutput implements the psi-ema/seed-metric structured-template
// short-circuits of spec.md §4.G S2.
func (p *Pipeline) directOutput(st *state) (string, bool) {
	if st.mode == preflight.ModePsiEMA && st.preflightResult.StockContext != nil && st.preflightResult.StockContext.Verified {
		return renderPsiEMATemplate(st.preflightResult.StockContext), true
	}
	if st.mode == preflight.ModeSeedMetric && st.searchContext != "" {
		if table, ok := renderSeedMetricTable(st.searchContext); ok {
			return table, true
		}
	}
	return "", false
}

func (p *Pipeline) buildReasoningPrompt(in Input, st *state, attachmentsText string) string {
	var b strings.Builder
	if mgr := p.sessionMemory(in.SessionID); mgr != nil {
		if prefix := mgr.BuildMemoryPrompt(in.Query); prefix != "" {
			b.WriteString(prefix)
			b.WriteString("\n")
		}
	}
	if attachmentsText != "" {
		text := attachmentsText
		if len(text) > maxAttachmentAggregateChars {
			text = text[:maxAttachmentAggregateChars]
		}
		b.WriteString("Attached content:\n")
		b.WriteString(text)
		b.WriteString("\n")
	}
	if st.searchContext != "" {
		b.WriteString("Search context:\n")
		b.WriteString(st.searchContext)
		b.WriteString("\n")
	}
	b.WriteString(in.Query)
	if appendix := modeAppendix(st.mode); appendix != "" {
		b.WriteString("\n\n")
		b.WriteString(appendix)
	}
	return b.String()
}

func modeAppendix(mode preflight.Mode) string {
	switch mode {
	case preflight.ModePsiEMA:
		return "Report the Ψ-EMA reading's θ, z, R, category, and grade exactly as computed."
	case preflight.ModeSeedMetric:
		return "Render the result as the mandated affordability Markdown table."
	case preflight.ModeCodeAudit:
		return "--- CODE AUDIT MODE ---\nReview the attached code for correctness and security issues."
	default:
		return ""
	}
}
