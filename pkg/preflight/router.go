package preflight

import (
	"context"
	"strings"
	"time"

	"github.com/codeready-toolchain/tarsy/pkg/extensions/psiema"
	"github.com/codeready-toolchain/tarsy/pkg/fetch"
)

// blobCharThreshold/blobSentenceThreshold gate the blob-detection step
// (spec.md §4.F step 0).
const (
	blobCharThreshold     = 500
	blobSentenceThreshold = 10
)

// MarketFetcher is the narrow collaborator the router needs to verify a
// ticker for psi-ema mode.
type MarketFetcher interface {
	Fetch(ctx context.Context, clientID, ticker string) (*fetch.MarketData, error)
}

// TickerGuesser performs the AI-push rescue: given a query with 2-of-3
// lego keys but no explicit ticker, ask an LLM to propose one.
type TickerGuesser interface {
	GuessTicker(ctx context.Context, query string) (string, error)
}

// Router is the stateless preflight classifier. Its collaborators are
// injected so the classification logic itself stays a pure function of
// (Input, collaborator responses).
type Router struct {
	Market  MarketFetcher
	Guesser TickerGuesser
}

func NewRouter(market MarketFetcher, guesser TickerGuesser) *Router {
	return &Router{Market: market, Guesser: guesser}
}

var sentenceBoundary = []byte{'.', '!', '?'}

func splitSentences(q string) []string {
	var sentences []string
	start := 0
	for i := 0; i < len(q); i++ {
		for _, b := range sentenceBoundary {
			if q[i] == b {
				sentences = append(sentences, strings.TrimSpace(q[start:i+1]))
				start = i + 1
				break
			}
		}
	}
	if start < len(q) {
		rest := strings.TrimSpace(q[start:])
		if rest != "" {
			sentences = append(sentences, rest)
		}
	}
	return sentences
}

// classificationQuery implements the blob-detection step: long queries
// are reduced to their first 3 and last 2 sentences before any mode
// decision runs.
func classificationQuery(q string) (string, bool) {
	sentences := splitSentences(q)
	isBlob := len(q) > blobCharThreshold || len(sentences) >= blobSentenceThreshold
	if !isBlob {
		return q, false
	}

	seen := map[string]bool{}
	var picked []string
	add := func(s string) {
		if s == "" || seen[s] {
			return
		}
		seen[s] = true
		picked = append(picked, s)
	}
	for i := 0; i < 3 && i < len(sentences); i++ {
		add(sentences[i])
	}
	for i := len(sentences) - 2; i < len(sentences); i++ {
		if i >= 0 {
			add(sentences[i])
		}
	}
	return strings.Join(picked, " "), true
}

// Route runs the full preflight algorithm of spec.md §4.F.
func (r *Router) Route(ctx context.Context, clientID string, in Input) Result {
	cq, isBlob := classificationQuery(in.Query)
	flags := RoutingFlags{
		IsBlob:         isBlob,
		HasAttachments: len(in.Attachments) > 0,
		HasDocContext:  in.DocContext.HasFinancialDoc || in.DocContext.HasLegalDoc,
	}

	result := r.classify(ctx, clientID, in, cq, &flags)
	r.applyAttachmentOverrides(in, &flags, &result)

	if result.Mode == ModeGeneral && needsRealtimeSearch(in.Query) {
		flags.NeedsRealtimeSearch = true
		result.SearchStrategy = SearchDuckDuckGo
	}

	result.RoutingFlags = flags
	return result
}

func (r *Router) classify(ctx context.Context, clientID string, in Input, cq string, flags *RoutingFlags) Result {
	if isDesignQuestion(cq) {
		flags.IsDesignQuestion = true
		return Result{Mode: ModeDesign, SearchStrategy: SearchNone}
	}

	if isIndicatorIdentityQuery(cq) {
		if _, found := ExtractTicker(cq); !found {
			flags.IsPsiEmaIdentity = true
			return Result{Mode: ModePsiEMAIdentity, SearchStrategy: SearchNone}
		}
	}

	if pair, matched := detectForexPair(cq); matched {
		flags.UsesForex = true
		result := Result{Mode: ModeForex, SearchStrategy: SearchNone}
		if pair != "" {
			result.ForexContext = &ForexContext{Pair: pair}
		}
		return result
	}

	if isSeedMetricQuery(cq) {
		flags.IsSeedMetric = true
		return Result{Mode: ModeSeedMetric, SearchStrategy: SearchBrave}
	}

	if mode, result, handled := r.classifyIndicator(ctx, clientID, cq, flags); handled {
		return result
	} else if mode == ModeSeedMetric {
		flags.IsSeedMetric = true
		return Result{Mode: ModeSeedMetric, SearchStrategy: SearchBrave}
	}

	return Result{Mode: ModeGeneral, SearchStrategy: SearchNone}
}

// classifyIndicator runs the Ψ-EMA "2-of-3 lego" detector, geo-veto, and
// AI-push rescue, returning handled=true when it produced a terminal
// result (psi-ema or the geo-veto's forced seed-metric).
func (r *Router) classifyIndicator(ctx context.Context, clientID, cq string, flags *RoutingFlags) (Mode, Result, bool) {
	ticker, tickerFound := ExtractTicker(cq)
	hasToken := hasPsiEmaToken(cq)
	verb := hasLegoVerb(cq) || hasToken
	adjective := hasLegoAdjective(cq) || hasToken

	if geoVetoApplies(cq, tickerFound) {
		flags.GeoVetoApplied = true
		return ModeSeedMetric, Result{}, false
	}

	keyCount := 0
	if verb {
		keyCount++
	}
	if adjective {
		keyCount++
	}
	if tickerFound {
		keyCount++
	}

	if keyCount == 2 && !tickerFound && r.Guesser != nil {
		if guessed, err := r.Guesser.GuessTicker(ctx, cq); err == nil && guessed != "" {
			ticker = guessed
			tickerFound = true
			keyCount++
		}
	}

	unlocked := (keyCount >= 2 && tickerFound) || hasToken
	if !unlocked || !tickerFound {
		return ModeGeneral, Result{}, false
	}

	stockCtx, verified := r.verifyTicker(ctx, clientID, ticker, cq)
	if !verified {
		return ModeGeneral, Result{}, false
	}
	flags.UsesPsiEMA = true

	return ModePsiEMA, Result{
		Mode:         ModePsiEMA,
		Ticker:       ticker,
		StockContext: stockCtx,
		SearchStrategy: SearchNone,
	}, true
}

func (r *Router) verifyTicker(ctx context.Context, clientID, ticker, cq string) (*StockContext, bool) {
	if r.Market == nil {
		return nil, false
	}
	data, err := r.Market.Fetch(ctx, clientID, ticker)
	if err != nil || data == nil {
		return nil, false
	}
	if data.Daily.BarCount < psiema.MinDailyBars {
		return nil, false
	}

	daily, err := psiema.Analyze(data.Daily.Closes)
	if err != nil {
		return nil, false
	}

	ctxResult := &StockContext{
		Ticker:   ticker,
		Market:   data,
		Daily:    daily,
		DataAge:  time.Since(data.EndDate),
		Verified: true,
	}
	if data.Weekly.BarCount >= psiema.MinWeeklyBars {
		if weekly, err := psiema.Analyze(data.Weekly.Closes); err == nil {
			ctxResult.Weekly = &weekly
		}
	}
	_ = cq
	return ctxResult, true
}

func (r *Router) applyAttachmentOverrides(in Input, flags *RoutingFlags, result *Result) {
	for _, a := range in.Attachments {
		if looksFinancialFilename(a.FileName) {
			flags.UsesFinancialPhysics = true
		}
		if looksLegalFilename(a.FileName) {
			flags.UsesLegalAnalysis = true
		}
		if looksLikeCode(a.FileName, a.Text) {
			flags.UsesCodeAudit = true
		}
	}
	if in.DocContext.HasFinancialDoc {
		flags.UsesFinancialPhysics = true
	}
	if in.DocContext.HasLegalDoc {
		flags.UsesLegalAnalysis = true
	}

	if flags.UsesCodeAudit && (result.Mode == ModeGeneral || result.Mode == ModeForex) {
		result.Mode = ModeCodeAudit
		result.SearchStrategy = SearchNone
	}
}
