package checker

import (
	"context"
	"fmt"
	"math"
	"sort"
	"time"

	"go.uber.org/zap"

	"github.com/jordannanyan/plagiarism-backend/detect"
)

const (
	// DefaultDeadline is the soft per-check time budget.
	DefaultDeadline = 60 * time.Second

	// candidateCap bounds how many LSH candidates survive pruning no matter
	// what the caller asks for.
	candidateCap = 50

	// spansPerSourceCap bounds the match spans kept per corpus source.
	spansPerSourceCap = 50
)

// Params is the per-check snapshot of the active algoritma_params row. It is
// read once at the start of a check and never re-read, so a check replays
// deterministically even if parameters are rotated mid-flight.
type Params struct {
	ID        int
	K         int
	W         int
	Base      int
	Threshold float64
}

// Document is the user document under check.
type Document struct {
	ID       int
	OwnerID  int
	Title    string
	PathText string
}

// CorpusEntry is one active reference document.
type CorpusEntry struct {
	ID         int
	Title      string
	SourceType string
	PathText   string
}

// ParamsSource yields the currently active parameter row, or nil when none is
// active.
type ParamsSource interface {
	Active(ctx context.Context) (*Params, error)
}

// DocumentSource resolves user documents; nil result means not found.
type DocumentSource interface {
	ByID(ctx context.Context, id int) (*Document, error)
}

// CorpusSource yields the active corpus membership as a snapshot.
type CorpusSource interface {
	ActiveEntries(ctx context.Context) ([]CorpusEntry, error)
}

// TextSource reads normalized-text files. The checker only ever reads them.
type TextSource interface {
	ReadText(ctx context.Context, path string) (string, error)
}

// SignatureCache stores corpus MinHash signatures keyed by (params, corpus)
// so repeated checks do not re-read and re-hash the whole corpus. Both
// operations are best-effort; implementations log and swallow their own
// failures.
type SignatureCache interface {
	Get(ctx context.Context, paramsID, corpusID int) ([]uint64, bool)
	Put(ctx context.Context, paramsID, corpusID int, sig []uint64)
}

// RequestStore drives the check_request state machine:
// queued -> processing -> (done | failed).
type RequestStore interface {
	Create(ctx context.Context, requestedBy, docID, paramsID int) (int, error)
	MarkProcessing(ctx context.Context, id int) error
	MarkDone(ctx context.Context, id int) error
	MarkFailed(ctx context.Context, id int) error
}

// ResultStore persists a result and its match rows atomically: after Save
// either the result row exists with every match row, or nothing does.
type ResultStore interface {
	Save(ctx context.Context, res *Result) (int, error)
}

// AuditLog records the per-check audit trail. Entries for one check are
// totally ordered: CREATE_CHECK_REQUEST precedes CHECK_COMPLETED.
type AuditLog interface {
	Record(ctx context.Context, actorID int, action, entity string, entityID int)
}

// Candidate is a corpus document that shared at least one LSH bucket with the
// query document, with its MinHash similarity estimate.
type Candidate struct {
	CorpusID int     `json:"id_corpus"`
	Title    string  `json:"title"`
	Approx   float64 `json:"approx"`
}

// SummaryParams echoes the parameter snapshot into summary_json.
type SummaryParams struct {
	ID        int     `json:"id_params"`
	K         int     `json:"k"`
	W         int     `json:"w"`
	Threshold float64 `json:"threshold"`
}

// Summary is the summary_json wire structure persisted with every result.
type Summary struct {
	Params         SummaryParams `json:"params"`
	Candidates     []Candidate   `json:"candidates"`
	BestSimilarity float64       `json:"best_similarity"`
	Warnings       []string      `json:"warnings,omitempty"`
}

// Match is one aligned span destined for a check_match row.
type Match struct {
	SourceType  string
	SourceID    int
	DocStart    int
	DocEnd      int
	SrcStart    int
	SrcEnd      int
	Score       float64
	SnippetHash string
}

// Result is everything Save persists for a finished check.
type Result struct {
	CheckID    int
	Similarity float64
	Summary    Summary
	Matches    []Match
}

// Outcome is what POST /api/checks returns.
type Outcome struct {
	CheckID         int     `json:"check_id"`
	ResultID        int     `json:"result_id"`
	Similarity      float64 `json:"similarity"`
	Threshold       float64 `json:"threshold"`
	CandidatesCount int     `json:"candidates_count"`
	MatchesInserted int     `json:"matches_inserted"`
}

// Checker orchestrates one plagiarism check end to end: parameter snapshot,
// LSH candidate pruning over the active corpus, winnowed Jaccard scoring of
// the survivors, span construction, and atomic result persistence. The
// pipeline itself is pure; all state lives behind the collaborator
// interfaces.
type Checker struct {
	Params    ParamsSource
	Documents DocumentSource
	Corpus    CorpusSource
	Texts     TextSource
	Cache     SignatureCache // optional
	Requests  RequestStore
	Results   ResultStore
	Audit     AuditLog // optional
	Logger    *zap.Logger
	Deadline  time.Duration
}

// Run executes a check for docID on behalf of requestedBy. A requestedBy of 0
// skips the ownership check (administrative callers). maxCandidates bounds
// candidate retention; non-positive values fall back to the cap.
func (c *Checker) Run(ctx context.Context, requestedBy, docID, maxCandidates int) (*Outcome, error) {
	start := time.Now()
	defer func() { checkDuration.Observe(time.Since(start).Seconds()) }()

	if docID <= 0 {
		return nil, E(KindInvalidInput, "document id must be positive", nil)
	}
	doc, err := c.Documents.ByID(ctx, docID)
	if err != nil {
		return nil, E(KindPersistence, "load document", err)
	}
	if doc == nil || (requestedBy > 0 && doc.OwnerID != requestedBy) {
		return nil, E(KindInvalidInput, "document not found or not owned by caller", nil)
	}

	params, err := c.Params.Active(ctx)
	if err != nil {
		return nil, E(KindPersistence, "load active params", err)
	}
	if params == nil {
		return nil, E(KindNoActiveParams, "no algorithm parameters active", nil)
	}

	reqID, err := c.Requests.Create(ctx, requestedBy, docID, params.ID)
	if err != nil {
		return nil, E(KindPersistence, "create check request", err)
	}
	if c.Audit != nil {
		c.Audit.Record(ctx, requestedBy, "CREATE_CHECK_REQUEST", "check_request", reqID)
	}
	if err := c.Requests.MarkProcessing(ctx, reqID); err != nil {
		return nil, c.fail(reqID, E(KindPersistence, "mark request processing", err))
	}

	deadline := c.Deadline
	if deadline <= 0 {
		deadline = DefaultDeadline
	}
	runCtx, cancel := context.WithTimeout(ctx, deadline)
	defer cancel()

	outcome, err := c.execute(runCtx, reqID, doc, params, maxCandidates)
	if err != nil {
		return nil, c.fail(reqID, err)
	}

	if err := c.Requests.MarkDone(ctx, reqID); err != nil {
		c.Logger.Error("check done but status update failed",
			zap.Int("check_id", reqID), zap.Error(err))
	}
	if c.Audit != nil {
		c.Audit.Record(ctx, requestedBy, "CHECK_COMPLETED", "check_request", reqID)
	}
	checksTotal.WithLabelValues("done").Inc()
	return outcome, nil
}

// fail moves the request to its terminal failed state. The original context
// may already be expired, so the status write uses a fresh one.
func (c *Checker) fail(reqID int, err error) error {
	if markErr := c.Requests.MarkFailed(context.Background(), reqID); markErr != nil {
		c.Logger.Error("failed to mark check request failed",
			zap.Int("check_id", reqID), zap.Error(markErr))
	}
	checksTotal.WithLabelValues("failed").Inc()
	return err
}

type scoredCandidate struct {
	entry  CorpusEntry
	approx float64
	text   string
	loaded bool
}

func (c *Checker) execute(ctx context.Context, reqID int, doc *Document, params *Params, maxCandidates int) (*Outcome, error) {
	raw, err := c.Texts.ReadText(ctx, doc.PathText)
	if err != nil {
		return nil, E(KindPersistence, "read document text", err)
	}
	text := detect.Normalize(raw)
	if len([]rune(text)) < params.K {
		return nil, E(KindEmptyOrTooShort, "normalized document shorter than k", nil)
	}

	sigDoc := detect.Signature(text, params.K, detect.DefaultNumPerm)
	bucketsDoc := detect.Buckets(sigDoc, detect.DefaultBands)

	entries, err := c.Corpus.ActiveEntries(ctx)
	if err != nil {
		return nil, E(KindPersistence, "load active corpus", err)
	}

	var warnings []string
	skip := func(entry CorpusEntry, cause error) {
		c.Logger.Warn("skipping corpus entry",
			zap.Int("corpus_id", entry.ID), zap.Error(cause))
		corpusSkippedTotal.Inc()
		warnings = append(warnings,
			fmt.Sprintf("corpus %d (%s): text unreadable, skipped", entry.ID, entry.Title))
	}

	var candidates []scoredCandidate
	for _, entry := range entries {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, E(KindDeadline, "corpus scan aborted", ctxErr)
		}
		sig, ctext, loaded, sigErr := c.corpusSignature(ctx, params, entry)
		if sigErr != nil {
			skip(entry, sigErr)
			continue
		}
		if !detect.SharesBucket(bucketsDoc, detect.Buckets(sig, detect.DefaultBands)) {
			continue
		}
		candidates = append(candidates, scoredCandidate{
			entry:  entry,
			approx: detect.SignatureSim(sigDoc, sig),
			text:   ctext,
			loaded: loaded,
		})
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		if candidates[i].approx != candidates[j].approx {
			return candidates[i].approx > candidates[j].approx
		}
		return candidates[i].entry.ID < candidates[j].entry.ID
	})
	keep := maxCandidates
	if keep <= 0 || keep > candidateCap {
		keep = candidateCap
	}
	if len(candidates) > keep {
		candidates = candidates[:keep]
	}

	fpDoc := detect.Winnow(text, params.K, params.W)

	best := 0.0
	var matches []Match
	summaryCandidates := make([]Candidate, 0, len(candidates))
	for _, cand := range candidates {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, E(KindDeadline, "candidate comparison aborted", ctxErr)
		}
		summaryCandidates = append(summaryCandidates, Candidate{
			CorpusID: cand.entry.ID,
			Title:    cand.entry.Title,
			Approx:   cand.approx,
		})

		ctext := cand.text
		if !cand.loaded {
			craw, readErr := c.Texts.ReadText(ctx, cand.entry.PathText)
			if readErr != nil {
				skip(cand.entry, readErr)
				continue
			}
			ctext = detect.Normalize(craw)
		}

		fpC := detect.Winnow(ctext, params.K, params.W)
		sim := detect.Jaccard(fpDoc, fpC)
		if sim > best {
			best = sim
		}
		if sim < params.Threshold {
			continue
		}
		spans := detect.BuildSpans(fpDoc, fpC, params.K)
		if len(spans) > spansPerSourceCap {
			spans = spans[:spansPerSourceCap]
		}
		for _, s := range spans {
			matches = append(matches, Match{
				SourceType:  cand.entry.SourceType,
				SourceID:    cand.entry.ID,
				DocStart:    int(s.DocStart),
				DocEnd:      int(s.DocEnd),
				SrcStart:    int(s.SrcStart),
				SrcEnd:      int(s.SrcEnd),
				Score:       s.Score,
				SnippetHash: s.SnippetHash,
			})
		}
	}

	similarity := math.Round(best*10000) / 100

	res := &Result{
		CheckID:    reqID,
		Similarity: similarity,
		Summary: Summary{
			Params: SummaryParams{
				ID:        params.ID,
				K:         params.K,
				W:         params.W,
				Threshold: params.Threshold,
			},
			Candidates:     summaryCandidates,
			BestSimilarity: best,
			Warnings:       warnings,
		},
		Matches: matches,
	}
	resultID, err := c.Results.Save(ctx, res)
	if err != nil {
		if ctx.Err() != nil {
			return nil, E(KindDeadline, "result persistence aborted", err)
		}
		return nil, E(KindPersistence, "persist check result", err)
	}
	candidatesPerCheck.Observe(float64(len(summaryCandidates)))

	return &Outcome{
		CheckID:         reqID,
		ResultID:        resultID,
		Similarity:      similarity,
		Threshold:       params.Threshold,
		CandidatesCount: len(summaryCandidates),
		MatchesInserted: len(matches),
	}, nil
}

// corpusSignature resolves a corpus entry's MinHash signature, via the cache
// when possible. When the signature had to be computed from disk the
// normalized text is returned too, saving the candidate stage a second read.
func (c *Checker) corpusSignature(ctx context.Context, params *Params, entry CorpusEntry) (sig []uint64, text string, loaded bool, err error) {
	if c.Cache != nil {
		if cached, ok := c.Cache.Get(ctx, params.ID, entry.ID); ok && len(cached) == detect.DefaultNumPerm {
			return cached, "", false, nil
		}
	}
	raw, err := c.Texts.ReadText(ctx, entry.PathText)
	if err != nil {
		return nil, "", false, err
	}
	text = detect.Normalize(raw)
	sig = detect.Signature(text, params.K, detect.DefaultNumPerm)
	if c.Cache != nil {
		c.Cache.Put(ctx, params.ID, entry.ID, sig)
	}
	return sig, text, true, nil
}
