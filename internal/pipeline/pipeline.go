// Package pipeline orchestrates a two-phase course analysis: concurrent
// source fetches, a first synthesis pass that surfaces instructor names, a
// targeted rating-service lookup bounded to those names, and a final
// synthesis pass over the enriched data.
package pipeline

import (
	"context"
	"fmt"
	"log"
	"strings"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/jonathan/course-compass/internal/names"
	"github.com/jonathan/course-compass/internal/progress"
	"github.com/jonathan/course-compass/internal/ratings"
	"github.com/jonathan/course-compass/internal/relevance"
	"github.com/jonathan/course-compass/internal/reviewdb"
	"github.com/jonathan/course-compass/internal/synthesis"
	"github.com/jonathan/course-compass/internal/types"
)

// Default bounds applied when Options leaves them zero.
const (
	DefaultMaxThreads          = 10
	DefaultMaxRepliesPerThread = 30
	maxThreadsCeiling          = 50
)

// ThreadSource is the discussion-connector surface the pipeline consumes.
type ThreadSource interface {
	Search(ctx context.Context, topic string, limit int) ([]types.Thread, error)
	FetchThreads(ctx context.Context, ids []string, maxReplies int) []types.Thread
}

// ReviewSource is the review-database surface the pipeline consumes.
type ReviewSource interface {
	ReviewsFor(ctx context.Context, subject string) ([]types.ReviewRecord, error)
}

// RatingSource is the rating-service surface the pipeline consumes.
type RatingSource interface {
	LookupForCourse(ctx context.Context, institutionName string, names []string, subjectFilter string) (*ratings.CourseLookup, error)
}

// Options configures a single run.
type Options struct {
	Topic               string
	MaxThreads          int
	MaxRepliesPerThread int
	TargetedLookup      bool
	InstitutionName     string
	SessionID           string
	Verbose             bool
}

// Metadata records what a run actually did, for callers and tests.
type Metadata struct {
	ThreadsFetched  int    `json:"threads_fetched"`
	ThreadsFiltered int    `json:"threads_filtered"`
	ReviewsFetched  int    `json:"reviews_fetched"`
	NamesExtracted  int    `json:"names_extracted"`
	NamesMatched    int    `json:"names_matched"`
	RatingsEnabled  bool   `json:"rmp_enabled"`
	FirstPassParsed bool   `json:"first_pass_parsed"`
	FinalPassRan    bool   `json:"final_pass_ran"`
	Model           string `json:"model,omitempty"`
}

// Result is the tagged outcome of a run. Report is always structurally
// valid on Success, possibly with empty analytical content.
type Result struct {
	Outcome       Outcome               `json:"outcome"`
	Topic         string                `json:"topic"`
	SessionID     string                `json:"session_id"`
	Report        *types.AnalysisReport `json:"report,omitempty"`
	RawReport     string                `json:"-"`
	ResolvedNames []types.ResolvedName  `json:"resolved_names,omitempty"`
	Metadata      Metadata              `json:"metadata"`
	Err           string                `json:"error,omitempty"`
}

// Runner executes analysis runs against a fixed set of collaborators.
// Runner itself is stateless; per-run state lives on the stack of Run.
type Runner struct {
	Threads  ThreadSource
	Reviews  ReviewSource
	Ratings  RatingSource
	Oracle   synthesis.Oracle
	Progress *progress.Registry

	// ModelName is recorded in result metadata for observability only.
	ModelName string
}

// validate rejects malformed options before the state machine starts.
func (o *Options) validate() error {
	if strings.TrimSpace(o.Topic) == "" {
		return fmt.Errorf("topic is required")
	}
	if o.TargetedLookup && strings.TrimSpace(o.InstitutionName) == "" {
		return fmt.Errorf("targeted lookup requires an institution name")
	}
	if o.MaxThreads < 0 || o.MaxThreads > maxThreadsCeiling {
		return fmt.Errorf("max threads must be between 0 and %d", maxThreadsCeiling)
	}
	if o.MaxRepliesPerThread < 0 {
		return fmt.Errorf("max replies per thread must not be negative")
	}
	return nil
}

// Run executes the full state machine for one topic. The returned error is
// non-nil only for invalid options or a failed critical step; degraded runs
// still return a Result with outcome Success.
func (r *Runner) Run(ctx context.Context, opts Options) (*Result, error) {
	if err := opts.validate(); err != nil {
		return nil, err
	}
	topic := strings.TrimSpace(opts.Topic)
	if opts.MaxThreads == 0 {
		opts.MaxThreads = DefaultMaxThreads
	}
	if opts.MaxRepliesPerThread == 0 {
		opts.MaxRepliesPerThread = DefaultMaxRepliesPerThread
	}
	session := opts.SessionID
	if session == "" {
		session = uuid.NewString()
	}
	// Terminal states close the progress session; late readers treat the
	// missing session as end-of-stream.
	if r.Progress != nil {
		defer r.Progress.Cleanup(session)
	}

	result := &Result{Topic: topic, SessionID: session}
	result.Metadata.Model = r.ModelName

	r.emit(session, StateStarted, "Analysis started for "+topic, 0)

	// Fetching: the two source fetches are independent I/O, run fan-out.
	// Connector failures degrade to empty slices; only both-empty is
	// terminal, and that is the defined no-data outcome, not an error.
	r.emit(session, StateFetching, "Fetching discussion threads and review records", 10)

	var (
		threads []types.Thread
		reviews []types.ReviewRecord
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		stubs, err := r.Threads.Search(gctx, topic, opts.MaxThreads)
		if err != nil {
			log.Printf("pipeline: thread search failed: %v", err)
			return nil
		}
		ids := make([]string, 0, len(stubs))
		for _, t := range stubs {
			ids = append(ids, t.ID)
		}
		threads = r.Threads.FetchThreads(gctx, ids, opts.MaxRepliesPerThread)
		return nil
	})
	g.Go(func() error {
		recs, err := r.Reviews.ReviewsFor(gctx, topic)
		if err != nil {
			log.Printf("pipeline: review fetch failed: %v", err)
			return nil
		}
		reviews = recs
		return nil
	})
	_ = g.Wait()

	result.Metadata.ThreadsFetched = len(threads)
	result.Metadata.ReviewsFetched = len(reviews)
	if opts.Verbose {
		log.Printf("pipeline: %s: fetched %d threads, %d reviews", topic, len(threads), len(reviews))
	}

	if len(threads) == 0 && len(reviews) == 0 {
		r.emit(session, StateComplete, "No data found for "+topic, 100)
		result.Outcome = OutcomeNoData
		return result, nil
	}

	filtered := relevance.FilterThreads(threads, topic)
	result.Metadata.ThreadsFiltered = len(filtered)
	r.emit(session, StateFetching,
		fmt.Sprintf("Fetched %d threads (%d relevant) and %d reviews", len(threads), len(filtered), len(reviews)), 30)

	// First synthesis over discussions and database reviews. An unreachable
	// oracle here is critical: there is no prior report to fall back on.
	r.emit(session, StateFirstSynthesis, "Running first analysis pass", 40)

	threadText := synthesis.FormatThreads(filtered)
	reviewText := reviewdb.FormatForSynthesis(topic, reviews)

	raw, err := r.Oracle.Synthesize(ctx, synthesis.Input{
		Topic:      topic,
		ThreadText: threadText,
		ReviewText: reviewText,
	})
	if err != nil {
		r.emit(session, StateFailed, "Analysis failed: "+err.Error(), 100)
		result.Outcome = OutcomeFailure
		result.Err = err.Error()
		return result, fmt.Errorf("first synthesis: %w", err)
	}

	repairer, _ := r.Oracle.(synthesis.Repairer)
	report, parsed := synthesis.ParseReportWithRepair(ctx, repairer, raw)
	result.Metadata.FirstPassParsed = parsed
	result.Report = report
	result.RawReport = raw
	if !parsed {
		log.Printf("pipeline: first-pass output unparseable, continuing with empty report")
	}

	// Names come strictly from the synthesis output, never from raw text:
	// the targeted lookup set must not widen beyond what the first pass
	// established as relevant.
	r.emit(session, StateNameExtraction, "Extracting instructor names", 60)
	candidates := names.CleanAndNormalize(report.InstructorNames())
	result.Metadata.NamesExtracted = len(candidates)

	if !opts.TargetedLookup || len(candidates) == 0 {
		r.emit(session, StateComplete, "Analysis complete", 100)
		result.Outcome = OutcomeSuccess
		return result, nil
	}

	// Targeted lookup is best-effort: on any failure the first-pass report
	// stands as the final result.
	r.emit(session, StateTargetedLookup,
		fmt.Sprintf("Looking up ratings for %d instructors", len(candidates)), 70)

	lookup, err := r.Ratings.LookupForCourse(ctx, opts.InstitutionName, candidates, topic)
	if err != nil || lookup == nil || len(lookup.Instructors) == 0 {
		if err != nil {
			log.Printf("pipeline: targeted lookup failed: %v", err)
		}
		r.emit(session, StateComplete, "Analysis complete", 100)
		result.Outcome = OutcomeSuccess
		return result, nil
	}

	result.ResolvedNames = names.ResolveAll(candidates, lookup.Instructors, names.DefaultThreshold)
	for _, rn := range result.ResolvedNames {
		if rn.MatchType != types.MatchUnresolved {
			result.Metadata.NamesMatched++
		}
	}
	result.Metadata.RatingsEnabled = true

	// Final synthesis folds in the verified rating data. Failure or
	// malformed output reuses the first-pass report unchanged.
	r.emit(session, StateFinalSynthesis, "Running final analysis pass with rating data", 85)

	finalRaw, err := r.Oracle.Synthesize(ctx, synthesis.Input{
		Topic:      topic,
		ThreadText: threadText,
		ReviewText: reviewText,
		RatingText: ratings.FormatForSynthesis(lookup, topic),
	})
	if err != nil {
		log.Printf("pipeline: final synthesis failed, keeping first-pass report: %v", err)
	} else if finalReport, ok := synthesis.ParseReportWithRepair(ctx, repairer, finalRaw); ok {
		result.Report = finalReport
		result.RawReport = finalRaw
		result.Metadata.FinalPassRan = true
	} else {
		log.Printf("pipeline: final-pass output unparseable, keeping first-pass report")
	}

	r.emit(session, StateComplete, "Analysis complete", 100)
	result.Outcome = OutcomeSuccess
	return result, nil
}

func (r *Runner) emit(session string, state State, message string, percent int) {
	if r.Progress == nil {
		return
	}
	p := percent
	r.Progress.Emit(session, string(state), message, &p)
}
