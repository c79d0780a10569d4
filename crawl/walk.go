package crawl

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"slices"

	"github.com/fwojciec/sitemapper"
	"golang.org/x/sync/errgroup"
)

// walkOptions are ResolveOptions with defaults applied.
type walkOptions struct {
	maxDepth       int
	maxPages       int
	concurrency    int
	reportDefaults bool
	filter         *sitemapper.URLFilter
}

func newWalkOptions(opts *sitemapper.ResolveOptions) walkOptions {
	if opts == nil {
		opts = &sitemapper.ResolveOptions{}
	}
	w := walkOptions{
		maxDepth:       opts.MaxDepth,
		maxPages:       opts.MaxPages,
		concurrency:    opts.MaxConcurrency,
		reportDefaults: opts.ReportDefaults,
		filter:         opts.Filter,
	}
	if w.maxDepth == 0 {
		w.maxDepth = sitemapper.DefaultMaxDepth
	} else if w.maxDepth < 0 {
		w.maxDepth = 0
	}
	if w.maxPages < 0 {
		w.maxPages = 0
	}
	if w.concurrency <= 0 {
		w.concurrency = sitemapper.DefaultMaxConcurrency
	}
	return w
}

// branchResult is the outcome of fetching, detecting and parsing one sitemap.
type branchResult struct {
	link Link

	format   sitemapper.Format
	pages    []*sitemapper.Page
	sitemaps []string
	defaults []sitemapper.FieldDefault

	// conditions are branch failures other than cancellation.
	conditions []sitemapper.Condition

	// fetchErr is set when the document could not be fetched.
	fetchErr error
	attempts int

	// cancelled is the context error that interrupted the branch.
	cancelled error
}

// walkState is the engine-owned state of a single walk.
type walkState struct {
	opts       walkOptions
	frontier   *Frontier
	pages      *PageSet
	conditions []sitemapper.Condition

	// root is the URL whose fetch failure aborts the walk, if any.
	root        string
	rootFetched bool
	fatal       error

	overBudget bool
}

func (s *walkState) addCondition(c sitemapper.Condition) {
	s.conditions = append(s.conditions, c)
}

// walk resolves seeds and everything they reference, using a coordinator
// goroutine that owns the frontier and a pool of workers that fetch,
// detect and parse.
//
// The coordinator is the only goroutine that merges pages or records
// conditions, so conditions are ordered by the time they were handled.
func (r *Resolver) walk(ctx context.Context, seeds []Link, root string, opts walkOptions) (*sitemapper.Result, error) {
	state := &walkState{
		opts:     opts,
		frontier: NewFrontier(),
		pages:    NewPageSet(opts.filter, opts.maxPages),
		root:     stripFragment(root),
	}
	for _, seed := range seeds {
		state.frontier.Push(seed)
	}

	workCh := make(chan Link, opts.concurrency)
	resultCh := make(chan branchResult)

	// Start worker pool
	g, gctx := errgroup.WithContext(ctx)
	for i := 0; i < opts.concurrency; i++ {
		g.Go(func() error {
			for link := range workCh {
				result := r.resolveBranch(gctx, link)
				select {
				case resultCh <- result:
				case <-gctx.Done():
					return nil
				}
			}
			return nil
		})
	}

	// Close result channel when all workers are done
	go func() {
		_ = g.Wait()
		close(resultCh)
	}()

	// inFlight holds dispatched links in dispatch order.
	var inFlight []Link
	var next *Link
	stopped := false

coordinatorLoop:
	for {
		if next == nil && !stopped {
			next = r.nextLink(state)
		}
		if (next == nil || stopped) && len(inFlight) == 0 {
			break coordinatorLoop
		}
		if ctx.Err() != nil {
			break coordinatorLoop
		}

		// A nil channel never receives, so dispatch is disabled when there
		// is nothing to send.
		var sendCh chan Link
		if next != nil && !stopped {
			sendCh = workCh
		}

		var sendLink Link
		if next != nil {
			sendLink = *next
		}

		select {
		case <-ctx.Done():
			break coordinatorLoop
		case sendCh <- sendLink:
			inFlight = append(inFlight, sendLink)
			next = nil
		case res, ok := <-resultCh:
			if !ok {
				break coordinatorLoop
			}
			inFlight = slices.DeleteFunc(inFlight, func(l Link) bool { return l.URL == res.link.URL })
			r.handleBranch(state, &res)
			if state.fatal != nil {
				break coordinatorLoop
			}
			if state.pages.Full() && state.overBudget {
				stopped = true
			}
		}
	}

	// Signal workers to stop and drain remaining results
	close(workCh)

	switch {
	case state.fatal != nil:
	case ctx.Err() != nil:
		if state.root != "" && !state.rootFetched {
			drain(resultCh)
			return nil, ctx.Err()
		}
		err := ctx.Err()
		state.reportUnresolved(inFlight, next, func(link Link) sitemapper.Condition {
			return cancelledCondition(link, err)
		})
	case stopped:
		state.reportUnresolved(inFlight, next, state.budgetCondition)
	}
	drain(resultCh)

	if state.fatal != nil {
		return nil, state.fatal
	}

	return &sitemapper.Result{
		Pages:      state.pages.Pages(),
		Conditions: state.conditions,
	}, nil
}

// reportUnresolved records a condition for every link the walk gave up on:
// links still in flight, the link held for dispatch, then the frontier.
// Frontier links beyond the depth ceiling keep their depth condition.
func (s *walkState) reportUnresolved(inFlight []Link, next *Link, condition func(Link) sitemapper.Condition) {
	for _, link := range inFlight {
		s.addCondition(condition(link))
	}
	if next != nil {
		s.addCondition(condition(*next))
	}
	for _, link := range s.frontier.Drain() {
		if link.Depth > s.opts.maxDepth {
			s.addCondition(depthCondition(link, s.opts.maxDepth))
			continue
		}
		s.addCondition(condition(link))
	}
}

// budgetCondition reports a sitemap left unresolved because the page budget
// was reached.
func (s *walkState) budgetCondition(link Link) sitemapper.Condition {
	return sitemapper.Condition{
		URL:    link.URL,
		Kind:   sitemapper.ConditionPageBudgetExceeded,
		Detail: fmt.Sprintf("not resolved: page budget of %d reached", s.opts.maxPages),
	}
}

// nextLink pops the next link within the depth ceiling, recording a
// condition for every link beyond it.
func (r *Resolver) nextLink(state *walkState) *Link {
	for {
		link, ok := state.frontier.Pop()
		if !ok {
			return nil
		}
		if link.Depth > state.opts.maxDepth {
			state.addCondition(depthCondition(link, state.opts.maxDepth))
			continue
		}
		return &link
	}
}

// handleBranch merges a completed branch into the walk state. It runs on
// the coordinator goroutine only.
func (r *Resolver) handleBranch(state *walkState, res *branchResult) {
	isRoot := state.root != "" && res.link.URL == state.root

	if res.cancelled != nil {
		state.addCondition(cancelledCondition(res.link, res.cancelled))
		return
	}

	if res.fetchErr != nil {
		if isRoot {
			state.fatal = sitemapper.Errorf(sitemapper.EUNAVAILABLE, "fetching root sitemap %s: %v", res.link.URL, res.fetchErr)
			return
		}
		if !res.link.Optional {
			state.addCondition(sitemapper.Condition{
				URL:      res.link.URL,
				Kind:     sitemapper.ConditionFetchFailed,
				Detail:   res.fetchErr.Error(),
				Attempts: res.attempts,
			})
		}
		return
	}
	if isRoot {
		state.rootFetched = true
	}

	for _, c := range res.conditions {
		if res.link.Optional && c.Kind == sitemapper.ConditionUnrecognizedFormat {
			continue
		}
		state.addCondition(c)
	}

	if state.opts.reportDefaults {
		for _, d := range res.defaults {
			state.addCondition(sitemapper.Condition{
				URL:    d.Loc,
				Kind:   sitemapper.ConditionFieldDefaulted,
				Detail: fmt.Sprintf("%s %q replaced by default", d.Field, d.Value),
			})
		}
	}

	dropped := 0
	for _, p := range res.pages {
		if state.pages.Add(p) == MergeOverBudget {
			dropped++
		}
	}
	if dropped > 0 {
		state.overBudget = true
		state.addCondition(sitemapper.Condition{
			URL:    res.link.URL,
			Kind:   sitemapper.ConditionPageBudgetExceeded,
			Detail: fmt.Sprintf("page budget of %d reached, %d pages dropped", state.opts.maxPages, dropped),
		})
	}

	// Children are queued even after the budget stop so that they are
	// reported as unresolved.
	for _, u := range res.sitemaps {
		state.frontier.Push(Link{URL: u, Depth: res.link.Depth + 1})
	}
}

// resolveBranch fetches, detects and parses a single sitemap. It runs on a
// worker goroutine and must not touch walk state.
func (r *Resolver) resolveBranch(ctx context.Context, link Link) branchResult {
	result := branchResult{link: link}

	if r.RateLimiter != nil {
		host := link.URL
		if u, err := url.Parse(link.URL); err == nil {
			host = u.Host
		}
		if err := r.RateLimiter.Wait(ctx, host); err != nil {
			if result.cancelled = ctx.Err(); result.cancelled == nil {
				result.fetchErr = err
			}
			return result
		}
	}

	delays := r.RetryDelays
	if delays == nil {
		delays = DefaultRetryDelays()
	}
	resp, attempts, err := FetchWithRetryDelays(ctx, link.URL, r.Fetcher.Fetch, r.Logf, delays)
	result.attempts = attempts
	if err != nil {
		if result.cancelled = ctx.Err(); result.cancelled == nil {
			result.fetchErr = err
		}
		return result
	}

	format, body, cut, err := detect(resp, r.MaxDecompressedLength)
	result.format = format
	if err != nil {
		kind := sitemapper.ConditionParseError
		if errors.Is(err, sitemapper.ErrUnrecognizedFormat) {
			kind = sitemapper.ConditionUnrecognizedFormat
		}
		result.conditions = append(result.conditions, sitemapper.Condition{
			URL:    link.URL,
			Kind:   kind,
			Detail: err.Error(),
		})
		return result
	}

	documentURL := resp.URL
	if documentURL == "" {
		documentURL = link.URL
	}
	parsed, err := parse(format, documentURL, body, cut)
	if parsed != nil {
		result.pages = parsed.Pages
		result.sitemaps = parsed.Sitemaps
		result.defaults = parsed.Defaults
	}
	switch {
	case err != nil:
		result.conditions = append(result.conditions, sitemapper.Condition{
			URL:    link.URL,
			Kind:   sitemapper.ConditionParseError,
			Detail: fmt.Sprintf("%s: %v", format, err),
		})
	case cut:
		result.conditions = append(result.conditions, sitemapper.Condition{
			URL:    link.URL,
			Kind:   sitemapper.ConditionParseError,
			Detail: fmt.Sprintf("%s: document truncated after %d bytes", format, len(body)),
		})
	}
	return result
}

func cancelledCondition(link Link, err error) sitemapper.Condition {
	return sitemapper.Condition{
		URL:    link.URL,
		Kind:   sitemapper.ConditionCancelled,
		Detail: err.Error(),
	}
}

func depthCondition(link Link, maxDepth int) sitemapper.Condition {
	return sitemapper.Condition{
		URL:    link.URL,
		Kind:   sitemapper.ConditionDepthExceeded,
		Detail: fmt.Sprintf("depth %d exceeds maximum of %d", link.Depth, maxDepth),
	}
}

func drain(resultCh <-chan branchResult) {
	for range resultCh {
	}
}
