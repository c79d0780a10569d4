package sitemapper

import (
	"context"
	"fmt"
	"regexp"
	"time"
)

// SitemapService resolves sitemap trees into flat page catalogs.
type SitemapService interface {
	// Resolve walks the sitemap at rootURL and every sitemap it references.
	// Failures below the root are reported as Conditions on the result.
	// Only a failure to fetch the root itself, or cancellation before the
	// root was fetched, is returned as an error.
	//
	// If opts is nil, defaults are used.
	Resolve(ctx context.Context, rootURL string, opts *ResolveOptions) (*Result, error)

	// ResolveHomepage discovers sitemaps for a website from its robots.txt
	// and well-known sitemap locations, then resolves all of them in a
	// single walk.
	ResolveHomepage(ctx context.Context, homepageURL string, opts *ResolveOptions) (*Result, error)
}

// Resolution defaults.
const (
	DefaultMaxDepth       = 10
	DefaultMaxConcurrency = 3
)

// ResolveOptions configures a single resolution.
type ResolveOptions struct {
	// MaxDepth is the deepest level that is fetched. The root is depth 0.
	// Defaults to DefaultMaxDepth when zero; negative means root only.
	MaxDepth int

	// MaxPages bounds the number of unique pages collected. Zero means
	// unlimited.
	MaxPages int

	// MaxConcurrency bounds the number of sitemaps fetched at once.
	// Defaults to DefaultMaxConcurrency.
	MaxConcurrency int

	// Deadline bounds the whole walk. Zero means no deadline beyond the
	// caller's context.
	Deadline time.Duration

	// ReportDefaults records a ConditionFieldDefaulted for every malformed
	// field that was replaced by its default.
	ReportDefaults bool

	// Filter restricts which pages are collected. Nil collects all pages.
	Filter *URLFilter
}

// Result is the outcome of a resolution.
type Result struct {
	// Pages holds one entry per unique URL, in the order they were merged.
	// When a URL appears more than once, the first occurrence is kept.
	Pages []*Page

	// Conditions lists per-branch problems in the order they occurred.
	Conditions []Condition
}

// Complete reports whether every branch was resolved. Warning-level
// conditions do not make a result incomplete.
func (r *Result) Complete() bool {
	for _, c := range r.Conditions {
		if !c.Kind.Warning() {
			return false
		}
	}
	return true
}

// ConditionKind classifies a non-fatal problem met during a walk.
type ConditionKind string

// Condition kinds.
const (
	ConditionFetchFailed        ConditionKind = "fetch-failed"
	ConditionUnrecognizedFormat ConditionKind = "unrecognized-format"
	ConditionParseError         ConditionKind = "parse-error"
	ConditionDepthExceeded      ConditionKind = "depth-exceeded"
	ConditionPageBudgetExceeded ConditionKind = "page-budget-exceeded"
	ConditionCancelled          ConditionKind = "cancelled"
	ConditionFieldDefaulted     ConditionKind = "field-defaulted"
)

// Warning reports whether the condition is informational only.
func (k ConditionKind) Warning() bool {
	return k == ConditionFieldDefaulted
}

// Condition is a branch-local problem. It never aborts the rest of the walk.
type Condition struct {
	URL    string
	Kind   ConditionKind
	Detail string

	// Attempts is the number of fetch attempts made, for fetch failures.
	Attempts int
}

// String formats the condition for display.
func (c Condition) String() string {
	return fmt.Sprintf("%s %s: %s", c.Kind, c.URL, c.Detail)
}

// URLFilter specifies patterns for including/excluding URLs.
type URLFilter struct {
	// Include patterns - if set, only URLs matching at least one pattern are included.
	Include []*regexp.Regexp

	// Exclude patterns - URLs matching any pattern are excluded.
	// Exclude is applied after Include.
	Exclude []*regexp.Regexp
}

// Match returns true if the URL passes the filter.
// If the filter is nil, all URLs pass.
func (f *URLFilter) Match(url string) bool {
	if f == nil {
		return true
	}

	if len(f.Include) > 0 {
		matched := false
		for _, re := range f.Include {
			if re.MatchString(url) {
				matched = true
				break
			}
		}
		if !matched {
			return false
		}
	}

	for _, re := range f.Exclude {
		if re.MatchString(url) {
			return false
		}
	}

	return true
}
