package main

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/fwojciec/sitemapper"
)

// Run executes the resolve command.
func (c *ResolveCmd) Run(deps *Dependencies) error {
	result, err := deps.Sitemaps.Resolve(deps.Ctx, c.URL, deps.Options)
	if err != nil {
		fmt.Fprintf(deps.Stderr, "error: %s\n", sitemapper.ErrorMessage(err))
		return err
	}
	return writeResult(deps, result)
}

// Run executes the homepage command.
func (c *HomepageCmd) Run(deps *Dependencies) error {
	result, err := deps.Sitemaps.ResolveHomepage(deps.Ctx, c.URL, deps.Options)
	if err != nil {
		fmt.Fprintf(deps.Stderr, "error: %s\n", sitemapper.ErrorMessage(err))
		return err
	}
	return writeResult(deps, result)
}

// pageJSON is the JSON lines representation of a page.
type pageJSON struct {
	URL             string     `json:"url"`
	Priority        float64    `json:"priority"`
	LastModified    *time.Time `json:"lastmod,omitempty"`
	ChangeFrequency string     `json:"changefreq,omitempty"`
	News            *newsJSON  `json:"news,omitempty"`
	Image           *imageJSON `json:"image,omitempty"`
}

type newsJSON struct {
	Title               string    `json:"title"`
	PublishDate         time.Time `json:"publish_date"`
	PublicationName     string    `json:"publication_name,omitempty"`
	PublicationLanguage string    `json:"publication_language,omitempty"`
	Access              string    `json:"access,omitempty"`
	Genres              []string  `json:"genres,omitempty"`
	Keywords            []string  `json:"keywords,omitempty"`
	StockTickers        []string  `json:"stock_tickers,omitempty"`
}

type imageJSON struct {
	URL     string `json:"url"`
	Title   string `json:"title,omitempty"`
	Caption string `json:"caption,omitempty"`
}

func newPageJSON(p *sitemapper.Page) pageJSON {
	out := pageJSON{
		URL:             p.URL,
		Priority:        p.Priority,
		ChangeFrequency: string(p.ChangeFrequency),
	}
	if !p.LastModified.IsZero() {
		lastmod := p.LastModified
		out.LastModified = &lastmod
	}
	if s := p.NewsStory; s != nil {
		out.News = &newsJSON{
			Title:               s.Title,
			PublishDate:         s.PublishDate,
			PublicationName:     s.PublicationName,
			PublicationLanguage: s.PublicationLanguage,
			Access:              s.Access,
			Genres:              s.Genres,
			Keywords:            s.Keywords,
			StockTickers:        s.StockTickers,
		}
	}
	if i := p.Image; i != nil {
		out.Image = &imageJSON{URL: i.URL, Title: i.Title, Caption: i.Caption}
	}
	return out
}

// writeResult prints pages to stdout and conditions to stderr.
func writeResult(deps *Dependencies, result *sitemapper.Result) error {
	enc := json.NewEncoder(deps.Stdout)
	for _, p := range result.Pages {
		if !deps.JSON {
			fmt.Fprintln(deps.Stdout, p.URL)
			continue
		}
		if err := enc.Encode(newPageJSON(p)); err != nil {
			return fmt.Errorf("writing page: %w", err)
		}
	}

	for _, c := range result.Conditions {
		fmt.Fprintf(deps.Stderr, "%s\n", c)
	}
	if !result.Complete() {
		fmt.Fprintf(deps.Stderr, "Resolved %d pages; some sitemaps could not be resolved\n", len(result.Pages))
	}
	return nil
}
