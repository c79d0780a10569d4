// Package sitemapper discovers every page a website advertises through its
// sitemap infrastructure. It fetches a root sitemap, detects its format,
// extracts pages or nested sitemap references, and recurses until a flat,
// deduplicated catalog of pages is produced.
//
// This package contains domain types and interfaces following Ben Johnson's
// Standard Package Layout. Implementations live in subdirectories named
// after their primary dependency (e.g., etree/, xmlquery/, rod/).
package sitemapper
