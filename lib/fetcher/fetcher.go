// Package fetcher retrieves the rendered markup of ranking pages, either
// through a headless browser or a plain HTTP client.
package fetcher

import (
	"context"
	"errors"
	"net/url"
	"time"
)

// ErrSelectorTimeout is returned when the page never presented the awaited
// selector.
var ErrSelectorTimeout = errors.New("wait selector did not appear")

// AGE_GATE_DMM is the age confirmation endpoint that redirects to its rurl
// query parameter once the visitor has declared their age.
const AGE_GATE_DMM = "https://www.dmm.co.jp/age_check/=/declared=yes/"

type Cookie struct {
	Name   string `json:"name"`
	Value  string `json:"value"`
	Domain string `json:"domain"`
	Path   string `json:"path"`
}

type Options struct {
	UserAgent string
	Headers   map[string]string
	Cookies   []Cookie
	// AgeGate, when set, wraps every url as AgeGate?rurl=<url>.
	AgeGate string
	// ConsentSelector is clicked (or followed) once if present before waiting.
	ConsentSelector   string
	WaitSelector      string
	NavigationTimeout time.Duration
	WaitTimeout       time.Duration
	// DumpDir, when set, receives a copy of every HTTP exchange. Only the
	// HTTP fetcher honors it.
	DumpDir string
}

func DefaultOptions() Options {
	return Options{
		UserAgent: "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36",
		Headers: map[string]string{
			"Accept-Language": "ja-JP,ja;q=0.9",
		},
		AgeGate:           AGE_GATE_DMM,
		ConsentSelector:   "a[href*='declared=yes']",
		WaitSelector:      "a.listbox-rank.js-lc-i3Link",
		NavigationTimeout: 90 * time.Second,
		WaitTimeout:       60 * time.Second,
	}
}

// Fetcher returns the markup of a page after it has settled.
type Fetcher interface {
	Fetch(ctx context.Context, target string) (string, error)
	Close() error
}

// WrapAgeGate returns target routed through gate, or target itself when gate
// is empty.
func WrapAgeGate(gate, target string) string {
	if gate == "" {
		return target
	}
	return gate + "?rurl=" + url.QueryEscape(target)
}
