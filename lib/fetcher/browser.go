package fetcher

import (
	"context"
	"errors"
	"fmt"
	"rankwatch/internal/components/telemetry"
	"time"

	"github.com/chromedp/cdproto/cdp"
	"github.com/chromedp/cdproto/emulation"
	"github.com/chromedp/cdproto/network"
	"github.com/chromedp/chromedp"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

const (
	report_browser_fetch   = "browser.fetch"
	report_browser_consent = "browser.consent"
)

const consentTimeout = 10 * time.Second

type BrowserOptions struct {
	Options
	// RemoteUrl connects to an already running browser over the devtools
	// protocol instead of launching one.
	RemoteUrl      string
	ExecPath       string
	Headless       bool
	ViewportWidth  int64
	ViewportHeight int64
}

func DefaultBrowserOptions() BrowserOptions {
	return BrowserOptions{
		Options:        DefaultOptions(),
		Headless:       true,
		ViewportWidth:  1280,
		ViewportHeight: 900,
	}
}

// BrowserFetcher renders pages in a single long-lived browser, each fetch gets
// a fresh tab.
type BrowserFetcher struct {
	opts          BrowserOptions
	tel           telemetry.API
	browser       context.Context
	cancelAlloc   context.CancelFunc
	cancelBrowser context.CancelFunc
}

func NewBrowserFetcher(ctx context.Context, opts BrowserOptions, tel telemetry.API) (*BrowserFetcher, error) {
	tel = telemetry.NewScopedAPI("browser_fetcher", tel)

	var alloc context.Context
	var cancelAlloc context.CancelFunc
	if opts.RemoteUrl != "" {
		alloc, cancelAlloc = chromedp.NewRemoteAllocator(ctx, opts.RemoteUrl)
	} else {
		allocOpts := append(chromedp.DefaultExecAllocatorOptions[:],
			chromedp.Flag("headless", opts.Headless),
			chromedp.Flag("disable-gpu", true),
			chromedp.Flag("no-sandbox", true),
			chromedp.Flag("disable-dev-shm-usage", true),
		)
		if opts.UserAgent != "" {
			allocOpts = append(allocOpts, chromedp.UserAgent(opts.UserAgent))
		}
		if opts.ExecPath != "" {
			allocOpts = append(allocOpts, chromedp.ExecPath(opts.ExecPath))
		}
		alloc, cancelAlloc = chromedp.NewExecAllocator(ctx, allocOpts...)
	}

	browser, cancelBrowser := chromedp.NewContext(alloc)
	// the first Run starts the browser, it must not be bound to a
	// per-fetch timeout
	err := chromedp.Run(browser)
	if err != nil {
		cancelBrowser()
		cancelAlloc()
		return nil, fmt.Errorf("launch browser: %w", err)
	}

	return &BrowserFetcher{
		opts:          opts,
		tel:           tel,
		browser:       browser,
		cancelAlloc:   cancelAlloc,
		cancelBrowser: cancelBrowser,
	}, nil
}

func (f *BrowserFetcher) prepare() chromedp.Tasks {
	tasks := chromedp.Tasks{network.Enable()}
	if len(f.opts.Headers) > 0 {
		headers := network.Headers{}
		for k, v := range f.opts.Headers {
			headers[k] = v
		}
		tasks = append(tasks, network.SetExtraHTTPHeaders(headers))
	}
	if f.opts.UserAgent != "" {
		tasks = append(tasks, emulation.SetUserAgentOverride(f.opts.UserAgent))
	}
	if len(f.opts.Cookies) > 0 {
		tasks = append(tasks, chromedp.ActionFunc(func(ctx context.Context) error {
			for _, c := range f.opts.Cookies {
				err := network.SetCookie(c.Name, c.Value).
					WithDomain(c.Domain).
					WithPath(c.Path).
					Do(ctx)
				if err != nil {
					return fmt.Errorf("set cookie %s: %w", c.Name, err)
				}
			}
			return nil
		}))
	}
	if f.opts.ViewportWidth > 0 && f.opts.ViewportHeight > 0 {
		tasks = append(tasks, chromedp.EmulateViewport(f.opts.ViewportWidth, f.opts.ViewportHeight))
	}
	return tasks
}

func runWithTimeout(ctx context.Context, timeout time.Duration, actions ...chromedp.Action) error {
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}
	return chromedp.Run(ctx, actions...)
}

func (f *BrowserFetcher) consent(tab context.Context) error {
	var nodes []*cdp.Node
	err := runWithTimeout(
		tab, consentTimeout,
		chromedp.Nodes(f.opts.ConsentSelector, &nodes, chromedp.ByQuery, chromedp.AtLeast(0)),
	)
	if err != nil || len(nodes) == 0 {
		return err
	}
	f.tel.ReportDebug(report_browser_consent, f.opts.ConsentSelector)
	return runWithTimeout(
		tab, f.opts.NavigationTimeout,
		chromedp.Click(f.opts.ConsentSelector, chromedp.ByQuery, chromedp.NodeVisible),
	)
}

func (f *BrowserFetcher) Fetch(ctx context.Context, target string) (string, error) {
	ctx, span := tracer.Start(ctx, "browser:Fetch")
	defer span.End()
	target = WrapAgeGate(f.opts.AgeGate, target)
	span.SetAttributes(attribute.String("url", target))

	tab, cancelTab := chromedp.NewContext(f.browser)
	defer cancelTab()
	// the tab lives under the browser context, stop it when the caller does
	stop := context.AfterFunc(ctx, cancelTab)
	defer stop()

	fail := func(err error) (string, error) {
		f.tel.ReportBroken(report_browser_fetch, err, target)
		span.SetStatus(codes.Error, err.Error())
		return "", err
	}

	err := chromedp.Run(tab, f.prepare())
	if err != nil {
		return fail(err)
	}
	err = runWithTimeout(tab, f.opts.NavigationTimeout, chromedp.Navigate(target))
	if err != nil {
		return fail(fmt.Errorf("navigate: %w", err))
	}

	if f.opts.ConsentSelector != "" {
		err = f.consent(tab)
		if err != nil {
			return fail(fmt.Errorf("consent: %w", err))
		}
	}

	if f.opts.WaitSelector != "" {
		err = runWithTimeout(
			tab, f.opts.WaitTimeout,
			chromedp.WaitReady(f.opts.WaitSelector, chromedp.ByQuery),
		)
		if errors.Is(err, context.DeadlineExceeded) {
			return fail(fmt.Errorf("%w: %s", ErrSelectorTimeout, f.opts.WaitSelector))
		}
		if err != nil {
			return fail(err)
		}
	}

	var markup string
	err = chromedp.Run(tab, chromedp.OuterHTML("html", &markup, chromedp.ByQuery))
	if err != nil {
		return fail(err)
	}
	return markup, nil
}

func (f *BrowserFetcher) Close() error {
	err := chromedp.Cancel(f.browser)
	f.cancelBrowser()
	f.cancelAlloc()
	return err
}
