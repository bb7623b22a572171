package fetcher

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"rankwatch/internal/components/telemetry"
	"rankwatch/lib/restyutil"

	cloudflarebp "github.com/DaRealFreak/cloudflare-bp-go"
	"github.com/PuerkitoBio/goquery"
	"github.com/go-resty/resty/v2"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"golang.org/x/time/rate"
)

var tracer = otel.Tracer("lib/fetcher")

const (
	report_http_fetch   = "http.fetch"
	report_http_consent = "http.consent"
)

// HTTPFetcher fetches pages without running scripts. It only works for pages
// whose ranking table is server rendered.
type HTTPFetcher struct {
	http *resty.Client
	opts Options
	tel  telemetry.API
}

func NewHTTPFetcher(opts Options, tel telemetry.API) (HTTPFetcher, error) {
	tel = telemetry.NewScopedAPI("http_fetcher", tel)

	client := resty.New()
	jar, err := cookiejar.New(nil)
	if err != nil {
		return HTTPFetcher{}, err
	}
	client.SetCookieJar(jar)
	client.GetClient().Transport = cloudflarebp.AddCloudFlareByPass(client.GetClient().Transport)

	if opts.UserAgent != "" {
		client.SetHeader("user-agent", opts.UserAgent)
	}
	client.SetHeaders(opts.Headers)
	for _, c := range opts.Cookies {
		client.SetCookie(&http.Cookie{
			Name:   c.Name,
			Value:  c.Value,
			Domain: c.Domain,
			Path:   c.Path,
		})
	}
	if opts.NavigationTimeout > 0 {
		client.SetTimeout(opts.NavigationTimeout)
	}

	// 1 request per second, the ranking host is not ours
	rateLimiter := rate.NewLimiter(1, 1)
	client.OnBeforeRequest(func(_ *resty.Client, req *resty.Request) error {
		return rateLimiter.Wait(req.Context())
	})

	telemetry.InstrumentResty(client, tel)
	if opts.DumpDir != "" {
		output, err := restyutil.NewDirOutput(opts.DumpDir)
		if err != nil {
			return HTTPFetcher{}, err
		}
		restyutil.DumpMessages(client, output)
	}

	return HTTPFetcher{http: client, opts: opts, tel: tel}, nil
}

func (f HTTPFetcher) get(ctx context.Context, target string) (*goquery.Document, string, error) {
	res, err := f.http.R().
		SetContext(ctx).
		Get(target)
	if err != nil {
		return nil, "", err
	}
	if res.IsError() {
		return nil, "", fmt.Errorf("unexpected status %s from %s", res.Status(), target)
	}
	doc, err := goquery.NewDocumentFromReader(bytes.NewBuffer(res.Body()))
	if err != nil {
		return nil, "", err
	}
	doc.Url = res.RawResponse.Request.URL
	return doc, res.String(), nil
}

func (f HTTPFetcher) Fetch(ctx context.Context, target string) (string, error) {
	ctx, span := tracer.Start(ctx, "http:Fetch")
	defer span.End()
	target = WrapAgeGate(f.opts.AgeGate, target)
	span.SetAttributes(attribute.String("url", target))

	doc, markup, err := f.get(ctx, target)
	if err != nil {
		f.tel.ReportBroken(report_http_fetch, err, target)
		span.SetStatus(codes.Error, err.Error())
		return "", err
	}

	if f.opts.WaitSelector != "" && doc.Find(f.opts.WaitSelector).Length() == 0 && f.opts.ConsentSelector != "" {
		href, ok := doc.Find(f.opts.ConsentSelector).First().Attr("href")
		if ok {
			next, err := resolveHref(doc.Url, href)
			if err != nil {
				span.SetStatus(codes.Error, err.Error())
				return "", err
			}
			f.tel.ReportDebug(report_http_consent, next)
			doc, markup, err = f.get(ctx, next)
			if err != nil {
				f.tel.ReportBroken(report_http_consent, err, next)
				span.SetStatus(codes.Error, err.Error())
				return "", err
			}
		}
	}

	if f.opts.WaitSelector != "" && doc.Find(f.opts.WaitSelector).Length() == 0 {
		err = fmt.Errorf("%w: %s", ErrSelectorTimeout, f.opts.WaitSelector)
		span.SetStatus(codes.Error, err.Error())
		return "", err
	}
	return markup, nil
}

func (f HTTPFetcher) Close() error {
	return nil
}

func resolveHref(base *url.URL, href string) (string, error) {
	ref, err := url.Parse(href)
	if err != nil {
		return "", err
	}
	if base == nil {
		return ref.String(), nil
	}
	return base.ResolveReference(ref).String(), nil
}
