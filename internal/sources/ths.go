package sources

import (
	"context"
	"fmt"
	"log/slog"
	"regexp"
	"strings"

	"github.com/chromedp/chromedp"

	"ashcli/pkg/contracts/domain"
)

const defaultTHSQuoteURL = "https://stockpage.10jqka.com.cn/%s/"

// THSConfig tunes the 10jqka adapter.
type THSConfig struct {
	QuoteURL string // format string receiving the bare code
	Headless bool
}

// THS reads the 10jqka quote page. The page assembles its figures with
// JavaScript, so the adapter drives a headless browser and extracts values
// from the rendered markup. It sits last in the default priority order and
// only serves per-security fetches.
type THS struct {
	cfg    THSConfig
	logger *slog.Logger
}

// NewTHS creates the 10jqka adapter.
func NewTHS(cfg THSConfig, logger *slog.Logger) *THS {
	if cfg.QuoteURL == "" {
		cfg.QuoteURL = defaultTHSQuoteURL
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &THS{cfg: cfg, logger: logger.With(slog.String("source", "ths"))}
}

// Name implements Source.
func (t *THS) Name() string { return "ths" }

// ListSecurities is not available from the quote pages.
func (t *THS) ListSecurities(context.Context, string) ([]domain.Security, error) {
	return nil, ErrNotSupported
}

// FetchIndicators renders the quote page for one code and scrapes the
// valuation figures from the resulting HTML.
func (t *THS) FetchIndicators(ctx context.Context, code, _ string) (*domain.IndicatorRecord, error) {
	allocCtx, cancelAlloc := chromedp.NewExecAllocator(ctx,
		append(chromedp.DefaultExecAllocatorOptions[:],
			chromedp.Flag("headless", t.cfg.Headless))...)
	defer cancelAlloc()

	browserCtx, cancelBrowser := chromedp.NewContext(allocCtx)
	defer cancelBrowser()

	var html string
	err := chromedp.Run(browserCtx,
		chromedp.Navigate(fmt.Sprintf(t.cfg.QuoteURL, domain.BareCode(code))),
		chromedp.WaitReady("body"),
		chromedp.OuterHTML("html", &html),
	)
	if err != nil {
		return nil, fmt.Errorf("render quote page: %w", err)
	}

	record := parseTHSQuote(code, html)
	if record.IdentityOnly() {
		return nil, ErrUnusableResult
	}
	return record, nil
}

// Labelled figures on the rendered quote page.
var thsFieldRe = regexp.MustCompile(`(市盈率\(动\)|市盈率|市净率|每股收益|每股净资产|现价|最新价)[:：]?\s*</[a-z]+>\s*<[^>]+>\s*([-0-9.,%]+)`)

// Security name from the page title, up to the first parenthesis.
var thsTitleRe = regexp.MustCompile(`<title>\s*([^(（<]+)`)

// parseTHSQuote extracts valuation fields from the rendered page markup.
func parseTHSQuote(code, html string) *domain.IndicatorRecord {
	record := domain.NewIdentityRecord(code, "")

	if m := thsTitleRe.FindStringSubmatch(html); m != nil {
		record.Name = strings.TrimSpace(m[1])
	}

	for _, m := range thsFieldRe.FindAllStringSubmatch(html, -1) {
		value := SafeFloat(m[2])
		if value == 0 {
			continue
		}
		switch m[1] {
		case "现价", "最新价":
			if record.ClosePrice == 0 {
				record.ClosePrice = value
			}
		case "市盈率", "市盈率(动)":
			if record.PETTM == 0 {
				record.PETTM = value
			}
		case "市净率":
			if record.PBRatio == 0 {
				record.PBRatio = value
			}
		case "每股收益":
			if record.EPS == 0 {
				record.EPS = value
			}
		case "每股净资产":
			if record.BVPS == 0 {
				record.BVPS = value
			}
		}
	}
	return record
}
