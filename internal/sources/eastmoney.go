package sources

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"ashcli/pkg/contracts/domain"
)

const (
	defaultEastmoneyListURL   = "https://02.push2.eastmoney.com/api/qt/clist/get"
	defaultEastmoneyDetailURL = "https://push2.eastmoney.com/api/qt/stock/get"

	// Server-side totals are advisory; the hard cap guarantees termination
	// even when the endpoint keeps returning pages past its reported total.
	defaultEastmoneyPageSize = 100
	defaultEastmoneyPageCap  = 2000

	// Filter covering SZ main board, ChiNext, SH main board and STAR.
	eastmoneyUniverseFilter = "m:0 t:6,m:0 t:80,m:1 t:2,m:1 t:23"
)

// EastmoneyConfig tunes the eastmoney adapter. Zero values fall back to the
// defaults above.
type EastmoneyConfig struct {
	ListURL   string
	DetailURL string
	PageSize  int
	PageCap   int
	PageDelay time.Duration
	UserAgent string
}

// Eastmoney reads the eastmoney push2 quote API: a paginated `clist` universe
// endpoint and a per-security `stock/get` snapshot. It is the primary source.
type Eastmoney struct {
	cfg    EastmoneyConfig
	client *http.Client
	logger *slog.Logger
}

// NewEastmoney creates the eastmoney adapter.
func NewEastmoney(cfg EastmoneyConfig, client *http.Client, logger *slog.Logger) *Eastmoney {
	if cfg.ListURL == "" {
		cfg.ListURL = defaultEastmoneyListURL
	}
	if cfg.DetailURL == "" {
		cfg.DetailURL = defaultEastmoneyDetailURL
	}
	if cfg.PageSize <= 0 {
		cfg.PageSize = defaultEastmoneyPageSize
	}
	if cfg.PageCap <= 0 {
		cfg.PageCap = defaultEastmoneyPageCap
	}
	if client == nil {
		client = &http.Client{Timeout: 15 * time.Second}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Eastmoney{
		cfg:    cfg,
		client: client,
		logger: logger.With(slog.String("source", "eastmoney")),
	}
}

// Name implements Source.
func (e *Eastmoney) Name() string { return "eastmoney" }

// ListSecurities pages through the clist endpoint until a page comes back
// empty, the page count computed from the reported total is reached, or the
// hard page cap is hit. The trade date is ignored; the endpoint only serves
// the current universe.
func (e *Eastmoney) ListSecurities(ctx context.Context, _ string) ([]domain.Security, error) {
	var all []domain.Security
	totalPages := 0

	for page := 1; page <= e.cfg.PageCap; page++ {
		items, total, err := e.fetchListPage(ctx, page)
		if err != nil {
			return nil, fmt.Errorf("eastmoney list page %d: %w", page, err)
		}

		if page == 1 {
			if total == 0 {
				return nil, nil
			}
			totalPages = (total + e.cfg.PageSize - 1) / e.cfg.PageSize
			e.logger.Debug("universe size reported",
				slog.Int("total", total),
				slog.Int("pages", totalPages))
		}

		if len(items) == 0 {
			break
		}
		all = append(all, items...)

		if totalPages > 0 && page >= totalPages {
			break
		}
		if e.cfg.PageDelay > 0 {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(e.cfg.PageDelay):
			}
		}
	}

	return all, nil
}

// fetchListPage requests one clist page and returns its parsed items plus the
// server-reported total item count.
func (e *Eastmoney) fetchListPage(ctx context.Context, page int) ([]domain.Security, int, error) {
	params := url.Values{
		"pn":     {fmt.Sprintf("%d", page)},
		"pz":     {fmt.Sprintf("%d", e.cfg.PageSize)},
		"po":     {"1"},
		"np":     {"1"},
		"fltt":   {"2"},
		"invt":   {"2"},
		"fid":    {"f3"},
		"fs":     {eastmoneyUniverseFilter},
		"fields": {"f12,f14"},
	}

	body, err := e.get(ctx, e.cfg.ListURL, params)
	if err != nil {
		return nil, 0, err
	}

	var envelope struct {
		Data *struct {
			Total int               `json:"total"`
			Diff  []json.RawMessage `json:"diff"`
		} `json:"data"`
	}
	if err := json.Unmarshal(body, &envelope); err != nil {
		return nil, 0, fmt.Errorf("decode list response: %w", err)
	}
	if envelope.Data == nil {
		return nil, 0, nil
	}

	items := make([]domain.Security, 0, len(envelope.Data.Diff))
	for _, raw := range envelope.Data.Diff {
		fields := decodeFieldBag(raw)
		code := fieldString(fields, "f12")
		if code == "" {
			continue
		}
		items = append(items, domain.Security{
			Code: prefixBareCode(code),
			Name: fieldString(fields, "f14"),
		})
	}
	return items, envelope.Data.Total, nil
}

// FetchIndicators reads the stock/get snapshot for one code. Prices come back
// scaled by 100; valuation ratios are plain floats or "-" when absent.
func (e *Eastmoney) FetchIndicators(ctx context.Context, code, _ string) (*domain.IndicatorRecord, error) {
	market := "0"
	if strings.HasPrefix(strings.ToLower(code), "sh.") {
		market = "1"
	}
	params := url.Values{
		"fltt":   {"2"},
		"invt":   {"2"},
		"fields": {"f58,f43,f164,f169,f167,f173,f186,f187,f116"},
		"secid":  {fmt.Sprintf("%s.%s", market, domain.BareCode(code))},
	}

	body, err := e.get(ctx, e.cfg.DetailURL, params)
	if err != nil {
		return nil, err
	}

	var envelope struct {
		Data json.RawMessage `json:"data"`
	}
	if err := json.Unmarshal(body, &envelope); err != nil {
		return nil, fmt.Errorf("decode detail response: %w", err)
	}
	fields := decodeFieldBag(envelope.Data)
	if len(fields) == 0 {
		return nil, ErrUnusableResult
	}

	record := domain.NewIdentityRecord(code, fieldString(fields, "f58"))
	record.ClosePrice = fieldFloat(fields, "f43") / 100
	record.PETTM = fieldFloat(fields, "f164")
	record.PBRatio = fieldFloat(fields, "f169")
	record.ROE = fieldFloat(fields, "f173") / 100
	record.GrossMargin = fieldFloat(fields, "f186") / 100
	record.NetMargin = fieldFloat(fields, "f187") / 100
	if marketCap := fieldFloat(fields, "f116"); marketCap != 0 {
		record.Extra = map[string]float64{"total_market_cap": marketCap}
	}
	return record, nil
}

// get performs one GET with the browser-like headers the portal expects and
// returns the response body.
func (e *Eastmoney) get(ctx context.Context, rawURL string, params url.Values) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL+"?"+params.Encode(), nil)
	if err != nil {
		return nil, err
	}
	if e.cfg.UserAgent != "" {
		req.Header.Set("User-Agent", e.cfg.UserAgent)
	}

	resp, err := e.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status %d", resp.StatusCode)
	}
	return readBody(resp)
}

// prefixBareCode converts an unprefixed eastmoney code to the exchange-tagged
// form: 6xxxxx trades in Shanghai, everything else in Shenzhen.
func prefixBareCode(code string) string {
	if strings.HasPrefix(code, "6") {
		return "sh." + code
	}
	return "sz." + code
}
