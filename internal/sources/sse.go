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
	defaultSSEQueryURL = "https://query.sse.com.cn/sseQuery/commonQuery.do"

	// Shanghai listing queries by stock type: 1 = main board A, 8 = STAR.
	sseListSQLID   = "COMMON_SSE_CP_GPJCTPZ_GPLB_GP_L"
	sseMarketSQLID = "COMMON_SSE_CP_GPJCTPZ_GPLB_GPGK_GSGK_C"
)

// SSEConfig tunes the Shanghai exchange adapter.
type SSEConfig struct {
	QueryURL  string
	PageSize  int
	UserAgent string
	Referer   string
}

// SSE reads the Shanghai exchange commonQuery endpoint. The endpoint wraps
// JSON in a JSONP callback; responses carry a pageHelp envelope with the full
// result list. Only Shanghai-listed codes come from this source.
type SSE struct {
	cfg    SSEConfig
	client *http.Client
	logger *slog.Logger
}

// NewSSE creates the Shanghai exchange adapter.
func NewSSE(cfg SSEConfig, client *http.Client, logger *slog.Logger) *SSE {
	if cfg.QueryURL == "" {
		cfg.QueryURL = defaultSSEQueryURL
	}
	if cfg.PageSize <= 0 {
		cfg.PageSize = 1000
	}
	if cfg.Referer == "" {
		cfg.Referer = "https://www.sse.com.cn/"
	}
	if client == nil {
		client = &http.Client{Timeout: 15 * time.Second}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &SSE{
		cfg:    cfg,
		client: client,
		logger: logger.With(slog.String("source", "sse")),
	}
}

// Name implements Source.
func (s *SSE) Name() string { return "sse" }

// ListSecurities queries the main-board and STAR listings and merges them.
// The endpoint has no per-date view; the date parameter is ignored.
func (s *SSE) ListSecurities(ctx context.Context, _ string) ([]domain.Security, error) {
	var all []domain.Security
	for _, stockType := range []string{"1", "8"} {
		items, err := s.listByType(ctx, stockType)
		if err != nil {
			return nil, fmt.Errorf("sse list type %s: %w", stockType, err)
		}
		all = append(all, items...)
	}
	return all, nil
}

// listByType fetches one listing query (a single oversized page; the SSE
// endpoint serves the whole board in one response).
func (s *SSE) listByType(ctx context.Context, stockType string) ([]domain.Security, error) {
	params := url.Values{
		"sqlId":              {sseListSQLID},
		"STOCK_TYPE":         {stockType},
		"COMPANY_STATUS":     {"2,4,5,7,8"},
		"type":               {"inParams"},
		"isPagination":       {"true"},
		"pageHelp.cacheSize": {"1"},
		"pageHelp.beginPage": {"1"},
		"pageHelp.pageNo":    {"1"},
		"pageHelp.pageSize":  {fmt.Sprintf("%d", s.cfg.PageSize)},
	}

	rows, err := s.query(ctx, params)
	if err != nil {
		return nil, err
	}

	items := make([]domain.Security, 0, len(rows))
	for _, raw := range rows {
		fields := decodeFieldBag(raw)
		code := fieldString(fields, "COMPANY_CODE")
		if code == "" {
			code = fieldString(fields, "A_STOCK_CODE")
		}
		if code == "" {
			continue
		}
		items = append(items, domain.Security{
			Code: "sh." + strings.TrimSpace(code),
			Name: fieldString(fields, "COMPANY_ABBR"),
		})
	}
	return items, nil
}

// FetchIndicators queries the company-overview record for one Shanghai code.
// Shenzhen codes are out of this source's addressing scheme.
func (s *SSE) FetchIndicators(ctx context.Context, code, _ string) (*domain.IndicatorRecord, error) {
	if !strings.HasPrefix(strings.ToLower(code), "sh.") {
		return nil, ErrNotSupported
	}

	params := url.Values{
		"sqlId":        {sseMarketSQLID},
		"COMPANY_CODE": {domain.BareCode(code)},
		"isPagination": {"false"},
	}
	rows, err := s.query(ctx, params)
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, ErrUnusableResult
	}

	fields := decodeFieldBag(rows[0])
	record := domain.NewIdentityRecord(code, fieldString(fields, "COMPANY_ABBR"))
	record.ClosePrice = fieldFloat(fields, "LAST_PRICE")
	record.PETTM = fieldFloat(fields, "PE_RATE")
	record.PBRatio = fieldFloat(fields, "PB_RATE")
	record.EPS = fieldFloat(fields, "EPS")
	record.BVPS = fieldFloat(fields, "BVPS")
	record.DividendYield = fieldFloat(fields, "DIVIDEND_YIELD") / 100
	return record, nil
}

// query performs one commonQuery call and returns the result rows, stripping
// the JSONP wrapper when present.
func (s *SSE) query(ctx context.Context, params url.Values) ([]json.RawMessage, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.cfg.QueryURL+"?"+params.Encode(), nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Referer", s.cfg.Referer)
	if s.cfg.UserAgent != "" {
		req.Header.Set("User-Agent", s.cfg.UserAgent)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status %d", resp.StatusCode)
	}
	body, err := readBody(resp)
	if err != nil {
		return nil, err
	}

	var envelope struct {
		Result []json.RawMessage `json:"result"`
	}
	if err := json.Unmarshal(stripJSONP(body), &envelope); err != nil {
		return nil, fmt.Errorf("decode query response: %w", err)
	}
	return envelope.Result, nil
}

// stripJSONP unwraps a `callback({...})` body into its JSON payload. Plain
// JSON bodies pass through unchanged.
func stripJSONP(body []byte) []byte {
	text := strings.TrimSpace(string(body))
	openIdx := strings.Index(text, "(")
	closeIdx := strings.LastIndex(text, ")")
	if openIdx > 0 && closeIdx > openIdx && !strings.HasPrefix(text, "{") && !strings.HasPrefix(text, "[") {
		return []byte(text[openIdx+1 : closeIdx])
	}
	return body
}
