package sources

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"regexp"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"

	"ashcli/pkg/contracts/domain"
)

const (
	defaultSZSEListURL   = "https://www.szse.cn/api/report/ShowReport"
	defaultSZSEDetailURL = "https://www.szse.cn/certificate/individual/index.html"
)

// SZSEConfig tunes the Shenzhen exchange adapter.
type SZSEConfig struct {
	ListURL   string
	DetailURL string
	UserAgent string
}

// SZSE reads the Shenzhen exchange portal: the full listing comes down as one
// XLSX report, and per-security details are scraped from the individual
// security page. Only Shenzhen-listed codes come from this source.
type SZSE struct {
	cfg    SZSEConfig
	client *http.Client
	logger *slog.Logger
}

// NewSZSE creates the Shenzhen exchange adapter.
func NewSZSE(cfg SZSEConfig, client *http.Client, logger *slog.Logger) *SZSE {
	if cfg.ListURL == "" {
		cfg.ListURL = defaultSZSEListURL
	}
	if cfg.DetailURL == "" {
		cfg.DetailURL = defaultSZSEDetailURL
	}
	if client == nil {
		client = &http.Client{Timeout: 20 * time.Second}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &SZSE{
		cfg:    cfg,
		client: client,
		logger: logger.With(slog.String("source", "szse")),
	}
}

// Name implements Source.
func (s *SZSE) Name() string { return "szse" }

// ListSecurities downloads the exchange's listing report (an XLSX workbook)
// and extracts code and short name from the A-share columns. The report is a
// point-in-time snapshot; the date parameter is ignored.
func (s *SZSE) ListSecurities(ctx context.Context, _ string) ([]domain.Security, error) {
	params := url.Values{
		"SHOWTYPE":  {"xlsx"},
		"CATALOGID": {"1110"},
		"TABKEY":    {"tab1"},
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.cfg.ListURL+"?"+params.Encode(), nil)
	if err != nil {
		return nil, err
	}
	if s.cfg.UserAgent != "" {
		req.Header.Set("User-Agent", s.cfg.UserAgent)
	}
	req.Header.Set("Referer", "https://www.szse.cn/")

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
	return parseSZSEListing(body)
}

// parseSZSEListing extracts securities from the listing workbook. Column
// positions float between report revisions, so columns are located by header
// text rather than index.
func parseSZSEListing(workbook []byte) ([]domain.Security, error) {
	f, err := excelize.OpenReader(bytes.NewReader(workbook))
	if err != nil {
		return nil, fmt.Errorf("open listing workbook: %w", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, fmt.Errorf("listing workbook has no sheets")
	}
	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("read listing sheet: %w", err)
	}
	if len(rows) < 2 {
		return nil, nil
	}

	codeCol, nameCol := -1, -1
	for i, header := range rows[0] {
		h := strings.TrimSpace(header)
		switch {
		case strings.Contains(h, "A股代码") || strings.EqualFold(h, "A-share Code"):
			codeCol = i
		case strings.Contains(h, "A股简称") || strings.EqualFold(h, "A-share Abbreviation"):
			nameCol = i
		}
	}
	if codeCol < 0 {
		return nil, fmt.Errorf("listing sheet has no code column")
	}

	items := make([]domain.Security, 0, len(rows)-1)
	for _, row := range rows[1:] {
		if codeCol >= len(row) {
			continue
		}
		code := strings.TrimSpace(row[codeCol])
		if code == "" {
			continue
		}
		name := ""
		if nameCol >= 0 && nameCol < len(row) {
			name = strings.TrimSpace(row[nameCol])
		}
		items = append(items, domain.Security{Code: "sz." + code, Name: name})
	}
	return items, nil
}

// Patterns for the individual-security page. The page is server-rendered
// key/value markup; selector-level robustness is explicitly not a goal.
var (
	szseNameRe = regexp.MustCompile(`"agjc"[^>]*>\s*<a[^>]*>([^<]+)</a>`)
	szseKVRe   = regexp.MustCompile(`<td[^>]*>\s*([^<:]+)[:：]?\s*</td>\s*<td[^>]*>\s*([^<]+)\s*</td>`)
)

// szseFieldNames maps row labels on the security page to record fields.
var szseFieldNames = map[string]string{
	"最新价":   "close_price",
	"市盈率":   "pe_ttm",
	"市净率":   "pb_ratio",
	"每股收益":  "eps",
	"每股净资产": "bvps",
}

// FetchIndicators scrapes the individual-security page for one Shenzhen code.
func (s *SZSE) FetchIndicators(ctx context.Context, code, _ string) (*domain.IndicatorRecord, error) {
	if !strings.HasPrefix(strings.ToLower(code), "sz.") {
		return nil, ErrNotSupported
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet,
		s.cfg.DetailURL+"?code="+domain.BareCode(code), nil)
	if err != nil {
		return nil, err
	}
	if s.cfg.UserAgent != "" {
		req.Header.Set("User-Agent", s.cfg.UserAgent)
	}
	req.Header.Set("Referer", "https://www.szse.cn/")

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
	return parseSZSEDetail(code, string(body)), nil
}

// parseSZSEDetail extracts the labelled value rows from the security page.
func parseSZSEDetail(code, page string) *domain.IndicatorRecord {
	record := domain.NewIdentityRecord(code, "")
	if m := szseNameRe.FindStringSubmatch(page); m != nil {
		record.Name = strings.TrimSpace(m[1])
	}

	for _, m := range szseKVRe.FindAllStringSubmatch(page, -1) {
		label := strings.TrimSpace(m[1])
		value := SafeFloat(m[2])
		if value == 0 {
			continue
		}
		switch szseFieldNames[label] {
		case "close_price":
			record.ClosePrice = value
		case "pe_ttm":
			record.PETTM = value
		case "pb_ratio":
			record.PBRatio = value
		case "eps":
			record.EPS = value
		case "bvps":
			record.BVPS = value
		default:
			if record.Extra == nil {
				record.Extra = make(map[string]float64)
			}
			record.Extra[label] = value
		}
	}
	return record
}
