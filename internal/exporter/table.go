package exporter

import (
	"fmt"
	"time"

	"ashcli/pkg/contracts/domain"
)

// combinedLabel is the sink label for the unfiltered all-boards table.
const combinedLabel = "combined"

// tableHeaders returns the output column set. The combined table carries an
// extra board column; per-board tables do not.
func tableHeaders(withBoard bool) []string {
	headers := []string{
		"Code", "Name", "Close", "PE(TTM)", "PB", "EPS", "BVPS",
		"Revenue", "Revenue YoY", "Net Profit YoY", "Attributable YoY",
		"EPS Growth", "Non-recurring Profit", "Non-recurring YoY",
		"Gross Margin", "Net Margin", "Debt/Asset", "ROE",
		"Goodwill Ratio", "Pledge Ratio", "Dividend Yield", "Payout Ratio",
	}
	if withBoard {
		headers = append(headers, "Board")
	}
	return headers
}

// tableRow renders one record. Codes lose their exchange prefix so the
// column matches what brokers display.
func tableRow(rec domain.BoardRecord, withBoard bool) []string {
	r := rec.Record
	row := []string{
		domain.BareCode(r.Code),
		r.Name,
		formatFloat(r.ClosePrice),
		formatFloat(r.PETTM),
		formatFloat(r.PBRatio),
		formatFloat(r.EPS),
		formatFloat(r.BVPS),
		formatFloat(r.TotalRevenue),
		formatRatio(r.RevenueYoY),
		formatRatio(r.NetProfitYoY),
		formatRatio(r.AttributableYoY),
		formatRatio(r.EPSGrowth),
		formatFloat(r.NonRecurringProfit),
		formatRatio(r.NonRecurringYoY),
		formatRatio(r.GrossMargin),
		formatRatio(r.NetMargin),
		formatRatio(r.DebtToAsset),
		formatRatio(r.ROE),
		formatRatio(r.GoodwillRatio),
		formatRatio(r.PledgeRatio),
		formatRatio(r.DividendYield),
		formatRatio(r.PayoutRatio),
	}
	if withBoard {
		row = append(row, rec.Board.String())
	}
	return row
}

// buildTable renders a full header+rows table for one label.
func buildTable(records []domain.BoardRecord, label string) (headers []string, rows [][]string) {
	withBoard := label == combinedLabel
	headers = tableHeaders(withBoard)
	rows = make([][]string, 0, len(records))
	for _, rec := range records {
		rows = append(rows, tableRow(rec, withBoard))
	}
	return headers, rows
}

// outputName builds a timestamped file name for one table.
func outputName(label, ext string, at time.Time) string {
	return fmt.Sprintf("%s_indicators_%s.%s", label, at.Format("20060102_150405"), ext)
}
