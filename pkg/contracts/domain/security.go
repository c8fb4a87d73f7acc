package domain

import "strings"

// Security identifies one tradable instrument in the collected universe.
// Code carries the exchange prefix (e.g. "sh.600000", "sz.300750").
type Security struct {
	Code string `json:"code" validate:"required"`
	Name string `json:"name"`
}

// Board represents the market-listing segment a security belongs to.
type Board string

const (
	// BoardMain covers the Shanghai and Shenzhen main boards.
	BoardMain Board = "main"
	// BoardChiNext covers the Shenzhen growth enterprise market (sz.300).
	BoardChiNext Board = "chinext"
	// BoardSTAR covers the Shanghai sci-tech innovation board (sh.688).
	BoardSTAR Board = "star"
	// BoardOther covers codes outside the three tracked segments. They are
	// kept in the combined output but excluded from per-board tables.
	BoardOther Board = "other"
)

// String returns the display label used in output file names and sheets.
func (b Board) String() string {
	switch b {
	case BoardMain:
		return "MainBoard"
	case BoardChiNext:
		return "ChiNext"
	case BoardSTAR:
		return "STAR"
	default:
		return "Other"
	}
}

// TrackedBoards lists the segments that get their own output table.
func TrackedBoards() []Board {
	return []Board{BoardMain, BoardChiNext, BoardSTAR}
}

// ClassifyBoard maps a prefixed security code to its market segment.
// The STAR prefix is checked before the general Shanghai main-board
// prefixes because both start with "sh.6".
func ClassifyBoard(code string) Board {
	c := strings.ToLower(code)
	switch {
	case strings.HasPrefix(c, "sh.688"):
		return BoardSTAR
	case strings.HasPrefix(c, "sh.600"), strings.HasPrefix(c, "sh.601"), strings.HasPrefix(c, "sh.603"):
		return BoardMain
	case strings.HasPrefix(c, "sz.000"):
		return BoardMain
	case strings.HasPrefix(c, "sz.300"):
		return BoardChiNext
	default:
		return BoardOther
	}
}

// BareCode strips the exchange prefix from a security code for output.
func BareCode(code string) string {
	for _, prefix := range []string{"sh.", "sz.", "bj."} {
		if strings.HasPrefix(code, prefix) {
			return code[len(prefix):]
		}
	}
	return code
}

// NormalizeCode lowercases the exchange prefix so codes gathered from
// different sources deduplicate consistently.
func NormalizeCode(code string) string {
	return strings.ToLower(strings.TrimSpace(code))
}
