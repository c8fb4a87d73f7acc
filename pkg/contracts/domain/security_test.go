package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClassifyBoard(t *testing.T) {
	tests := []struct {
		code     string
		expected Board
	}{
		{"sh.688001", BoardSTAR},
		{"sh.688981", BoardSTAR},
		{"sh.600001", BoardMain},
		{"sh.601398", BoardMain},
		{"sh.603259", BoardMain},
		{"sz.000001", BoardMain},
		{"sz.300001", BoardChiNext},
		{"sz.200001", BoardOther},
		{"bj.430047", BoardOther},
		{"SH.688001", BoardSTAR}, // case-insensitive prefixes
		{"", BoardOther},
	}

	for _, tt := range tests {
		t.Run(tt.code, func(t *testing.T) {
			assert.Equal(t, tt.expected, ClassifyBoard(tt.code))
		})
	}
}

func TestBoardString(t *testing.T) {
	assert.Equal(t, "MainBoard", BoardMain.String())
	assert.Equal(t, "ChiNext", BoardChiNext.String())
	assert.Equal(t, "STAR", BoardSTAR.String())
	assert.Equal(t, "Other", BoardOther.String())
}

func TestTrackedBoards(t *testing.T) {
	boards := TrackedBoards()
	assert.Len(t, boards, 3)
	assert.NotContains(t, boards, BoardOther)
}

func TestBareCode(t *testing.T) {
	tests := []struct {
		code     string
		expected string
	}{
		{"sh.600000", "600000"},
		{"sz.300750", "300750"},
		{"bj.430047", "430047"},
		{"600000", "600000"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.expected, BareCode(tt.code))
	}
}

func TestNormalizeCode(t *testing.T) {
	assert.Equal(t, "sh.600000", NormalizeCode("SH.600000"))
	assert.Equal(t, "sz.000001", NormalizeCode("  sz.000001 "))
}
