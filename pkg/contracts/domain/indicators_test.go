package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewIdentityRecord(t *testing.T) {
	r := NewIdentityRecord("sh.600000", "")
	assert.Equal(t, "sh.600000", r.Code)
	assert.Equal(t, "sh.600000", r.Name, "name defaults to the code")
	assert.True(t, r.IdentityOnly())

	r = NewIdentityRecord("sh.600000", "SPDB")
	assert.Equal(t, "SPDB", r.Name)
}

func TestIdentityOnly(t *testing.T) {
	r := NewIdentityRecord("sz.000001", "PAB")
	assert.True(t, r.IdentityOnly())

	r.PETTM = 5.2
	assert.False(t, r.IdentityOnly())

	r = NewIdentityRecord("sz.000001", "PAB")
	r.Extra = map[string]float64{"turnover": 1.3}
	assert.False(t, r.IdentityOnly(), "passthrough fields count as substance")
}

func TestMergeFirstWriterWins(t *testing.T) {
	primary := &IndicatorRecord{
		Code:       "sh.600000",
		Name:       "SPDB",
		ClosePrice: 10.5,
		PETTM:      6.0,
	}
	secondary := &IndicatorRecord{
		Code:       "sh.600000",
		Name:       "Shanghai Pudong Development Bank",
		ClosePrice: 10.6, // must not overwrite the primary value
		PBRatio:    0.8,  // fills a gap
		Extra:      map[string]float64{"market_cap": 3.1e11},
	}

	primary.Merge(secondary)

	assert.Equal(t, 10.5, primary.ClosePrice, "earlier source keeps its value")
	assert.Equal(t, 6.0, primary.PETTM)
	assert.Equal(t, 0.8, primary.PBRatio, "later source fills absent fields")
	assert.Equal(t, "SPDB", primary.Name)
	assert.Equal(t, 3.1e11, primary.Extra["market_cap"])
}

func TestMergeIntoPlaceholder(t *testing.T) {
	placeholder := NewIdentityRecord("sz.300750", "")
	detail := &IndicatorRecord{Code: "sz.300750", Name: "CATL", PETTM: 22.4}

	placeholder.Merge(detail)

	assert.Equal(t, "CATL", placeholder.Name, "placeholder name gives way to a real one")
	assert.Equal(t, 22.4, placeholder.PETTM)
}

func TestMergeNil(t *testing.T) {
	r := NewIdentityRecord("sh.600000", "SPDB")
	r.Merge(nil)
	assert.True(t, r.IdentityOnly())
}

func TestClone(t *testing.T) {
	orig := &IndicatorRecord{
		Code:  "sh.688001",
		PETTM: 40,
		Extra: map[string]float64{"amplitude": 2.2},
	}
	cp := orig.Clone()
	require.Equal(t, orig, cp)

	cp.PETTM = 41
	cp.Extra["amplitude"] = 9
	assert.Equal(t, 40.0, orig.PETTM)
	assert.Equal(t, 2.2, orig.Extra["amplitude"], "clone does not share the extra map")
}
