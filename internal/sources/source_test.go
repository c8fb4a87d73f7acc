package sources

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"

	"ashcli/pkg/contracts/domain"
)

// stubSource is a literal injected adapter used across resolver-facing tests.
type stubSource struct {
	name string
}

func (s *stubSource) Name() string { return s.name }

func (s *stubSource) ListSecurities(context.Context, string) ([]domain.Security, error) {
	return nil, ErrNotSupported
}

func (s *stubSource) FetchIndicators(context.Context, string, string) (*domain.IndicatorRecord, error) {
	return nil, ErrNotSupported
}

func TestPriorityListRotateFront(t *testing.T) {
	a, b, c := &stubSource{"a"}, &stubSource{"b"}, &stubSource{"c"}
	list := PriorityList{a, b, c}

	rotated := list.RotateFront()
	assert.Equal(t, []string{"b", "c", "a"}, rotated.Names())
	assert.Equal(t, []string{"a", "b", "c"}, list.Names(), "original list is untouched")

	assert.Equal(t, []string{"a"}, PriorityList{a}.RotateFront().Names())
	assert.Empty(t, PriorityList{}.RotateFront())
}

func TestSafeFloat(t *testing.T) {
	tests := []struct {
		in       string
		expected float64
	}{
		{"", 0},
		{"-", 0},
		{"--", 0},
		{"12.5", 12.5},
		{"-3.2", -3.2},
		{"1,234.5", 1234.5},
		{"25%", 0.25},
		{"2024-10-31", 0}, // date-shaped cell
		{"abc", 0},
		{" 7 ", 7},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.InDelta(t, tt.expected, SafeFloat(tt.in), 1e-9)
		})
	}
}

func TestFieldBagHelpers(t *testing.T) {
	fields := decodeFieldBag([]byte(`{"f12":"600000","f43":1050.0,"f164":"-"}`))
	assert.Equal(t, "600000", fieldString(fields, "f12"))
	assert.Equal(t, 1050.0, fieldFloat(fields, "f43"))
	assert.Equal(t, 0.0, fieldFloat(fields, "f164"), "placeholder string reads as absent")
	assert.Equal(t, 0.0, fieldFloat(fields, "missing"))

	assert.Nil(t, decodeFieldBag(nil))
	assert.Nil(t, decodeFieldBag([]byte("null")))
	assert.Nil(t, decodeFieldBag([]byte("[1,2]")))
}
