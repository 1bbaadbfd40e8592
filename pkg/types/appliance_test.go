package types

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestApplianceValidate(t *testing.T) {
	tests := []struct {
		name   string
		a      Appliance
		errMsg string
	}{
		{name: "valid", a: Appliance{ID: "tv", Watt: 100, Hours: 4}},
		{name: "zero hours", a: Appliance{ID: "tv", Watt: 100, Hours: 0}},
		{name: "full day", a: Appliance{ID: "refrigerator", Watt: 150, Hours: 24}},
		{name: "half hour", a: Appliance{ID: "fan", Watt: 70, Hours: 2.5}},
		{name: "missing id", a: Appliance{Watt: 100, Hours: 1}, errMsg: "id is required"},
		{name: "zero watt", a: Appliance{ID: "tv", Watt: 0, Hours: 1}, errMsg: "watt must be positive"},
		{name: "negative watt", a: Appliance{ID: "tv", Watt: -10, Hours: 1}, errMsg: "watt must be positive"},
		{name: "nan watt", a: Appliance{ID: "tv", Watt: math.NaN(), Hours: 1}, errMsg: "watt must be positive"},
		{name: "negative hours", a: Appliance{ID: "tv", Watt: 100, Hours: -1}, errMsg: "hours must be between"},
		{name: "too many hours", a: Appliance{ID: "tv", Watt: 100, Hours: 24.5}, errMsg: "hours must be between"},
		{name: "quarter hour", a: Appliance{ID: "tv", Watt: 100, Hours: 1.25}, errMsg: "hour steps"},
		{name: "custom too large", a: Appliance{ID: ApplianceIDOther, Watt: 6000, Hours: 1}, errMsg: "at most"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.a.Validate()
			if tt.errMsg == "" {
				assert.NoError(t, err)
			} else {
				assert.ErrorContains(t, err, tt.errMsg)
			}
		})
	}
}

func TestAppliancesValidate(t *testing.T) {
	t.Run("mismatched key", func(t *testing.T) {
		as := Appliances{"fan": {ID: "tv", Watt: 100, Hours: 1}}
		assert.ErrorContains(t, as.Validate(), "mismatched key")
	})

	t.Run("empty", func(t *testing.T) {
		assert.NoError(t, Appliances{}.Validate())
	})
}

func TestAppliancesSorted(t *testing.T) {
	as := Appliances{
		"tv":     {ID: "tv", Watt: 100, Hours: 1},
		"fan":    {ID: "fan", Watt: 70, Hours: 1},
		"laptop": {ID: "laptop", Watt: 60, Hours: 1},
	}
	sorted := as.Sorted()
	require.Len(t, sorted, 3)
	assert.Equal(t, "fan", sorted[0].ID)
	assert.Equal(t, "laptop", sorted[1].ID)
	assert.Equal(t, "tv", sorted[2].ID)
}

func TestLookupCatalogItem(t *testing.T) {
	item, ok := LookupCatalogItem("air_conditioner")
	require.True(t, ok)
	assert.Equal(t, 2000.0, item.Watt)
	assert.Equal(t, "Heating/Cooling", item.Category)

	item, ok = LookupCatalogItem(ApplianceIDOther)
	require.True(t, ok)
	assert.True(t, item.Custom)
	assert.Equal(t, DefaultCustomApplianceWatt, item.Watt)

	_, ok = LookupCatalogItem("toaster")
	assert.False(t, ok)
}
