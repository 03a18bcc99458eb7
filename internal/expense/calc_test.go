package expense

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fieldforce-backend/internal/apperr"
	"fieldforce-backend/internal/rates"
	"fieldforce-backend/internal/roster"
)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func decp(s string) *decimal.Decimal {
	d := dec(s)
	return &d
}

func strp(s string) *string { return &s }

func assertDec(t *testing.T, want string, got decimal.Decimal, msgAndArgs ...any) {
	t.Helper()
	assert.True(t, dec(want).Equal(got), append([]any{"want %s, got %s", want, got.String()}, msgAndArgs...)...)
}

func mrConfirmed() rates.Config {
	return rates.Resolve(rates.Defaults(), roster.RoleMR, roster.StatusConfirmed)
}

func TestRecalculate(t *testing.T) {
	cfg := mrConfirmed()

	tests := []struct {
		name      string
		entry     Entry
		allowance string
		travel    string
		total     string
	}{
		{"HQ day with km", Entry{Category: CategoryHQ, Km: dec("10")}, "250", "35", "285"},
		{"outstation pays train fare", Entry{Category: CategoryOutstation, TrainFare: dec("500")}, "550", "500", "1050"},
		{"ex-HQ with misc", Entry{Category: CategoryExHQ, Km: dec("20"), MiscAmount: dec("45.50")}, "350", "70", "465.5"},
		{"holiday earns nothing", Entry{Category: CategoryHoliday, Km: dec("4")}, "0", "14", "14"},
		{"sunday earns nothing", Entry{Category: CategorySunday}, "0", "0", "0"},
		{"unknown category earns no allowance", Entry{Category: "LEAVE", Km: dec("2")}, "0", "7", "7"},
		{"fractional km", Entry{Category: CategoryHQ, Km: dec("12.3")}, "250", "43.05", "293.05"},
		{"negative train fare pays nothing", Entry{Category: CategoryOutstation, TrainFare: dec("-500")}, "550", "0", "550"},
		{"missing train fare pays nothing", Entry{Category: CategoryOutstation}, "550", "0", "550"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Recalculate(tt.entry, cfg)
			assertDec(t, tt.allowance, got.DailyAllowance)
			assertDec(t, tt.travel, got.TravelAmount)
			assertDec(t, tt.total, got.TotalAmount)
			assert.True(t, got.TotalAmount.Equal(got.DailyAllowance.Add(got.TravelAmount).Add(got.MiscAmount)))
		})
	}
}

func TestRecalculate_ZeroConfig(t *testing.T) {
	got := Recalculate(Entry{Category: CategoryHQ, Km: dec("10"), MiscAmount: dec("5")}, rates.Config{})
	assertDec(t, "0", got.DailyAllowance)
	assertDec(t, "0", got.TravelAmount)
	assertDec(t, "5", got.TotalAmount)
}

func TestRecalculate_DoesNotTouchInputs(t *testing.T) {
	in := Entry{Category: CategoryHQ, Km: dec("10"), TrainFare: dec("0"), Remarks: "visit"}
	got := Recalculate(in, mrConfirmed())
	assertDec(t, "0", in.TotalAmount)
	assert.Equal(t, "visit", got.Remarks)
	assertDec(t, "10", got.Km)
}

func territories() []roster.Territory {
	return []roster.Territory{
		{ID: "t-hq", Name: "Rohini", Category: string(CategoryHQ), FixedKm: dec("12")},
		{ID: "t-ex", Name: "Sonipat", Category: string(CategoryExHQ), FixedKm: dec("40")},
		{ID: "t-out", Name: "Jaipur", Category: string(CategoryOutstation), FixedKm: dec("260")},
	}
}

func TestApplyTerritory(t *testing.T) {
	list := territories()

	t.Run("non-outstation copies fixed km and clears fare", func(t *testing.T) {
		got := ApplyTerritory(Entry{Category: CategoryOutstation, TrainFare: dec("300")}, &list[1])
		assert.Equal(t, "t-ex", got.TerritoryID)
		assert.Equal(t, "Sonipat", got.Towns)
		assert.Equal(t, CategoryExHQ, got.Category)
		assertDec(t, "40", got.Km)
		assertDec(t, "0", got.TrainFare)
	})

	t.Run("outstation forces km to zero and keeps fare", func(t *testing.T) {
		got := ApplyTerritory(Entry{Category: CategoryHQ, Km: dec("9"), TrainFare: dec("300")}, &list[2])
		assert.Equal(t, CategoryOutstation, got.Category)
		assertDec(t, "0", got.Km)
		assertDec(t, "300", got.TrainFare)
	})

	t.Run("clearing keeps category and km", func(t *testing.T) {
		in := ApplyTerritory(Entry{}, &list[1])
		got := ApplyTerritory(in, nil)
		assert.Empty(t, got.TerritoryID)
		assert.Empty(t, got.Towns)
		assert.Equal(t, CategoryExHQ, got.Category)
		assertDec(t, "40", got.Km)
	})
}

func TestApplyCategory(t *testing.T) {
	base := Entry{Km: dec("25"), TrainFare: dec("400")}

	tests := []struct {
		to       Category
		wantKm   string
		wantFare string
	}{
		{CategoryOutstation, "0", "400"},
		{CategoryExHQ, "25", "0"},
		{CategoryHQ, "0", "0"},
		{CategoryHoliday, "0", "0"},
		{CategorySunday, "0", "0"},
	}
	for _, tt := range tests {
		t.Run(string(tt.to), func(t *testing.T) {
			got := ApplyCategory(base, tt.to)
			assert.Equal(t, tt.to, got.Category)
			assertDec(t, tt.wantKm, got.Km)
			assertDec(t, tt.wantFare, got.TrainFare)
		})
	}
}

func TestApplyChange(t *testing.T) {
	cfg := mrConfirmed()
	list := territories()

	t.Run("explicit km overrides territory fixed km", func(t *testing.T) {
		got := ApplyChange(Entry{}, Change{TerritoryID: strp("t-hq"), Km: decp("15")}, list, cfg)
		assertDec(t, "15", got.Km)
		assertDec(t, "302.5", got.TotalAmount)
	})

	t.Run("outstation ignores km edits", func(t *testing.T) {
		got := ApplyChange(Entry{}, Change{TerritoryID: strp("t-out"), Km: decp("80"), TrainFare: decp("500")}, list, cfg)
		assertDec(t, "0", got.Km)
		assertDec(t, "500", got.TravelAmount)
		assertDec(t, "1050", got.TotalAmount)
	})

	t.Run("non-outstation ignores train fare edits", func(t *testing.T) {
		got := ApplyChange(Entry{Category: CategoryHQ}, Change{TrainFare: decp("250"), Km: decp("10")}, list, cfg)
		assertDec(t, "0", got.TrainFare)
		assertDec(t, "285", got.TotalAmount)
	})

	t.Run("category change after territory", func(t *testing.T) {
		cat := CategoryOutstation
		got := ApplyChange(Entry{}, Change{TerritoryID: strp("t-ex"), Category: &cat, TrainFare: decp("120")}, list, cfg)
		assert.Equal(t, CategoryOutstation, got.Category)
		assert.Equal(t, "t-ex", got.TerritoryID)
		assertDec(t, "0", got.Km)
		assertDec(t, "670", got.TotalAmount)
	})

	t.Run("clear territory", func(t *testing.T) {
		in := ApplyChange(Entry{}, Change{TerritoryID: strp("t-ex")}, list, cfg)
		got := ApplyChange(in, Change{ClearTerritory: true}, list, cfg)
		assert.Empty(t, got.TerritoryID)
		assert.Empty(t, got.Towns)
		assertDec(t, "40", got.Km)
	})

	t.Run("misc, remarks and receipt", func(t *testing.T) {
		got := ApplyChange(Entry{Category: CategoryHQ}, Change{
			MiscAmount: decp("60"),
			Remarks:    strp("parking"),
			ReceiptURL: strp("/uploads/receipts/r.pdf"),
		}, list, cfg)
		assertDec(t, "310", got.TotalAmount)
		assert.Equal(t, "parking", got.Remarks)
		assert.Equal(t, "/uploads/receipts/r.pdf", got.ReceiptURL)
	})
}

func TestChangeValidate(t *testing.T) {
	list := territories()
	bad := Category("WFH")

	tests := []struct {
		name    string
		change  Change
		wantErr bool
	}{
		{"empty change", Change{}, false},
		{"known territory", Change{TerritoryID: strp("t-hq")}, false},
		{"blank territory clears", Change{TerritoryID: strp("")}, false},
		{"foreign territory", Change{TerritoryID: strp("t-other")}, true},
		{"unknown category", Change{Category: &bad}, true},
		{"negative km", Change{Km: decp("-1")}, true},
		{"negative misc", Change{MiscAmount: decp("-0.01")}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.change.Validate(list)
			if tt.wantErr {
				require.Error(t, err)
				assert.ErrorIs(t, err, apperr.ErrValidation)
				return
			}
			assert.NoError(t, err)
		})
	}
}
