package match

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/msgledger/msgledger/internal/model"
)

func TestExtractAmount(t *testing.T) {
	tests := []struct {
		name       string
		text       string
		patterns   model.StringList
		want       float64
		wantOK     bool
		wantErrors int
	}{
		{
			name:     "rupee amount with decimals",
			text:     "Rs.250.00 debited from a/c **1234 to Swiggy on 12-05-23",
			patterns: model.StringList{`Rs\.?\s*([\d,]+\.?\d*)`},
			want:     250.00,
			wantOK:   true,
		},
		{
			name:     "thousand separators stripped",
			text:     "INR 1,23,456.78 credited to your account",
			patterns: model.StringList{`INR\s*([\d,]+\.?\d*)`},
			want:     123456.78,
			wantOK:   true,
		},
		{
			name:     "first matching pattern wins",
			text:     "Rs.100 spent, balance Rs.900",
			patterns: model.StringList{`spent.*balance Rs\.(\d+)`, `Rs\.(\d+)`},
			want:     900,
			wantOK:   true,
		},
		{
			name:     "falls through to later pattern",
			text:     "USD 42.50 charged at STEAM",
			patterns: model.StringList{`Rs\.(\d+)`, `USD\s*([\d.]+)`},
			want:     42.50,
			wantOK:   true,
		},
		{
			name:     "negative capture stored as magnitude",
			text:     "adjustment of -75.25 applied",
			patterns: model.StringList{`adjustment of (-?[\d.]+)`},
			want:     75.25,
			wantOK:   true,
		},
		{
			name:     "non-numeric capture is not a match",
			text:     "amount: pending",
			patterns: model.StringList{`amount: (\w+)`},
			wantOK:   false,
		},
		{
			name:       "malformed pattern collected, later pattern still tried",
			text:       "Rs.50 debited",
			patterns:   model.StringList{`Rs\.([`, `Rs\.(\d+)`},
			want:       50,
			wantOK:     true,
			wantErrors: 1,
		},
		{
			name:     "no pattern matches",
			text:     "hello there",
			patterns: model.StringList{`Rs\.(\d+)`},
			wantOK:   false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rule := model.Rule{AmountRegex: tt.patterns}
			got, ok, errs := ExtractAmount(&rule, tt.text)
			assert.Equal(t, tt.wantOK, ok)
			assert.Len(t, errs, tt.wantErrors)
			if tt.wantOK {
				assert.InDelta(t, tt.want, got, 0.001)
				assert.GreaterOrEqual(t, got, 0.0)
			}
		})
	}
}

func TestExtractMerchant_Anchors(t *testing.T) {
	text := "Rs.250.00 debited from a/c **1234 to Swiggy on 12-05-23"

	tests := []struct {
		name   string
		anchor model.MerchantAnchor
		want   string
	}{
		{
			name:   "segment between anchors",
			anchor: model.MerchantAnchor{StartText: "to", EndText: "on", StartIndex: 1},
			want:   "Swiggy",
		},
		{
			name:   "missing end text runs to end of string",
			anchor: model.MerchantAnchor{StartText: "on", EndText: "", StartIndex: 1},
			want:   "12-05-23",
		},
		{
			name:   "start text absent",
			anchor: model.MerchantAnchor{StartText: "towards", EndText: "on", StartIndex: 1},
			want:   "",
		},
		{
			name:   "index out of range",
			anchor: model.MerchantAnchor{StartText: "to", EndText: "on", StartIndex: 5},
			want:   "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, extractByAnchor(tt.anchor, text))
		})
	}
}

func TestExtractMerchant_Order(t *testing.T) {
	text := "Payment of Rs.99 made to UPI/ZOMATO-ORDERS/9876 on 01-06-23"

	t.Run("anchor result preferred over regex conditions", func(t *testing.T) {
		rule := model.Rule{
			MerchantAnchors:    []model.MerchantAnchor{{StartText: "to", EndText: "on", StartIndex: 1}},
			MerchantConditions: model.StringList{`made to (\S+)`},
		}
		name, errs := ExtractMerchant(&rule, text)
		assert.Empty(t, errs)
		assert.Equal(t, "UPI/ZOMATO-ORDERS/9876", name)
	})

	t.Run("regex conditions used when anchors fail", func(t *testing.T) {
		rule := model.Rule{
			MerchantAnchors:    []model.MerchantAnchor{{StartText: "towards", EndText: "on", StartIndex: 1}},
			MerchantConditions: model.StringList{`UPI/([A-Z-]+)/`},
		}
		name, errs := ExtractMerchant(&rule, text)
		assert.Empty(t, errs)
		assert.Equal(t, "ZOMATO-ORDERS", name)
	})

	t.Run("empty when nothing matches", func(t *testing.T) {
		rule := model.Rule{
			MerchantConditions: model.StringList{`at store (\w+)`},
		}
		name, errs := ExtractMerchant(&rule, text)
		assert.Empty(t, errs)
		assert.Empty(t, name)
	})
}

func TestCleanupMerchant(t *testing.T) {
	rule := model.Rule{
		MerchantCleanup: model.StringList{
			`^UPI/([A-Za-z ]+)`,
			`^(\w+)`,
		},
	}

	t.Run("first matching cleanup pattern wins and later ones are not tried", func(t *testing.T) {
		name, errs := CleanupMerchant(&rule, "UPI/Zomato Orders/9876")
		require.Empty(t, errs)
		assert.Equal(t, "Zomato Orders", name)
	})

	t.Run("falls through to later pattern", func(t *testing.T) {
		name, errs := CleanupMerchant(&rule, "Swiggy*Bangalore")
		require.Empty(t, errs)
		assert.Equal(t, "Swiggy", name)
	})

	t.Run("name unchanged when nothing matches", func(t *testing.T) {
		rule := model.Rule{MerchantCleanup: model.StringList{`^\d+-(\w+)`}}
		name, errs := CleanupMerchant(&rule, "Swiggy")
		require.Empty(t, errs)
		assert.Equal(t, "Swiggy", name)
	})
}
