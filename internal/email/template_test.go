package email

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestFormatWon(t *testing.T) {
	tests := []struct {
		amount string
		want   string
	}{
		{"0", "₩0"},
		{"999", "₩999"},
		{"1000", "₩1,000"},
		{"1650000", "₩1,650,000"},
		{"1234567890", "₩1,234,567,890"},
		{"1650000.49", "₩1,650,000"}, // won amounts round to whole numbers
		{"-50000", "-₩50,000"},
	}

	for _, tt := range tests {
		t.Run(tt.amount, func(t *testing.T) {
			amount, err := decimal.NewFromString(tt.amount)
			assert.NoError(t, err)
			assert.Equal(t, tt.want, FormatWon(amount))
		})
	}
}

func TestTaxReminderTemplate(t *testing.T) {
	tpl := TaxReminderTemplate(TaxInfo{
		TaxTypeName: "취득세",
		StationName: "강남 1호점",
		Amount:      decimal.NewFromInt(1650000),
		DueDate:     time.Date(2024, 2, 15, 0, 0, 0, 0, time.UTC),
	})

	assert.Equal(t, "세금 납부 알림: 취득세 - 강남 1호점", tpl.Subject)
	assert.Contains(t, tpl.HTML, "₩1,650,000")
	assert.Contains(t, tpl.HTML, "2024-02-15")
	assert.Contains(t, tpl.Text, "취득세")
	assert.Contains(t, tpl.Text, "강남 1호점")
	assert.Contains(t, tpl.Text, "₩1,650,000")
}

func TestOverdueReminderTemplate(t *testing.T) {
	tpl := OverdueReminderTemplate(TaxInfo{
		TaxTypeName: "재산세",
		StationName: "분당점",
		Amount:      decimal.NewFromInt(300000),
		DueDate:     time.Date(2024, 1, 31, 0, 0, 0, 0, time.UTC),
	}, 14)

	assert.Equal(t, "연체 알림: 재산세 - 분당점", tpl.Subject)
	assert.Contains(t, tpl.HTML, "14일")
	assert.Contains(t, tpl.Text, "14일")
	assert.Contains(t, tpl.HTML, "₩300,000")
}
