package email

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Template is a rendered subject/html/text triple ready for Send.
type Template struct {
	Subject string
	HTML    string
	Text    string
}

// TaxInfo carries the fields shown in payment notices.
type TaxInfo struct {
	TaxTypeName string
	StationName string
	Amount      decimal.Decimal
	DueDate     time.Time
}

// FormatWon renders an amount as Korean won with thousand separators,
// e.g. ₩1,650,000. Won amounts are whole numbers.
func FormatWon(amount decimal.Decimal) string {
	digits := amount.Round(0).String()
	negative := strings.HasPrefix(digits, "-")
	if negative {
		digits = digits[1:]
	}

	var b strings.Builder
	for i, r := range digits {
		if i > 0 && (len(digits)-i)%3 == 0 {
			b.WriteByte(',')
		}
		b.WriteRune(r)
	}

	if negative {
		return "-₩" + b.String()
	}
	return "₩" + b.String()
}

// TaxReminderTemplate renders the upcoming-payment notice.
func TaxReminderTemplate(info TaxInfo) Template {
	subject := fmt.Sprintf("세금 납부 알림: %s - %s", info.TaxTypeName, info.StationName)
	amount := FormatWon(info.Amount)
	dueDate := info.DueDate.Format("2006-01-02")

	html := fmt.Sprintf(`
<div style="font-family: Arial, sans-serif; max-width: 600px; margin: 0 auto; padding: 20px;">
  <h1 style="font-size: 24px;">세금 납부 알림</h1>
  <table style="width: 100%%; border-collapse: collapse;">
    <tr><td style="padding: 8px 0; color: #666; font-weight: bold;">세금 유형:</td><td>%s</td></tr>
    <tr><td style="padding: 8px 0; color: #666; font-weight: bold;">충전소:</td><td>%s</td></tr>
    <tr><td style="padding: 8px 0; color: #666; font-weight: bold;">납부 금액:</td><td style="font-weight: bold;">%s</td></tr>
    <tr><td style="padding: 8px 0; color: #666; font-weight: bold;">납부 기한:</td><td style="color: #e74c3c; font-weight: bold;">%s</td></tr>
  </table>
  <p style="color: #666; font-size: 14px;">이 이메일은 세무 관리 시스템에서 자동으로 발송되었습니다.</p>
</div>`,
		info.TaxTypeName, info.StationName, amount, dueDate)

	text := fmt.Sprintf(`세금 납부 알림

납부 정보:
- 세금 유형: %s
- 충전소: %s
- 납부 금액: %s
- 납부 기한: %s

이 이메일은 세무 관리 시스템에서 자동으로 발송되었습니다.`,
		info.TaxTypeName, info.StationName, amount, dueDate)

	return Template{Subject: subject, HTML: html, Text: text}
}

// OverdueReminderTemplate renders the past-due notice with days overdue.
func OverdueReminderTemplate(info TaxInfo, daysPastDue int) Template {
	subject := fmt.Sprintf("연체 알림: %s - %s", info.TaxTypeName, info.StationName)
	amount := FormatWon(info.Amount)
	dueDate := info.DueDate.Format("2006-01-02")

	html := fmt.Sprintf(`
<div style="font-family: Arial, sans-serif; max-width: 600px; margin: 0 auto; padding: 20px;">
  <h1 style="font-size: 24px; color: #e74c3c;">세금 연체 알림</h1>
  <p style="font-weight: bold;">납부 기한이 %d일 지났습니다. 빠른 납부 부탁드립니다.</p>
  <table style="width: 100%%; border-collapse: collapse;">
    <tr><td style="padding: 8px 0; color: #666; font-weight: bold;">세금 유형:</td><td>%s</td></tr>
    <tr><td style="padding: 8px 0; color: #666; font-weight: bold;">충전소:</td><td>%s</td></tr>
    <tr><td style="padding: 8px 0; color: #666; font-weight: bold;">납부 금액:</td><td style="font-weight: bold;">%s</td></tr>
    <tr><td style="padding: 8px 0; color: #666; font-weight: bold;">납부 기한:</td><td style="color: #e74c3c; font-weight: bold;">%s</td></tr>
  </table>
  <p style="color: #666; font-size: 14px;">이 이메일은 세무 관리 시스템에서 자동으로 발송되었습니다.</p>
</div>`,
		daysPastDue, info.TaxTypeName, info.StationName, amount, dueDate)

	text := fmt.Sprintf(`세금 연체 알림

납부 기한이 %d일 지났습니다.

납부 정보:
- 세금 유형: %s
- 충전소: %s
- 납부 금액: %s
- 납부 기한: %s`,
		daysPastDue, info.TaxTypeName, info.StationName, amount, dueDate)

	return Template{Subject: subject, HTML: html, Text: text}
}
