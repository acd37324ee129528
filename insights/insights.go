// Package insights turns a raw sales prediction, expressed in
// thousands of naira, into the presentation values the result page
// shows: formatted currency, a qualitative revenue tier, and spend
// ratios.
package insights

import (
	"fmt"
	"strings"
)

// Tier is a qualitative revenue band with its display styling.
type Tier struct {
	Label string
	Color string
	Emoji string
}

// Band bounds are inclusive.
var bands = []struct {
	floor float64
	tier  Tier
}{
	{5000, Tier{Label: "Very High Revenue", Color: "#10b981", Emoji: "🔥"}},
	{1000, Tier{Label: "High Revenue", Color: "#3b82f6", Emoji: "📈"}},
	{300, Tier{Label: "Moderate Revenue", Color: "#f59e0b", Emoji: "📊"}},
}

var lowTier = Tier{Label: "Low Revenue", Color: "#ef4444", Emoji: "📉"}

// TierFor places a prediction, in thousands of naira, into its band.
func TierFor(thousands float64) Tier {
	for _, band := range bands {
		if thousands >= band.floor {
			return band.tier
		}
	}
	return lowTier
}

// FormatNaira renders a prediction in thousands of naira as a compact
// currency string: millions with two decimals, thousands grouped with
// one decimal, plain naira below that.
func FormatNaira(thousands float64) string {
	naira := thousands * 1000
	switch {
	case naira >= 1_000_000:
		return fmt.Sprintf("₦%.2fM", naira/1_000_000)
	case naira >= 1_000:
		return "₦" + groupComma(fmt.Sprintf("%.1f", naira/1_000)) + "K"
	default:
		return "₦" + groupComma(fmt.Sprintf("%.0f", naira))
	}
}

// PlainNaira renders the full naira figure with thousands separators,
// for the echo line next to the headline amount.
func PlainNaira(thousands float64) string {
	return groupComma(fmt.Sprintf("%.0f", thousands*1000))
}

// FormatThousands renders the raw model output, still in thousands,
// grouped with one decimal. The echo line shows it beside PlainNaira.
func FormatThousands(thousands float64) string {
	return groupComma(fmt.Sprintf("%.1f", thousands))
}

// Ratios derives inventory ROI and marketing share, both in percent,
// from a prediction in thousands of naira and the raw spend inputs.
// Zero denominators yield zero rather than infinities.
func Ratios(thousands, inventory, marketing float64) (roi, marketingShare float64) {
	revenue := thousands * 1000
	if inventory != 0 {
		roi = (revenue - inventory) / inventory * 100
	}
	if revenue != 0 {
		marketingShare = marketing / revenue * 100
	}
	return roi, marketingShare
}

// groupComma inserts thousands separators into the integer part of an
// already formatted number.
func groupComma(s string) string {
	intPart, frac := s, ""
	if i := strings.IndexByte(s, '.'); i >= 0 {
		intPart, frac = s[:i], s[i:]
	}
	sign := ""
	if strings.HasPrefix(intPart, "-") {
		sign, intPart = "-", intPart[1:]
	}
	if len(intPart) <= 3 {
		return sign + intPart + frac
	}

	var b strings.Builder
	lead := len(intPart) % 3
	if lead > 0 {
		b.WriteString(intPart[:lead])
	}
	for i := lead; i < len(intPart); i += 3 {
		if b.Len() > 0 {
			b.WriteByte(',')
		}
		b.WriteString(intPart[i : i+3])
	}
	return sign + b.String() + frac
}
