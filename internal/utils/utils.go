package utils

import (
	"strconv"
	"strings"
)

// FormatNumberWithCommas formats a number with two decimals and comma separators for thousands
func FormatNumberWithCommas(num float64) string {
	str := strconv.FormatFloat(num, 'f', 2, 64)
	sign := ""
	if strings.HasPrefix(str, "-") {
		sign, str = "-", str[1:]
	}
	parts := strings.Split(str, ".")
	integerPart := parts[0]

	var formatted strings.Builder
	formatted.WriteString(sign)
	for i, c := range integerPart {
		if i > 0 && (len(integerPart)-i)%3 == 0 {
			formatted.WriteRune(',')
		}
		formatted.WriteRune(c)
	}
	if len(parts) > 1 {
		formatted.WriteRune('.')
		formatted.WriteString(parts[1])
	}
	return formatted.String()
}

// CodeSpan wraps text in a Discord inline code span that the text cannot break out of
func CodeSpan(text string) string {
	text = strings.ReplaceAll(text, "`", "ˋ")
	if text == "" {
		return "` `"
	}
	return "`" + text + "`"
}

// Truncate shortens text to at most limit runes, marking the cut with an ellipsis
func Truncate(text string, limit int) string {
	r := []rune(text)
	if len(r) <= limit {
		return text
	}
	if limit <= 1 {
		return string(r[:limit])
	}
	return string(r[:limit-1]) + "…"
}
