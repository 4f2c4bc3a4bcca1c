package utils

import (
	"strconv"
	"strings"
)

// FormatINR renders an amount in paise for display, e.g. 54900 -> "₹549" and
// 12345650 -> "₹1,23,456.5". Amounts stay integer paise everywhere else.
func FormatINR(paise int64) string {
	sign := ""
	if paise < 0 {
		sign = "-"
		paise = -paise
	}

	rupees := paise / 100
	fraction := paise % 100

	out := sign + "₹" + groupIndian(strconv.FormatInt(rupees, 10))
	if fraction != 0 {
		frac := strconv.FormatInt(fraction+100, 10)[1:] // zero-padded to two digits
		out += "." + strings.TrimRight(frac, "0")
	}
	return out
}

// groupIndian applies en-IN digit grouping: last three digits, then pairs.
func groupIndian(digits string) string {
	if len(digits) <= 3 {
		return digits
	}
	head, tail := digits[:len(digits)-3], digits[len(digits)-3:]

	var parts []string
	for len(head) > 2 {
		parts = append([]string{head[len(head)-2:]}, parts...)
		head = head[:len(head)-2]
	}
	if head != "" {
		parts = append([]string{head}, parts...)
	}
	return strings.Join(append(parts, tail), ",")
}
