// Package speech holds helpers that operate on caller transcripts and
// phone numbers before they reach prompts or logs.
package speech

import (
	"strings"
	"unicode"
)

// ExtractDigits returns every decimal digit in transcript, in order, as
// ASCII. "my id is 12 34" yields "1234" and Devanagari "१२३" yields "123".
// Spoken number words are left alone.
func ExtractDigits(transcript string) string {
	var b strings.Builder
	for _, r := range transcript {
		if d, ok := digitValue(r); ok {
			b.WriteByte('0' + d)
		}
	}
	return b.String()
}

// digitValue maps a Unicode Nd rune to its value. Every Nd range in the
// table starts at a zero and runs in groups of ten.
func digitValue(r rune) (byte, bool) {
	if r >= '0' && r <= '9' {
		return byte(r - '0'), true
	}
	if r < 0x80 || !unicode.IsDigit(r) {
		return 0, false
	}
	for _, rg := range unicode.Nd.R16 {
		if lo, hi := rune(rg.Lo), rune(rg.Hi); r >= lo && r <= hi {
			return byte((r - lo) % 10), true
		}
	}
	for _, rg := range unicode.Nd.R32 {
		if lo, hi := rune(rg.Lo), rune(rg.Hi); r >= lo && r <= hi {
			return byte((r - lo) % 10), true
		}
	}
	return 0, false
}

// MaskPhone replaces all but the last four characters with X.
// Shorter inputs are returned unchanged.
func MaskPhone(phone string) string {
	if len(phone) < 4 {
		return phone
	}
	return strings.Repeat("X", len(phone)-4) + phone[len(phone)-4:]
}

// LastDigits returns the trailing n characters of phone.
func LastDigits(phone string, n int) string {
	if n <= 0 {
		return ""
	}
	if len(phone) <= n {
		return phone
	}
	return phone[len(phone)-n:]
}
