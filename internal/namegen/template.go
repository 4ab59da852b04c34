package namegen

import (
	"fmt"
	"regexp"
	"strings"
	"time"
)

// Day names used for the ddd token. The shared settings file is written by
// the companion GUI for a Japanese-first audience, so ddd renders the
// single-kanji day names rather than the library's English abbreviations.
var dayKanji = [7]string{"日", "月", "火", "水", "木", "金", "土"}

const seqToken = "seq"

// seqSentinel stands in for the seq token while date tokens are rendered,
// so the counter digits can never be confused with date output.
const seqSentinel = "\x00"

// RenderTemplate substitutes the C#-style date tokens of a filename
// template (yyyy MM dd HH mm ss ddd) plus the special seq token, which
// becomes a zero-padded three-digit counter value.
func RenderTemplate(template string, t time.Time, seq int) string {
	rendered := renderDateTokens(strings.ReplaceAll(template, seqToken, seqSentinel), t)
	return strings.ReplaceAll(rendered, seqSentinel, fmt.Sprintf("%03d", seq))
}

func renderDateTokens(template string, t time.Time) string {
	replacer := strings.NewReplacer(
		"yyyy", t.Format("2006"),
		"ddd", dayKanji[int(t.Weekday())],
		"MM", t.Format("01"),
		"dd", t.Format("02"),
		"HH", t.Format("15"),
		"mm", t.Format("04"),
		"ss", t.Format("05"),
	)
	return replacer.Replace(template)
}

// templatePattern builds a regexp matching any filename produced from this
// template, capturing the sequence digits. Date tokens become digit classes
// rather than a concrete rendering, so files written on earlier days inside
// the same bucket still count toward continuation. Returns false when the
// template carries no seq token.
func templatePattern(template string, extension string) (*regexp.Regexp, bool) {
	if !strings.Contains(template, seqToken) {
		return nil, false
	}
	quoted := regexp.QuoteMeta(strings.ReplaceAll(template, seqToken, seqSentinel))
	replacer := strings.NewReplacer(
		"yyyy", `\d{4}`,
		"ddd", "["+strings.Join(dayKanji[:], "")+"]",
		"MM", `\d{2}`,
		"dd", `\d{2}`,
		"HH", `\d{2}`,
		"mm", `\d{2}`,
		"ss", `\d{2}`,
	)
	expr := "^" + strings.ReplaceAll(replacer.Replace(quoted), seqSentinel, `(\d+)`) +
		regexp.QuoteMeta(extension) + "$"
	pattern, err := regexp.Compile(expr)
	if err != nil {
		return nil, false
	}
	return pattern, true
}
