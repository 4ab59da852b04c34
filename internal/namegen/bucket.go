package namegen

import (
	"fmt"
	"path/filepath"
	"regexp"
	"time"
)

// Bucket granularities selectable in settings.
const (
	BucketMonth = "month"
	BucketWeek  = "week"
	BucketDay   = "day"
)

var monthBucketPattern = regexp.MustCompile(`^\d{4}-\d{2}$`)

// BucketName returns the destination sub-folder name for a timestamp under
// the given granularity. Weeks follow ISO 8601: Monday start, week 1 is the
// first week containing at least four days of the new year.
func BucketName(bucketType string, t time.Time) string {
	switch bucketType {
	case BucketWeek:
		year, week := t.ISOWeek()
		return fmt.Sprintf("%d-W%02d", year, week)
	case BucketDay:
		return t.Format("2006-01-02")
	default:
		return t.Format("2006-01")
	}
}

// GroupKey returns the string scoping a sequence counter for a timestamp
// under the given granularity. It deliberately tracks the same granularity
// as BucketName so counters reset exactly when the folder does.
func GroupKey(bucketType string, t time.Time) string {
	switch bucketType {
	case BucketWeek:
		year, week := t.ISOWeek()
		return fmt.Sprintf("%dW%02d", year, week)
	case BucketDay:
		return t.Format("20060102")
	default:
		return t.Format("200601")
	}
}

// IsMonthBucket reports whether a folder name is a month-style date
// bucket (YYYY-MM).
func IsMonthBucket(name string) bool {
	return monthBucketPattern.MatchString(name)
}

// SourceBucket reports whether the file's own parent folder is already a
// month-style date bucket (YYYY-MM). When it is, the destination mirrors
// that existing bucket name instead of recomputing one from file time, so
// an already-organized source tree keeps its layout.
func SourceBucket(sourcePath string) (string, bool) {
	parent := filepath.Base(filepath.Dir(sourcePath))
	if monthBucketPattern.MatchString(parent) {
		return parent, true
	}
	return "", false
}
