package asset

import (
	"fmt"
	"net/url"
	"regexp"
	"strings"
	"time"
)

const publicObjectPath = "/storage/v1/object/public/"

var (
	slugUnsafe    = regexp.MustCompile(`[^a-z0-9]+`)
	pdfSuffix     = regexp.MustCompile(`(?i)\.pdf$`)
	pdfNameUnsafe = regexp.MustCompile(`[^a-z0-9._-]+`)
	bookUnsafe    = regexp.MustCompile(`[^a-zA-Z0-9._-]`)
)

// SlugSegment lowercases v and collapses every run of non-alphanumerics into
// a single hyphen. Empty results become "general".
func SlugSegment(v string) string {
	s := slugUnsafe.ReplaceAllString(strings.ToLower(strings.TrimSpace(v)), "-")
	s = strings.Trim(s, "-")
	if s == "" {
		return "general"
	}
	return s
}

// SanitizePDFName normalizes an uploaded file name to a lowercase,
// hyphenated name ending in ".pdf".
func SanitizePDFName(name string) string {
	base := pdfSuffix.ReplaceAllString(name, "")
	cleaned := pdfNameUnsafe.ReplaceAllString(strings.ToLower(strings.TrimSpace(base)), "-")
	cleaned = strings.Trim(cleaned, "-")
	if cleaned == "" {
		cleaned = "paper"
	}
	return cleaned + ".pdf"
}

// PastPaperKey builds board/class/year/<unix-ms>-<name>.pdf.
func PastPaperKey(board, classLevel string, year int, now time.Time, fileName string) string {
	return fmt.Sprintf("%s/%s/%d/%d-%s",
		SlugSegment(board),
		SlugSegment(classLevel),
		year,
		now.UnixMilli(),
		SanitizePDFName(fileName),
	)
}

// BookKey builds <unix-ms>-<name> with unsafe characters replaced by "_".
func BookKey(now time.Time, fileName string) string {
	safe := bookUnsafe.ReplaceAllString(strings.TrimSpace(fileName), "_")
	if safe == "" {
		safe = "book.pdf"
	}
	return fmt.Sprintf("%d-%s", now.UnixMilli(), safe)
}

// PublicURL returns the public URL of key in bucket. Each path segment is
// escaped so that ExtractKey recovers key exactly.
func PublicURL(baseURL, bucket, key string) string {
	segments := strings.Split(key, "/")
	for i, s := range segments {
		segments[i] = url.PathEscape(s)
	}
	return strings.TrimRight(baseURL, "/") + publicObjectPath + bucket + "/" + strings.Join(segments, "/")
}

// ExtractKey recovers the storage key from a public URL of bucket.
func ExtractKey(bucket, fileURL string) (string, error) {
	pattern := regexp.MustCompile(`/object/public/` + regexp.QuoteMeta(bucket) + `/(.+)$`)
	m := pattern.FindStringSubmatch(fileURL)
	if m == nil {
		return "", fmt.Errorf("%w: no %s storage key in %q", ErrNotFound, bucket, fileURL)
	}
	key, err := url.PathUnescape(m[1])
	if err != nil {
		return "", fmt.Errorf("%w: decoding storage key %q: %v", ErrNotFound, m[1], err)
	}
	return key, nil
}
