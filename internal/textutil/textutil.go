// Package textutil holds small presentation helpers shared by the CLI and
// the notification layer.
package textutil

import (
	"path/filepath"
	"strings"
	"unicode"

	"github.com/dustin/go-humanize"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// DisplayTitle derives a human-readable title from a media file path.
// Separator runes collapse to single spaces and the result is title-cased.
func DisplayTitle(sourcePath string) string {
	if sourcePath == "" {
		return "Untitled"
	}
	base := filepath.Base(sourcePath)
	base = strings.TrimSuffix(base, filepath.Ext(base))
	cleaned := strings.Builder{}
	prevSpace := false
	for _, r := range base {
		switch {
		case unicode.IsLetter(r) || unicode.IsNumber(r):
			cleaned.WriteRune(r)
			prevSpace = false
		case unicode.IsSpace(r) || r == '-' || r == '_' || r == '.':
			if !prevSpace {
				cleaned.WriteRune(' ')
				prevSpace = true
			}
		}
	}
	title := strings.TrimSpace(cleaned.String())
	if title == "" {
		return "Untitled"
	}
	return cases.Title(language.Und).String(title)
}

// FormatSize renders a byte count for display. Zero means unknown.
func FormatSize(bytes int64) string {
	if bytes <= 0 {
		return "-"
	}
	return humanize.Bytes(uint64(bytes))
}

// FormatSavings renders the size reduction of a finished item, or "-" when
// either size is unknown.
func FormatSavings(originalSize, newSize int64) string {
	if originalSize <= 0 || newSize <= 0 {
		return "-"
	}
	if newSize >= originalSize {
		return "0%"
	}
	percent := float64(originalSize-newSize) / float64(originalSize) * 100
	return humanize.FtoaWithDigits(percent, 1) + "%"
}
