package diagram

import (
	"strings"

	"github.com/mattn/go-runewidth"
)

// FitOptions parameterizes the text-fitting approximation spec §4.4
// describes: wrap words into lines and pick the largest integer font size
// such that lines*size*lineHeight <= box height, falling back to the
// minimum size and an implied character limit if nothing fits.
type FitOptions struct {
	MaxWidth, MaxHeight float64
	MinFontSize         int
	MaxFontSize         int
	LineHeight          float64 // multiplier of font size
	GlyphWidthFactor    float64 // average glyph width as a fraction of font size
}

// FitResult is the chosen font size and the wrapped lines at that size.
type FitResult struct {
	FontSize int
	Lines    []string
}

// FitText implements the wrap-then-shrink policy spec §4.4 names.
func FitText(text string, opt FitOptions) FitResult {
	for size := opt.MaxFontSize; size >= opt.MinFontSize; size-- {
		lines := wrapAtFontSize(text, size, opt)
		if float64(len(lines))*float64(size)*opt.LineHeight <= opt.MaxHeight {
			return FitResult{FontSize: size, Lines: lines}
		}
	}
	lines := wrapAtFontSize(text, opt.MinFontSize, opt)
	return FitResult{FontSize: opt.MinFontSize, Lines: lines}
}

func wrapAtFontSize(text string, size int, opt FitOptions) []string {
	charWidth := float64(size) * opt.GlyphWidthFactor
	if charWidth <= 0 {
		charWidth = 1
	}
	maxChars := int(opt.MaxWidth / charWidth)
	if maxChars < 1 {
		maxChars = 1
	}

	words := strings.Fields(text)
	var lines []string
	var cur strings.Builder
	curWidth := 0
	for _, w := range words {
		ww := runewidth.StringWidth(w)
		if curWidth > 0 && curWidth+1+ww > maxChars {
			lines = append(lines, cur.String())
			cur.Reset()
			curWidth = 0
		}
		if curWidth > 0 {
			cur.WriteByte(' ')
			curWidth++
		}
		cur.WriteString(w)
		curWidth += ww
	}
	if cur.Len() > 0 {
		lines = append(lines, cur.String())
	}
	if len(lines) == 0 {
		lines = []string{""}
	}
	return lines
}
