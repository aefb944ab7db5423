package extract

import (
	"bytes"
	"fmt"
	"math"
	"strings"

	"rsc.io/pdf"
)

// extractPDF joins the text of every page that has any, separated by a single
// space. rsc.io/pdf panics on some malformed inputs so we turn those into errors.
func extractPDF(data []byte) (text string, err error) {
	defer func() {
		if r := recover(); r != nil {
			text, err = "", fmt.Errorf("malformed pdf: %v", r)
		}
	}()

	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", fmt.Errorf("open pdf: %w", err)
	}

	pages := make([]string, 0, reader.NumPage())
	for i := 1; i <= reader.NumPage(); i++ {
		page := reader.Page(i)
		if page.V.IsNull() {
			continue
		}
		pageText := textOfPage(page)
		if strings.TrimSpace(pageText) == "" {
			continue
		}
		pages = append(pages, pageText)
	}
	return strings.Join(pages, " "), nil
}

// textOfPage glues the glyph runs of a page back into words. A jump in Y is a
// new line, a horizontal gap wider than a fraction of the font size is a space.
func textOfPage(page pdf.Page) string {
	var builder strings.Builder
	var prev *pdf.Text
	for _, t := range page.Content().Text {
		t := t
		if prev != nil {
			size := math.Max(prev.FontSize, 1)
			switch {
			case math.Abs(t.Y-prev.Y) > size*0.5:
				builder.WriteByte(' ')
			case t.X-(prev.X+prev.W) > size*0.15:
				builder.WriteByte(' ')
			}
		}
		builder.WriteString(t.S)
		prev = &t
	}
	return builder.String()
}
