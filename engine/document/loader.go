package document

import (
	"bytes"
	"errors"
	"fmt"
	"strings"

	"github.com/ledongthuc/pdf"
)

// ErrParse indicates the uploaded bytes could not be read as a PDF.
var ErrParse = errors.New("document: parse pdf")

const (
	cellSeparator = " | "
	rowSeparator  = "; "
)

// cellGapFactor scales a row's font size into the minimum horizontal gap
// treated as a column boundary.
const cellGapFactor = 2.5

// Load parses raw PDF bytes into ordered text blocks. Each page with
// non-empty narrative text yields one page block; pages whose rows align
// into columns additionally yield one table block with cells joined by
// " | " and rows joined by "; ". Pages contributing neither are skipped.
func Load(data []byte) (blocks []Block, err error) {
	// The underlying parser panics on some malformed content streams.
	defer func() {
		if r := recover(); r != nil {
			blocks = nil
			err = fmt.Errorf("%w: %v", ErrParse, r)
		}
	}()
	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrParse, err)
	}
	total := reader.NumPage()
	for num := 1; num <= total; num++ {
		page := reader.Page(num)
		if page.V.IsNull() {
			continue
		}
		text := extractPageText(page)
		if strings.TrimSpace(text) != "" {
			blocks = append(blocks, Block{Content: text, Page: num, Kind: KindPage})
		}
		if table := extractTableText(page); table != "" {
			blocks = append(blocks, Block{Content: table, Page: num, Kind: KindTable})
		}
	}
	return blocks, nil
}

func extractPageText(page pdf.Page) string {
	text, err := page.GetPlainText(nil)
	if err != nil {
		return ""
	}
	return text
}

// extractTableText serializes rows that split into two or more columns.
// Column boundaries are detected from horizontal gaps between glyph runs.
func extractTableText(page pdf.Page) string {
	rows, err := page.GetTextByRow()
	if err != nil {
		return ""
	}
	serialized := make([]string, 0, len(rows))
	for _, row := range rows {
		cells := splitRowCells(row)
		if len(cells) < 2 {
			continue
		}
		serialized = append(serialized, strings.Join(cells, cellSeparator))
	}
	return strings.Join(serialized, rowSeparator)
}

func splitRowCells(row *pdf.Row) []string {
	if row == nil || len(row.Content) == 0 {
		return nil
	}
	var cells []string
	var current strings.Builder
	prevEnd := 0.0
	for i, word := range row.Content {
		gap := cellGapFactor * max(word.FontSize, 1)
		if i > 0 && word.X-prevEnd > gap {
			if cell := strings.TrimSpace(current.String()); cell != "" {
				cells = append(cells, cell)
			}
			current.Reset()
		} else if i > 0 {
			current.WriteByte(' ')
		}
		current.WriteString(word.S)
		prevEnd = word.X + word.W
	}
	if cell := strings.TrimSpace(current.String()); cell != "" {
		cells = append(cells, cell)
	}
	return cells
}
