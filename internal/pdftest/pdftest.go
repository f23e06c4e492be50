// Package pdftest builds minimal uncompressed PDF files for tests.
package pdftest

import (
	"fmt"
	"strings"
)

// BuildPDF produces a parseable PDF with one text line block per page.
// Newlines inside a page string become separate text-show operations.
func BuildPDF(pages ...string) []byte {
	var buf strings.Builder
	offsets := make([]int, 0, 4+2*len(pages))
	writeObj := func(body string) {
		offsets = append(offsets, buf.Len())
		buf.WriteString(body)
	}
	buf.WriteString("%PDF-1.4\n")

	kids := make([]string, len(pages))
	pageObjBase := 4
	contentObjBase := pageObjBase + len(pages)
	for i := range pages {
		kids[i] = fmt.Sprintf("%d 0 R", pageObjBase+i)
	}
	writeObj("1 0 obj\n<< /Type /Catalog /Pages 2 0 R >>\nendobj\n")
	writeObj(fmt.Sprintf(
		"2 0 obj\n<< /Type /Pages /Kids [%s] /Count %d >>\nendobj\n",
		strings.Join(kids, " "), len(pages),
	))
	writeObj("3 0 obj\n<< /Type /Font /Subtype /Type1 /BaseFont /Helvetica /Encoding /WinAnsiEncoding >>\nendobj\n")
	for i := range pages {
		writeObj(fmt.Sprintf(
			"%d 0 obj\n<< /Type /Page /Parent 2 0 R /MediaBox [0 0 612 792] "+
				"/Resources << /Font << /F1 3 0 R >> >> /Contents %d 0 R >>\nendobj\n",
			pageObjBase+i, contentObjBase+i,
		))
	}
	for i, page := range pages {
		stream := contentStream(page)
		writeObj(fmt.Sprintf(
			"%d 0 obj\n<< /Length %d >>\nstream\n%s\nendstream\nendobj\n",
			contentObjBase+i, len(stream), stream,
		))
	}

	xrefOffset := buf.Len()
	total := len(offsets) + 1
	buf.WriteString(fmt.Sprintf("xref\n0 %d\n", total))
	buf.WriteString("0000000000 65535 f \n")
	for _, off := range offsets {
		buf.WriteString(fmt.Sprintf("%010d 00000 n \n", off))
	}
	buf.WriteString(fmt.Sprintf(
		"trailer\n<< /Size %d /Root 1 0 R >>\nstartxref\n%d\n%%%%EOF\n",
		total, xrefOffset,
	))
	return []byte(buf.String())
}

func contentStream(page string) string {
	var ops strings.Builder
	ops.WriteString("BT\n/F1 12 Tf\n72 720 Td\n14 TL\n")
	for i, line := range strings.Split(page, "\n") {
		if i > 0 {
			ops.WriteString("T*\n")
		}
		ops.WriteString(fmt.Sprintf("(%s) Tj\n", escapeText(line)))
	}
	ops.WriteString("ET")
	return ops.String()
}

func escapeText(s string) string {
	replacer := strings.NewReplacer(`\`, `\\`, `(`, `\(`, `)`, `\)`)
	return replacer.Replace(s)
}
