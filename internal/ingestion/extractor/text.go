package extractor

import (
	"archive/zip"
	"bytes"
	"encoding/xml"
	"fmt"
	"io"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	pdf "github.com/ledongthuc/pdf"
)

// ExtractText returns the document's text with one logical line per paragraph,
// row or slide element. Line structure is kept because section detection is line based.
func ExtractText(originalName, mimeType string, data []byte) (string, error) {
	if len(data) == 0 {
		return "", fmt.Errorf("empty file: name=%s mime=%s", originalName, mimeType)
	}
	ext := strings.ToLower(filepath.Ext(originalName))
	mt := NormalizeMime(mimeType)

	switch {
	case isPDF(data):
		return extractPDF(data)
	case isZip(data):
		switch {
		case mt == MimeDOCX || ext == ".docx":
			return extractDOCX(data)
		case mt == MimePPTX || ext == ".pptx":
			return extractPPTX(data)
		}
		return "", fmt.Errorf("unsupported zip container: name=%s mime=%s", originalName, mimeType)
	case mt == MimePDF || ext == ".pdf":
		return "", fmt.Errorf("file claims pdf but missing %%PDF header: name=%s", originalName)
	case mt == MimeDOCX || mt == MimePPTX:
		return "", fmt.Errorf("file claims office document but is not a zip container: name=%s", originalName)
	case mt == MimeText || ext == ".txt" || ext == ".md":
		return normalizeLines(string(data)), nil
	}
	return "", fmt.Errorf("unsupported document type: name=%s mime=%s", originalName, mimeType)
}

func isPDF(b []byte) bool {
	return len(b) >= 5 && string(b[:5]) == "%PDF-"
}

func isZip(b []byte) bool {
	return len(b) >= 4 && b[0] == 'P' && b[1] == 'K' && b[2] == 3 && b[3] == 4
}

func extractPDF(data []byte) (string, error) {
	r, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", fmt.Errorf("pdf reader: %w", err)
	}
	var out strings.Builder
	for i := 1; i <= r.NumPage(); i++ {
		page := r.Page(i)
		if page.V.IsNull() {
			continue
		}
		rows, err := page.GetTextByRow()
		if err != nil {
			return "", fmt.Errorf("pdf page %d: %w", i, err)
		}
		for _, row := range rows {
			words := make([]string, 0, len(row.Content))
			for _, w := range row.Content {
				words = append(words, w.S)
			}
			out.WriteString(strings.Join(words, ""))
			out.WriteString("\n")
		}
	}
	text := normalizeLines(out.String())
	if text != "" {
		return text, nil
	}
	plain, err := r.GetPlainText()
	if err != nil {
		return "", fmt.Errorf("pdf plaintext: %w", err)
	}
	b, err := io.ReadAll(plain)
	if err != nil {
		return "", fmt.Errorf("pdf read: %w", err)
	}
	return normalizeLines(string(b)), nil
}

func extractDOCX(data []byte) (string, error) {
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", fmt.Errorf("docx open: %w", err)
	}
	body, err := readZipFile(zr.File, "word/document.xml")
	if err != nil {
		return "", fmt.Errorf("docx body: %w", err)
	}
	return normalizeLines(strings.Join(xmlParagraphs(body, "p"), "\n")), nil
}

func extractPPTX(data []byte) (string, error) {
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", fmt.Errorf("pptx open: %w", err)
	}
	var slides []string
	for _, f := range zr.File {
		if strings.HasPrefix(f.Name, "ppt/slides/slide") && strings.HasSuffix(f.Name, ".xml") {
			slides = append(slides, f.Name)
		}
	}
	sort.Slice(slides, func(i, j int) bool { return slideNumber(slides[i]) < slideNumber(slides[j]) })

	var lines []string
	for _, name := range slides {
		raw, err := readZipFile(zr.File, name)
		if err != nil {
			return "", fmt.Errorf("pptx %s: %w", name, err)
		}
		lines = append(lines, xmlParagraphs(raw, "p")...)
	}
	return normalizeLines(strings.Join(lines, "\n")), nil
}

func slideNumber(name string) int {
	base := strings.TrimSuffix(strings.TrimPrefix(name, "ppt/slides/slide"), ".xml")
	n, err := strconv.Atoi(base)
	if err != nil {
		return 1 << 30
	}
	return n
}

func readZipFile(files []*zip.File, target string) ([]byte, error) {
	for _, f := range files {
		if f.Name != target {
			continue
		}
		rc, err := f.Open()
		if err != nil {
			return nil, err
		}
		defer rc.Close()
		return io.ReadAll(rc)
	}
	return nil, fmt.Errorf("file not found: %s", target)
}

// xmlParagraphs joins the <t> runs of each paragraph element into one line.
// Word and DrawingML both name paragraphs "p" and text runs "t".
func xmlParagraphs(body []byte, paragraph string) []string {
	dec := xml.NewDecoder(bytes.NewReader(body))
	var (
		out    []string
		cur    strings.Builder
		inPara bool
		inText bool
	)
	for {
		tok, err := dec.Token()
		if err != nil {
			break
		}
		switch t := tok.(type) {
		case xml.StartElement:
			switch t.Name.Local {
			case paragraph:
				inPara = true
				cur.Reset()
			case "t":
				inText = inPara
			case "tab":
				if inPara {
					cur.WriteString(" ")
				}
			}
		case xml.CharData:
			if inText {
				cur.Write(t)
			}
		case xml.EndElement:
			switch t.Name.Local {
			case "t":
				inText = false
			case paragraph:
				if inPara {
					out = append(out, cur.String())
				}
				inPara = false
			}
		}
	}
	return out
}

// normalizeLines unifies line endings and collapses runs of spaces inside each line.
func normalizeLines(s string) string {
	s = strings.ReplaceAll(s, "\r\n", "\n")
	s = strings.ReplaceAll(s, "\r", "\n")
	s = strings.ReplaceAll(s, "\u00a0", " ")
	lines := strings.Split(s, "\n")
	out := make([]string, 0, len(lines))
	for _, line := range lines {
		out = append(out, strings.Join(strings.Fields(line), " "))
	}
	return strings.TrimSpace(strings.Join(out, "\n"))
}
