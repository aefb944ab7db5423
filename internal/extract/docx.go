package extract

import (
	"archive/zip"
	"bytes"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"strings"
)

const documentPart = "word/document.xml"

// WordprocessingML namespaces, transitional and strict. Elements from other
// vocabularies, such as DrawingML a:p and a:t in shapes, are not body text.
var wordNamespaces = map[string]bool{
	"http://schemas.openxmlformats.org/wordprocessingml/2006/main": true,
	"http://purl.oclc.org/ooxml/wordprocessingml/main":             true,
}

// extractDOCX emits each paragraph's text followed by one space, empty
// paragraphs included, mirroring how python-docx based tools join them.
func extractDOCX(data []byte) (string, error) {
	archive, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", fmt.Errorf("open docx: %w", err)
	}
	var part *zip.File
	for _, f := range archive.File {
		if f.Name == documentPart {
			part = f
			break
		}
	}
	if part == nil {
		return "", fmt.Errorf("open docx: %s not found", documentPart)
	}
	rc, err := part.Open()
	if err != nil {
		return "", fmt.Errorf("open docx: %w", err)
	}
	defer rc.Close()
	return paragraphsText(rc)
}

func paragraphsText(r io.Reader) (string, error) {
	decoder := xml.NewDecoder(r)
	var (
		out       strings.Builder
		paragraph strings.Builder
		inText    bool
		depth     int // nesting of w:p, text boxes can hold paragraphs inside paragraphs
	)
	for {
		tok, err := decoder.Token()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return "", fmt.Errorf("parse docx: %w", err)
		}
		switch el := tok.(type) {
		case xml.StartElement:
			if !wordNamespaces[el.Name.Space] {
				continue
			}
			switch el.Name.Local {
			case "p":
				if depth == 0 {
					paragraph.Reset()
				}
				depth++
			case "t":
				inText = true
			case "tab":
				paragraph.WriteByte('\t')
			case "br", "cr":
				paragraph.WriteByte('\n')
			}
		case xml.EndElement:
			if !wordNamespaces[el.Name.Space] {
				continue
			}
			switch el.Name.Local {
			case "p":
				depth--
				if depth <= 0 {
					depth = 0
					out.WriteString(paragraph.String())
					out.WriteByte(' ')
				}
			case "t":
				inText = false
			}
		case xml.CharData:
			if inText {
				paragraph.Write(el)
			}
		}
	}
	return out.String(), nil
}
