// Package extract turns uploaded document files into plain text.
// Supported formats are plain text, Markdown, and PDF.
package extract

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/ledongthuc/pdf"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"
)

// ErrUnsupportedFormat indicates the file extension is not recognized.
// This is user-correctable: the caller should report which formats work.
var ErrUnsupportedFormat = errors.New("unsupported file format")

// supportedExtensions maps recognized extensions to their handler.
var supportedExtensions = map[string]func(string) (string, error){
	".txt": textFromPlain,
	".md":  textFromMarkdown,
	".pdf": textFromPDF,
}

// Supported reports whether the file at path has a recognized extension.
func Supported(path string) bool {
	_, ok := supportedExtensions[strings.ToLower(filepath.Ext(path))]
	return ok
}

// Extensions returns the recognized file extensions, for error messages
// and directory scans.
func Extensions() []string {
	return []string{".txt", ".md", ".pdf"}
}

// Text extracts the raw text of the file at path. It returns
// ErrUnsupportedFormat for unrecognized extensions; read or parse
// failures are wrapped with the file path.
func Text(path string) (string, error) {
	ext := strings.ToLower(filepath.Ext(path))
	handler, ok := supportedExtensions[ext]
	if !ok {
		return "", fmt.Errorf("%s: %w (supported: %s)", path, ErrUnsupportedFormat, strings.Join(Extensions(), ", "))
	}

	content, err := handler(path)
	if err != nil {
		return "", fmt.Errorf("extracting text from %s: %w", path, err)
	}
	return content, nil
}

func textFromPlain(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// textFromMarkdown parses the Markdown document and collects the plain
// text of all nodes, so headings, emphasis markers, and link targets do
// not pollute the embedded text.
func textFromMarkdown(path string) (string, error) {
	source, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}

	doc := goldmark.New().Parser().Parse(text.NewReader(source))

	var sb strings.Builder
	err = ast.Walk(doc, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			// Separate block-level nodes so paragraphs do not run together.
			if n.Type() == ast.TypeBlock && sb.Len() > 0 {
				sb.WriteString("\n")
			}
			return ast.WalkContinue, nil
		}

		switch node := n.(type) {
		case *ast.Text:
			sb.Write(node.Segment.Value(source))
			if node.SoftLineBreak() || node.HardLineBreak() {
				sb.WriteString("\n")
			}
		case *ast.FencedCodeBlock, *ast.CodeBlock:
			lines := n.Lines()
			for i := 0; i < lines.Len(); i++ {
				seg := lines.At(i)
				sb.Write(seg.Value(source))
			}
		case *ast.AutoLink:
			sb.Write(node.URL(source))
		}
		return ast.WalkContinue, nil
	})
	if err != nil {
		return "", err
	}

	return strings.TrimSpace(sb.String()), nil
}

func textFromPDF(path string) (string, error) {
	file, reader, err := pdf.Open(path)
	if err != nil {
		return "", err
	}
	defer file.Close()

	plain, err := reader.GetPlainText()
	if err != nil {
		return "", err
	}

	var buf bytes.Buffer
	if _, err := buf.ReadFrom(plain); err != nil {
		return "", err
	}
	return buf.String(), nil
}
