package ingest

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/net/html"
)

// Novel is raw source text ready for chunking
type Novel struct {
	Book string // Identifier derived from the file name
	Text string // Whitespace-normalized text
}

// LoadNovel reads a novel from disk. HTML files are reduced to visible text;
// everything else is treated as plain text. Whitespace is collapsed so that
// chunk offsets are stable across platforms and line-ending styles.
func LoadNovel(path string) (*Novel, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read novel: %w", err)
	}

	text := string(raw)
	ext := strings.ToLower(filepath.Ext(path))
	if ext == ".html" || ext == ".htm" {
		text, err = extractVisibleText(text)
		if err != nil {
			return nil, fmt.Errorf("parse HTML novel: %w", err)
		}
	}

	base := filepath.Base(path)
	book := strings.TrimSuffix(base, filepath.Ext(base))

	return &Novel{
		Book: book,
		Text: NormalizeText(text),
	}, nil
}

// NovelFromHTML builds a Novel from already-fetched HTML content
func NovelFromHTML(book, htmlContent string) (*Novel, error) {
	text, err := extractVisibleText(htmlContent)
	if err != nil {
		return nil, fmt.Errorf("parse HTML novel: %w", err)
	}
	return &Novel{Book: book, Text: NormalizeText(text)}, nil
}

// NormalizeText collapses all whitespace runs into single spaces
func NormalizeText(text string) string {
	return strings.Join(strings.Fields(text), " ")
}

// extractVisibleText extracts text nodes from HTML, skipping scripts/styles
func extractVisibleText(htmlContent string) (string, error) {
	doc, err := html.Parse(strings.NewReader(htmlContent))
	if err != nil {
		return "", err
	}

	var buf strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode {
			switch n.Data {
			case "script", "style", "noscript", "iframe":
				return
			}
		}
		if n.Type == html.TextNode {
			text := strings.TrimSpace(n.Data)
			if text != "" {
				buf.WriteString(text)
				buf.WriteString(" ")
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)

	return buf.String(), nil
}
