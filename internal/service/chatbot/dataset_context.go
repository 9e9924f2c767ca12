package chatbot

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/cloudwego/eino-ext/components/document/loader/file"
	"github.com/cloudwego/eino/components/document"
	"github.com/cloudwego/eino/components/document/parser"
)

// DefaultPreviewBytes caps how much of a dataset is placed in a prompt.
const DefaultPreviewBytes = 16 * 1024

// DatasetContext reads downloaded files and cuts them down to a prompt-sized preview.
type DatasetContext struct {
	loader *file.FileLoader
	limit  int
}

func NewDatasetContext(ctx context.Context, limit int) (*DatasetContext, error) {
	if limit <= 0 {
		limit = DefaultPreviewBytes
	}
	extParser, err := parser.NewExtParser(ctx, &parser.ExtParserConfig{
		FallbackParser: parser.TextParser{},
	})
	if err != nil {
		return nil, fmt.Errorf("init parser: %w", err)
	}
	loader, err := file.NewFileLoader(ctx, &file.FileLoaderConfig{
		UseNameAsID: true,
		Parser:      extParser,
	})
	if err != nil {
		return nil, fmt.Errorf("init file loader: %w", err)
	}
	return &DatasetContext{loader: loader, limit: limit}, nil
}

// Preview returns at most limit bytes of the file without splitting a UTF-8 sequence.
func (d *DatasetContext) Preview(ctx context.Context, path string) (string, error) {
	docs, err := d.loader.Load(ctx, document.Source{URI: path})
	if err != nil {
		return "", fmt.Errorf("load file: %w", err)
	}
	var builder strings.Builder
	for _, doc := range docs {
		if doc == nil || strings.TrimSpace(doc.Content) == "" {
			continue
		}
		builder.WriteString(doc.Content)
	}
	text := builder.String()
	if strings.TrimSpace(text) == "" {
		return "", errors.New("file has no readable text content")
	}
	return truncateUTF8(text, d.limit), nil
}

func truncateUTF8(s string, limit int) string {
	if len(s) <= limit {
		return s
	}
	s = s[:limit]
	// drop at most one partial rune at the cut
	for i := 0; i < utf8.UTFMax-1 && len(s) > 0; i++ {
		if r, size := utf8.DecodeLastRuneInString(s); r != utf8.RuneError || size > 1 {
			break
		}
		s = s[:len(s)-1]
	}
	return s
}
