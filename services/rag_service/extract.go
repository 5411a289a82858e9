package rag_service

import (
	"bytes"
	"fmt"
	"log/slog"
	"strings"

	"code.sajari.com/docconv/v2"
	"github.com/PuerkitoBio/goquery"
	"github.com/ledongthuc/pdf"
)

// DocumentExtractor turns raw uploaded bytes into page text. PDF is the
// primary format; Word and HTML come back as a single page.
type DocumentExtractor struct {
	logger *slog.Logger
}

func NewDocumentExtractor(logger *slog.Logger) *DocumentExtractor {
	return &DocumentExtractor{
		logger: logger,
	}
}

// ExtractTextFromPDF returns the plain text of each page, in page order.
// Null pages are skipped; the caller decides whether the document as a
// whole is empty.
func (e *DocumentExtractor) ExtractTextFromPDF(data []byte) ([]string, error) {
	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		e.logger.Error("Failed to create PDF reader",
			slog.String("error", err.Error()),
			slog.Int("data_size", len(data)))
		return nil, fmt.Errorf("failed to create PDF reader: %w", err)
	}

	totalPage := reader.NumPage()
	e.logger.Debug("Starting PDF text extraction",
		slog.Int("total_pages", totalPage))

	pages := make([]string, 0, totalPage)
	for pageIndex := 1; pageIndex <= totalPage; pageIndex++ {
		page := reader.Page(pageIndex)
		if page.V.IsNull() {
			e.logger.Warn("Null page encountered",
				slog.Int("page_number", pageIndex))
			continue
		}

		text, err := page.GetPlainText(nil)
		if err != nil {
			e.logger.Error("Failed to extract text from page",
				slog.Int("page_number", pageIndex),
				slog.String("error", err.Error()))
			return nil, fmt.Errorf("failed to extract text from page %d: %w", pageIndex, err)
		}

		pages = append(pages, text)
	}

	e.logger.Info("Extracted text from PDF",
		slog.Int("total_pages", totalPage))

	return pages, nil
}

// ExtractTextFromWord extracts the body text of a .doc/.docx document.
func (e *DocumentExtractor) ExtractTextFromWord(data []byte) ([]string, error) {
	mimeType := "application/vnd.openxmlformats-officedocument.wordprocessingml.document"

	result, err := docconv.Convert(bytes.NewReader(data), mimeType, false)
	if err != nil {
		e.logger.Error("Failed to convert Word document",
			slog.String("error", err.Error()),
			slog.Int("data_size", len(data)))
		return nil, fmt.Errorf("failed to convert Word document: %w", err)
	}

	return []string{result.Body}, nil
}

// ExtractTextFromHTML strips markup and returns the visible text of an
// HTML document.
func (e *DocumentExtractor) ExtractTextFromHTML(data []byte) ([]string, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(data))
	if err != nil {
		e.logger.Error("Failed to parse HTML document",
			slog.String("error", err.Error()))
		return nil, fmt.Errorf("failed to parse HTML document: %w", err)
	}

	doc.Find("script, style, noscript").Remove()
	text := strings.TrimSpace(doc.Find("body").Text())
	if text == "" {
		text = strings.TrimSpace(doc.Text())
	}

	return []string{text}, nil
}
