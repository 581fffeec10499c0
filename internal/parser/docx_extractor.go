package parser

import (
	"bytes"
	"context"
	"html"
	"regexp"
	"strings"

	"github.com/AayushPaigwar/resume-sync-ai/internal/constants"
	"github.com/AayushPaigwar/resume-sync-ai/internal/types"

	"github.com/nguyenthenguyen/docx"
)

var (
	docxParagraphEnd = regexp.MustCompile(`</w:p>|<w:br\s*/>|<w:cr\s*/>`)
	docxTab          = regexp.MustCompile(`<w:tab\s*/>`)
	xmlTag           = regexp.MustCompile(`<[^>]*>`)
)

// DOCXExtractor 读取 word/document.xml 中的正文
type DOCXExtractor struct{}

func (x *DOCXExtractor) extract(_ context.Context, content []byte) (*types.ExtractedText, error) {
	doc, err := docx.ReadDocxFromMemory(bytes.NewReader(content), int64(len(content)))
	if err != nil {
		return nil, newExtractionError(ErrDecodeFailure, constants.MediaTypeDOCX, err)
	}
	defer doc.Close()

	return &types.ExtractedText{
		Text:      docxBodyText(doc.Editable().GetContent()),
		PageCount: 0,
	}, nil
}

// docxBodyText 段落结束转换为换行，去掉标签并反转义实体
func docxBodyText(raw string) string {
	s := docxParagraphEnd.ReplaceAllString(raw, "\n")
	s = docxTab.ReplaceAllString(s, "\t")
	s = xmlTag.ReplaceAllString(s, "")
	s = html.UnescapeString(s)

	lines := strings.Split(s, "\n")
	for i, line := range lines {
		lines[i] = strings.TrimRight(line, " \t\r")
	}
	return strings.TrimSpace(strings.Join(lines, "\n"))
}
