package extractor

import (
	"github.com/AayushPaigwar/resume-sync-ai/internal/agent"
	"github.com/AayushPaigwar/resume-sync-ai/internal/constants"
)

const primaryPromptTemplate = `Analyze this resume text and extract structured information. Follow these rules:
1. Technical skills: List specific technologies, tools, and programming languages
2. Soft skills: Identify interpersonal and professional skills
3. Experience: Extract job titles, company names, and durations in MM/YYYY format

Return ONLY a JSON object with this structure: {"technical_skills": [...], "soft_skills": [...], "experience": [{"title": "...", "company": "...", "duration": "..."}]}

Resume text: `

const degradedPromptTemplate = `Extract skills from this text that might come from a resume. Separate technical skills from soft skills.
Even if the text is partial or corrupted, try to identify any skills that might be present.

Format your response ONLY as a valid JSON object with this structure:
{ "technical_skills": [...], "soft_skills": [...], "experience": [] }

Text: `

const (
	// DegradedNote 降级策略成功时写入 extraction_note
	DegradedNote = "Extracted using fallback AI method. Limited information was available from the document."
	// TotalFailureNote 所有生成式策略失败时写入 extraction_note
	TotalFailureNote = "Unable to extract information from the document. Please try uploading a different file or format."
)

var (
	primaryGeneration  = agent.GenerationConfig{Temperature: 0.3, TopK: 20, TopP: 0.8, MaxOutputTokens: 2048}
	degradedGeneration = agent.GenerationConfig{Temperature: 0.1, TopK: 40, TopP: 0.95, MaxOutputTokens: 512}
)

func buildPrimaryPrompt(text string) string {
	return primaryPromptTemplate + truncateRunes(text, constants.PrimaryMaxInputChars)
}

func buildDegradedPrompt(text string) string {
	return degradedPromptTemplate + truncateRunes(text, constants.DegradedMaxInputChars)
}

// truncateRunes 按字符截取前 n 个
func truncateRunes(s string, n int) string {
	if n <= 0 {
		return ""
	}
	count := 0
	for i := range s {
		if count == n {
			return s[:i]
		}
		count++
	}
	return s
}
