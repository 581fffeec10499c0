package extractor

import (
	"encoding/json"
	"errors"
	"regexp"
	"strings"

	"github.com/AayushPaigwar/resume-sync-ai/internal/types"
)

// ErrUnparseableResponse 模型输出既不是 JSON 也不含 json 代码块
var ErrUnparseableResponse = errors.New("model response is not valid JSON")

var fencedJSON = regexp.MustCompile("(?s)```json\\s*(.*?)\\s*```")

// parseModelResponse 先按原文解析，失败后取第一个 ```json 代码块
func parseModelResponse(raw string) (interface{}, error) {
	var value interface{}
	if err := json.Unmarshal([]byte(strings.TrimSpace(raw)), &value); err == nil {
		return value, nil
	}

	m := fencedJSON.FindStringSubmatch(raw)
	if m == nil {
		return nil, ErrUnparseableResponse
	}
	if err := json.Unmarshal([]byte(m[1]), &value); err != nil {
		return nil, ErrUnparseableResponse
	}
	return value, nil
}

// normalizeResponse 把任意 JSON 值校正为结构化结果
// 缺失或类型不符的字段一律视为空数组
func normalizeResponse(value interface{}) *types.StructuredResumeData {
	data := types.NewStructuredResumeData()
	obj, ok := value.(map[string]interface{})
	if !ok {
		return data
	}

	data.TechnicalSkills = stringList(obj["technical_skills"])
	data.SoftSkills = stringList(obj["soft_skills"])

	items, _ := obj["experience"].([]interface{})
	for _, item := range items {
		entry, ok := item.(map[string]interface{})
		if !ok {
			continue
		}
		title := trimmedString(entry["title"])
		company := trimmedString(entry["company"])
		if title == "" || company == "" {
			continue
		}
		data.Experience = append(data.Experience, types.ExperienceEntry{
			Title:    title,
			Company:  company,
			Duration: trimmedString(entry["duration"]),
		})
	}
	return data
}

func stringList(v interface{}) []string {
	out := make([]string, 0)
	items, ok := v.([]interface{})
	if !ok {
		return out
	}
	seen := make(map[string]struct{}, len(items))
	for _, item := range items {
		s := trimmedString(item)
		if s == "" {
			continue
		}
		if _, dup := seen[s]; dup {
			continue
		}
		seen[s] = struct{}{}
		out = append(out, s)
	}
	return out
}

func trimmedString(v interface{}) string {
	s, ok := v.(string)
	if !ok {
		return ""
	}
	return strings.TrimSpace(s)
}
