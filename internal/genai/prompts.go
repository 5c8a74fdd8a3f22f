package genai

import (
	"strings"

	"github.com/garyellow/uonline/internal/i18n"
	"github.com/garyellow/uonline/internal/stringutil"
)

const systemPromptZH = `你是一个专业的教育课程分析专家。请从给定的搜索结果中提取{major}专业的核心课程列表。

要求：
1. 只提取真正的课程名称，不要包含无关信息
2. 课程名称要准确、简洁
3. 为每门课程提供简短的描述
4. 必须返回纯JSON格式，不要包含任何markdown标记或代码块
5. 格式：[{"name": "课程名称", "description": "课程描述"}]
6. 最多返回12门课程
7. 过滤掉重复的课程

重要：直接返回JSON数组，不要用` + "```json" + `包围，不要添加任何解释文字。`

const systemPromptEN = `You are a professional educational curriculum analyst. Please extract the core course list for {major} major from the given search results.

Requirements:
1. Extract only real course names, no irrelevant information
2. Course names should be accurate and concise
3. Provide brief descriptions for each course
4. Must return pure JSON format, no markdown tags or code blocks
5. Format: [{"name": "Course Name", "description": "Course Description"}]
6. Maximum 12 courses
7. Filter out duplicate courses

Important: Return JSON array directly, do not wrap with ` + "```json" + `, do not add any explanatory text.`

const (
	userPromptZH = "请从以下搜索结果中提取{major}专业的课程列表：\n\n"
	userPromptEN = "Please extract the course list for {major} major from the following search results:\n\n"
)

// SystemPrompt returns the extraction instructions for major.
func SystemPrompt(major string, lang i18n.Language) string {
	tmpl := systemPromptZH
	if !lang.IsChinese() {
		tmpl = systemPromptEN
	}
	return strings.ReplaceAll(tmpl, "{major}", major)
}

// UserPrompt returns the user turn carrying the first MaxInputRunes of text.
func UserPrompt(text, major string, lang i18n.Language) string {
	tmpl := userPromptZH
	if !lang.IsChinese() {
		tmpl = userPromptEN
	}
	return strings.ReplaceAll(tmpl, "{major}", major) + stringutil.TruncateRunes(text, MaxInputRunes)
}
