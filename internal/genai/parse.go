package genai

import (
	"encoding/json"
	"strings"

	"github.com/garyellow/uonline/internal/sliceutil"
	"github.com/garyellow/uonline/internal/storage"
	"github.com/garyellow/uonline/internal/stringutil"
)

// ParseCourses decodes a model reply into at most MaxCourses courses.
// Markdown fences are tolerated and, when the reply carries prose around
// the array, the outermost bracket span is parsed instead. Unusable replies
// yield an empty list.
func ParseCourses(content string) []storage.Course {
	content = stripFences(content)

	var raw []any
	if err := json.Unmarshal([]byte(content), &raw); err != nil {
		start := strings.Index(content, "[")
		end := strings.LastIndex(content, "]")
		if start < 0 || end <= start {
			return []storage.Course{}
		}
		if err := json.Unmarshal([]byte(content[start:end+1]), &raw); err != nil {
			return []storage.Course{}
		}
	}

	courses := make([]storage.Course, 0, len(raw))
	for _, item := range raw {
		obj, ok := item.(map[string]any)
		if !ok {
			continue
		}
		name, nameOK := obj["name"].(string)
		desc, descOK := obj["description"].(string)
		if !nameOK || !descOK {
			continue
		}
		name = strings.TrimSpace(name)
		desc = strings.TrimSpace(desc)
		if n := stringutil.RuneLen(name); n <= 1 || n >= MaxNameRunes || desc == "" {
			continue
		}
		courses = append(courses, storage.Course{Name: name, Description: desc})
	}

	courses = sliceutil.Deduplicate(courses, func(c storage.Course) string { return c.Name })
	if len(courses) > MaxCourses {
		courses = courses[:MaxCourses]
	}
	return courses
}

func stripFences(s string) string {
	s = strings.TrimSpace(s)
	switch {
	case strings.HasPrefix(s, "```json"):
		s = s[len("```json"):]
	case strings.HasPrefix(s, "```"):
		s = s[len("```"):]
	}
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}
