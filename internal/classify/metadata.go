package classify

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/garyellow/uonline/internal/stringutil"
)

var (
	moocDisallowed = []*regexp.Regexp{
		regexp.MustCompile(`招生|录取|考试|报名|学费`),
		regexp.MustCompile(`新闻|资讯|公告|通知`),
		regexp.MustCompile(`论坛|讨论|问答`),
		regexp.MustCompile(`搜索结果|相关课程|推荐课程`),
	}

	textbookDisallowed = []*regexp.Regexp{
		regexp.MustCompile(`搜索结果|相关文档|推荐资料`),
		regexp.MustCompile(`广告|招生|培训|考试`),
	}

	instructorPatterns = []*regexp.Regexp{
		regexp.MustCompile(`(?:讲师|教师|主讲|授课)[：:]?\s*([^，。；\n]{2,20})`),
		regexp.MustCompile(`教授[：:]\s*([^，。；\n]{2,20})`),
		regexp.MustCompile(`(?i)(?:instructor|professor)[：:]\s*([^,，。；;\n]{2,40})`),
	}

	ratingPatterns = []*regexp.Regexp{
		regexp.MustCompile(`(?:评分|评价|星级)[：:]?\s*(\d+(?:\.\d+)?)`),
		regexp.MustCompile(`(\d+(?:\.\d+)?)\s*[分/]\s*5`),
		regexp.MustCompile(`(?i)(\d+(?:\.\d+)?)\s*stars?`),
	}

	leadingTag     = regexp.MustCompile(`^\[.*?\]\s*`)
	platformSuffix = regexp.MustCompile(`(?i)\s*-\s*.*?MOOC.*$`)
)

// HasDisallowedContent reports admissions, news, forum or listing boilerplate.
func HasDisallowedContent(text string) bool {
	return matchesAny(moocDisallowed, text)
}

func hasTextbookDisallowedContent(text string) bool {
	return matchesAny(textbookDisallowed, text)
}

func matchesAny(patterns []*regexp.Regexp, text string) bool {
	for _, p := range patterns {
		if p.MatchString(text) {
			return true
		}
	}
	return false
}

// IsRelevant reports whether any word of subject longer than one rune occurs
// in text, ignoring case. A subject made only of single-rune words never
// matches: a lone letter occurs in almost any title.
func IsRelevant(text, subject string) bool {
	text = strings.ToLower(text)
	for _, word := range strings.Fields(strings.ToLower(subject)) {
		if stringutil.RuneLen(word) > 1 && strings.Contains(text, word) {
			return true
		}
	}
	return false
}

// Instructor returns a labeled instructor name from text, or "".
func Instructor(text string) string {
	for _, p := range instructorPatterns {
		if m := p.FindStringSubmatch(text); m != nil {
			return strings.TrimSpace(m[1])
		}
	}
	return ""
}

// Rating returns a labeled score from text. Only the first matching form is
// considered, and it must lie within [0, 5].
func Rating(text string) (float64, bool) {
	for _, p := range ratingPatterns {
		m := p.FindStringSubmatch(text)
		if m == nil {
			continue
		}
		v, err := strconv.ParseFloat(m[1], 64)
		if err != nil || v < 0 || v > 5 {
			return 0, false
		}
		return v, true
	}
	return 0, false
}

// CleanMOOCTitle drops a leading [tag] and a trailing " - ...MOOC..." suffix.
func CleanMOOCTitle(title string) string {
	title = leadingTag.ReplaceAllString(title, "")
	title = platformSuffix.ReplaceAllString(title, "")
	return strings.TrimSpace(title)
}
