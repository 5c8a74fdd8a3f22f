// Package extract pulls candidate course names out of free search text with
// regular expressions. It is the keyless extraction path used when no
// language model is involved.
package extract

import (
	"regexp"
	"strings"

	"github.com/garyellow/uonline/internal/sliceutil"
	"github.com/garyellow/uonline/internal/stringutil"
)

const (
	minCandidateRunes = 3
	maxCandidateRunes = 20
	minNameRunes      = 3
	maxNameRunes      = 25
)

const separators = `\s，。；！？`

var (
	// Quoted or bracketed phrases.
	quotedPattern = regexp.MustCompile(`[《“"]([^》”"]{3,20})[》”"]`)

	// Phrases built around academic-domain vocabulary.
	domainPattern = regexp.MustCompile(`[^` + separators + `]{2,15}(?:` +
		`数学|物理|化学|生物|计算机|编程|算法|数据结构|机器学习|人工智能|统计|概率|线性代数|微积分|离散数学|` +
		`操作系统|数据库|网络|软件工程|心理学|经济学|管理学|会计|金融|市场营销|法学|哲学|文学|历史|政治|` +
		`社会学|教育学|医学|工程|建筑|设计|艺术|语言学` +
		`)[^` + separators + `]{0,10}`)

	// Phrases ending in a typical course suffix.
	suffixPattern = regexp.MustCompile(`[^` + separators + `]{2,15}(?:` +
		`基础|概论|原理|导论|入门|进阶|高级|实践|实验|项目|设计|分析|理论|方法|技术|系统|应用` +
		`)`)

	quoteStripper = strings.NewReplacer("《", "", "》", "", "“", "", "”", "", `"`, "")
)

var (
	invalidNamePatterns = []*regexp.Regexp{
		regexp.MustCompile(`专业|学院|大学|学校|系部|招生|就业|毕业|学位|证书`),
		regexp.MustCompile(`网站|链接|地址|电话|邮箱|QQ|微信`),
		regexp.MustCompile(`年|月|日|时间|地点`),
		regexp.MustCompile(`价格|费用|收费|免费|优惠`),
		regexp.MustCompile(`点击|查看|详情|更多|登录|注册`),
	}

	academicEnglish = regexp.MustCompile(`(?i)math|physics|chemistry|biology|computer|programming|algorithm|` +
		`data|machine|learning|statistics|psychology|economics|management|accounting|finance|marketing|law|` +
		`philosophy|literature|history|politics|sociology|education|medicine|engineering|architecture|design|art`)
)

// CourseNames returns plausible course names found in text, deduplicated in
// first-seen order. The subject hint itself is never returned.
func CourseNames(text, subjectHint string) []string {
	hint := strings.TrimSpace(subjectHint)

	var candidates []string
	for _, m := range quotedPattern.FindAllStringSubmatch(text, -1) {
		candidates = append(candidates, m[1])
	}
	candidates = append(candidates, domainPattern.FindAllString(text, -1)...)
	candidates = append(candidates, suffixPattern.FindAllString(text, -1)...)

	names := make([]string, 0, len(candidates))
	for _, c := range candidates {
		c = strings.TrimSpace(quoteStripper.Replace(c))
		n := stringutil.RuneLen(c)
		if n < minCandidateRunes || n > maxCandidateRunes {
			continue
		}
		if c == hint || !IsValidCourseName(c) {
			continue
		}
		names = append(names, c)
	}

	return sliceutil.Deduplicate(names, func(s string) string { return s })
}

// IsValidCourseName rejects boilerplate, contact details, prices and similar
// noise, and requires either a CJK character or an academic English word.
func IsValidCourseName(name string) bool {
	if stringutil.IsNumeric(name) || stringutil.IsLatinLetters(name) {
		return false
	}
	for _, p := range invalidNamePatterns {
		if p.MatchString(name) {
			return false
		}
	}

	n := stringutil.RuneLen(name)
	if n < minNameRunes || n > maxNameRunes {
		return false
	}

	return stringutil.ContainsCJK(name) || academicEnglish.MatchString(name)
}
