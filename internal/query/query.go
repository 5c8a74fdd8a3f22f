// Package query builds the search-engine query strings for each lookup.
// Every builder is pure and returns a non-empty ordered slice.
package query

import (
	"fmt"
	"strings"

	"golang.org/x/text/width"

	"github.com/garyellow/uonline/internal/i18n"
	"github.com/garyellow/uonline/internal/stringutil"
)

// Clean normalizes a course name for use inside a query: full-width ASCII is
// folded to half-width, quoting characters are removed and whitespace is collapsed.
func Clean(subject string) string {
	s := width.Fold.String(subject)
	s = quoteStripper.Replace(s)
	return stringutil.CollapseSpaces(s)
}

var quoteStripper = strings.NewReplacer(
	"《", "", "》", "",
	"“", "", "”", "", `"`, "",
	"(", "", ")", "",
	"（", "", "）", "",
)

// Curriculum returns the queries used to find a major's course list.
func Curriculum(major string, lang i18n.Language) []string {
	m := strings.TrimSpace(major)
	if lang == i18n.English {
		return []string{
			m + " curriculum courses syllabus",
			m + " degree program course structure",
			m + " major courses requirements",
			m + " academic program curriculum",
		}
	}
	return []string{
		m + " 专业课程设置 课程大纲",
		m + " 专业培养方案 课程体系",
		m + " curriculum courses syllabus",
		m + " 专业核心课程 必修课程",
	}
}

// LearningPathCurriculum returns the queries for the regex-extracted learning path.
func LearningPathCurriculum(major string) []string {
	m := strings.TrimSpace(major)
	return []string{
		m + " 专业课程设置 培养方案",
		m + " 本科课程体系 必修课程",
		m + " curriculum required courses university",
		m + " 学科课程 教学计划",
	}
}

// MOOC returns the free-text queries for online courses of a course.
func MOOC(course, major string) []string {
	c, m := Clean(course), strings.TrimSpace(major)
	return []string{
		fmt.Sprintf(`"%s" MOOC 慕课 在线课程`, c),
		fmt.Sprintf(`"%s" 中国大学MOOC 学堂在线 华文慕课`, c),
		fmt.Sprintf(`"%s" 智慧树 超星尔雅 好大学在线`, c),
		fmt.Sprintf(`"%s" Coursera edX Udacity FutureLearn`, c),
		strings.TrimSpace(fmt.Sprintf(`%s "%s" 网课 视频教程 在线学习`, m, c)),
	}
}

// MOOCSites returns provider-scoped queries using the site: operator.
func MOOCSites(course, major string) []string {
	c, m := Clean(course), strings.TrimSpace(major)
	return []string{
		fmt.Sprintf(`"%s" MOOC 慕课 site:icourse163.org`, c),
		fmt.Sprintf(`"%s" 在线课程 site:xuetangx.com`, c),
		stringutil.CollapseSpaces(fmt.Sprintf(`"%s" %s course site:coursera.org`, c, m)),
		fmt.Sprintf(`"%s" online course site:edx.org`, c),
		stringutil.CollapseSpaces(fmt.Sprintf(`%s %s 网课 在线学习`, c, m)),
	}
}

// Textbook returns the queries for downloadable textbooks of a course.
func Textbook(course, major string) []string {
	c, m := Clean(course), strings.TrimSpace(major)
	return []string{
		fmt.Sprintf(`"%s" 教材 PDF 电子书`, c),
		fmt.Sprintf(`"%s" textbook PDF download`, c),
		strings.TrimSpace(fmt.Sprintf(`%s "%s" 课本 PDF`, m, c)),
	}
}
