package extract

import "strings"

var defaultCourseSets = []struct {
	keywords []string
	courses  []string
}{
	{
		keywords: []string{"计算机", "软件", "computer"},
		courses: []string{
			"计算机科学导论", "程序设计基础", "数据结构与算法", "计算机组成原理",
			"操作系统", "数据库系统", "计算机网络", "软件工程",
		},
	},
	{
		keywords: []string{"数据", "data"},
		courses: []string{
			"数据科学导论", "统计学基础", "Python编程", "数据挖掘",
			"机器学习", "数据可视化", "大数据技术", "深度学习",
		},
	},
	{
		keywords: []string{"心理", "psychology"},
		courses: []string{
			"普通心理学", "发展心理学", "社会心理学", "认知心理学",
			"心理统计学", "实验心理学", "心理测量学", "异常心理学",
		},
	},
	{
		keywords: []string{"经济", "economics"},
		courses: []string{
			"微观经济学", "宏观经济学", "计量经济学", "货币银行学",
			"国际经济学", "发展经济学", "产业经济学", "经济史",
		},
	},
}

var genericCourseSuffixes = []string{
	"概论", "基础理论", "研究方法", "实践应用",
	"前沿发展", "案例分析", "专业技能", "综合实践",
}

// DefaultCourses returns a fallback course list for major, used when search
// text yields too few names.
func DefaultCourses(major string) []string {
	lower := strings.ToLower(major)
	for _, set := range defaultCourseSets {
		for _, kw := range set.keywords {
			if strings.Contains(lower, kw) {
				return append([]string(nil), set.courses...)
			}
		}
	}

	courses := make([]string, len(genericCourseSuffixes))
	for i, suffix := range genericCourseSuffixes {
		courses[i] = major + suffix
	}
	return courses
}
