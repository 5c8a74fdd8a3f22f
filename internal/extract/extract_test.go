package extract

import (
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
)

func TestCourseNames(t *testing.T) {
	text := "计算机科学专业核心课程包括《数据结构与算法》、《操作系统》，以及 计算机组成原理 和 编译原理。" +
		"联系电话021-1234567，点击查看更多详情。"

	names := CourseNames(text, "计算机科学")

	assert.Contains(t, names, "数据结构与算法")
	assert.Contains(t, names, "计算机组成原理")
	assert.Contains(t, names, "编译原理")
	assert.NotContains(t, names, "计算机科学")
	for _, n := range names {
		assert.True(t, IsValidCourseName(n), n)
	}
}

func TestCourseNames_Deduplicates(t *testing.T) {
	text := "《线性代数》 《线性代数》 线性代数基础 线性代数基础"
	names := CourseNames(text, "数学")

	seen := make(map[string]bool)
	for _, n := range names {
		assert.False(t, seen[n], "duplicate %q", n)
		seen[n] = true
	}
	assert.Equal(t, "线性代数", names[0])
}

func TestCourseNames_LengthBounds(t *testing.T) {
	inputs := []string{
		"",
		"数学",
		"《数学》",
		"这是一个非常非常非常非常非常非常非常长的计算机相关的描述文字没有任何分隔符号一直写下去网络工程",
		"Introduction to Algorithms, Machine Learning Basics, 机器学习导论 和 深度学习实践 以及 高等数学基础",
		"Data Structures \"Computer Architecture\" 《软件工程导论》",
	}
	for _, in := range inputs {
		for _, n := range CourseNames(in, "") {
			l := utf8.RuneCountInString(n)
			assert.GreaterOrEqual(t, l, 3, n)
			assert.LessOrEqual(t, l, 25, n)
		}
	}
}

func TestCourseNames_Empty(t *testing.T) {
	assert.Empty(t, CourseNames("", "计算机"))
	assert.Empty(t, CourseNames("hello world", ""))
}

func TestIsValidCourseName(t *testing.T) {
	tests := []struct {
		name string
		want bool
	}{
		{"数据结构与算法", true},
		{"计算机网络", true},
		{"Data Mining 101", true},
		{"Python编程", true},
		{"联系电话021-1234567", false},
		{"12345", false},
		{"Algorithms", false},
		{"北京大学课程", false},
		{"2024年课程表", false},
		{"免费课程资源", false},
		{"点击进入课程", false},
		{"微信公众号课程", false},
		{"线代", false},
		{"这是一个超过二十五个字符长度限制的非常非常长的课程名称示例", false},
		{"foo bar baz", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, IsValidCourseName(tt.name))
		})
	}
}

func TestDefaultCourses(t *testing.T) {
	tests := []struct {
		major string
		first string
	}{
		{"计算机科学与技术", "计算机科学导论"},
		{"软件工程", "计算机科学导论"},
		{"Computer Science", "计算机科学导论"},
		{"数据科学", "数据科学导论"},
		{"Data Science", "数据科学导论"},
		{"应用心理学", "普通心理学"},
		{"Economics", "微观经济学"},
		{"历史学", "历史学概论"},
	}
	for _, tt := range tests {
		t.Run(tt.major, func(t *testing.T) {
			courses := DefaultCourses(tt.major)
			assert.Len(t, courses, 8)
			assert.Equal(t, tt.first, courses[0])
		})
	}
}

func TestDefaultCourses_ReturnsCopy(t *testing.T) {
	a := DefaultCourses("计算机")
	a[0] = "changed"
	assert.Equal(t, "计算机科学导论", DefaultCourses("计算机")[0])
}
