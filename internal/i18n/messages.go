package i18n

import "fmt"

// Key identifies a catalog entry.
type Key int

const (
	MsgMajorRequired Key = iota
	MsgBraveKeyMissing
	MsgLLMKeyMissing
	MsgSearchRateLimited
	MsgNoCoursesExtracted
	MsgInternalError
	MsgCourseNameRequired
	MsgAPIKeyMissing
	MsgSaveRecordInvalid
	MsgRecordExists
	MsgSaveRecordFailed
	MsgRecordIDRequired
	MsgGetRecordsFailed
	MsgVoteFailed
	MsgRecordNotFound
	MsgRecordTimeout
	MsgRecordNetworkError
	MsgMissingParameters
	MsgGetCacheFailed
	MsgSaveCacheFailed
	MsgTooManyRequests
	MsgInvalidMajor
	MsgLearningPathFailed
	MsgCurriculumDescription
	MsgLearningPathDescription
	MsgCourseDescription
)

var catalog = map[Key][2]string{
	MsgMajorRequired:      {"专业名称不能为空", "Major name cannot be empty"},
	MsgBraveKeyMissing:    {"Brave API密钥未配置", "Brave API key not configured"},
	MsgLLMKeyMissing:      {"SiliconFlow API密钥未配置", "SiliconFlow API key not configured"},
	MsgSearchRateLimited:  {"由于API速率限制，暂时无法获取\"%s\"专业的课程信息。请稍等片刻后重试。", "Due to API rate limits, unable to retrieve course information for \"%s\" at the moment. Please try again later."},
	MsgNoCoursesExtracted: {"未能从搜索结果中提取到\"%s\"专业的有效课程信息", "Unable to extract valid course information for \"%s\" from search results"},
	MsgInternalError:      {"服务器内部错误，请稍后重试", "Internal server error, please try again later"},
	MsgCourseNameRequired: {"课程名称不能为空", "Course name cannot be empty"},
	MsgAPIKeyMissing:      {"API密钥未配置", "API key not configured"},
	MsgSaveRecordInvalid:  {"专业名称和课程列表是必需的", "Major name and course list are required"},
	MsgRecordExists:       {"记录已存在", "Record already exists"},
	MsgSaveRecordFailed:   {"保存记录失败", "Failed to save record"},
	MsgRecordIDRequired:   {"记录ID是必需的", "Record ID is required"},
	MsgGetRecordsFailed:   {"获取记录失败", "Failed to fetch records"},
	MsgVoteFailed:         {"投票失败", "Failed to vote"},
	MsgRecordNotFound:     {"学习路径不存在", "Learning path not found"},
	MsgRecordTimeout:      {"网络连接超时，请稍后重试", "Network timeout, please try again later"},
	MsgRecordNetworkError: {"网络连接失败，请稍后重试", "Network error, please try again later"},
	MsgMissingParameters:  {"缺少必需的参数", "Missing required parameters"},
	MsgGetCacheFailed:     {"获取缓存失败", "Failed to fetch cache"},
	MsgSaveCacheFailed:    {"保存缓存失败", "Failed to save cache"},
	MsgTooManyRequests:    {"请求过于频繁，请稍后再试", "Too many requests, please try again later"},
	MsgInvalidMajor:       {"请提供有效的专业名称", "Please provide a valid major name"},
	MsgLearningPathFailed: {"生成学习路径时发生错误，请稍后重试", "Failed to generate the learning path, please try again later"},

	MsgCurriculumDescription:   {"%s专业的核心课程体系，涵盖理论基础和实践应用。", "Core curriculum for %s, covering theoretical foundations and practical applications."},
	MsgLearningPathDescription: {"%s专业的完整学习路径，包含核心课程和推荐的在线学习资源。建议按顺序学习，每门课程都有对应的MOOC课程可供选择。", "A complete learning path for %s with core courses and recommended online resources. Study the courses in order; each one lists matching MOOCs."},
	MsgCourseDescription:       {"%s是%s专业的重要课程，涵盖该领域的核心理论和实践知识。", "%s is an important course in %s, covering the core theory and practice of the field."},
}

// T returns the message for key in lang.
func T(lang Language, key Key) string {
	pair, ok := catalog[key]
	if !ok {
		return ""
	}
	if lang == English {
		return pair[1]
	}
	return pair[0]
}

// Tf formats the message for key in lang with args.
func Tf(lang Language, key Key, args ...any) string {
	return fmt.Sprintf(T(lang, key), args...)
}
