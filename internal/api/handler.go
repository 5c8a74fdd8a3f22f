// Package api exposes the curriculum, MOOC, record and learning path
// services over HTTP.
package api

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/garyellow/uonline/internal/curriculum"
	"github.com/garyellow/uonline/internal/i18n"
	"github.com/garyellow/uonline/internal/learningpath"
	"github.com/garyellow/uonline/internal/metrics"
	"github.com/garyellow/uonline/internal/mooc"
	"github.com/garyellow/uonline/internal/ratelimit"
	"github.com/garyellow/uonline/internal/records"
	"github.com/garyellow/uonline/internal/storage"
)

// Handler serves the JSON API.
type Handler struct {
	curriculum   *curriculum.Service
	mooc         *mooc.Service
	records      *records.Service
	learningPath *learningpath.Service
	limiter      *ratelimit.KeyedLimiter
	metrics      *metrics.Metrics
}

// HandlerConfig holds the dependencies of a Handler.
type HandlerConfig struct {
	Curriculum   *curriculum.Service
	MOOC         *mooc.Service
	Records      *records.Service
	LearningPath *learningpath.Service
	Limiter      *ratelimit.KeyedLimiter // Optional; guards the search routes
	Metrics      *metrics.Metrics
}

// NewHandler creates a new API handler.
func NewHandler(cfg HandlerConfig) *Handler {
	return &Handler{
		curriculum:   cfg.Curriculum,
		mooc:         cfg.MOOC,
		records:      cfg.Records,
		learningPath: cfg.LearningPath,
		limiter:      cfg.Limiter,
		metrics:      cfg.Metrics,
	}
}

// Register mounts the API routes on r.
func (h *Handler) Register(r gin.IRouter) {
	limited := r.Group("/", RateLimit(h.limiter, h.metrics))
	limited.POST("/curriculum-search", h.curriculumSearch)
	limited.POST("/mooc-search", h.moocSearch)
	limited.POST("/generate-learning-path", h.generateLearningPath)

	r.GET("/course-cache", h.getCourseCache)
	r.POST("/course-cache", h.saveCourseCache)
	r.GET("/records", h.topRecords)
	r.GET("/record/:id", h.getRecord)
	r.POST("/vote", h.vote)
	r.POST("/save-record", h.saveRecord)
}

type curriculumRequest struct {
	Major    string `json:"major"`
	Language string `json:"language"`
}

type moocRequest struct {
	CourseName string `json:"courseName"`
	Major      string `json:"major"`
	Language   string `json:"language"`
}

type courseCacheRequest struct {
	CourseName  string               `json:"courseName"`
	Major       string               `json:"major"`
	Language    string               `json:"language"`
	MOOCCourses []storage.MOOCCourse `json:"moocCourses"`
	Textbooks   []storage.Textbook   `json:"textbooks"`
}

type voteRequest struct {
	RecordID string `json:"recordId"`
	Language string `json:"language"`
}

type saveRecordRequest struct {
	Major    string                `json:"major"`
	Courses  []storage.CourseEntry `json:"courses"`
	Language string                `json:"language"`
}

// requestLanguage prefers an explicit language value over Accept-Language.
func requestLanguage(c *gin.Context, value string) i18n.Language {
	if value != "" {
		return i18n.Parse(value)
	}
	return i18n.Parse(c.GetHeader("Accept-Language"))
}

func (h *Handler) curriculumSearch(c *gin.Context) {
	var req curriculumRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.badRequest(c, requestLanguage(c, ""), i18n.MsgMajorRequired, false)
		return
	}
	lang := requestLanguage(c, req.Language)

	result, err := h.curriculum.Search(c.Request.Context(), req.Major, lang)
	if err != nil {
		h.fail(c, err, lang, i18n.MsgInternalError, false)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h *Handler) moocSearch(c *gin.Context) {
	var req moocRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.badRequest(c, requestLanguage(c, ""), i18n.MsgCourseNameRequired, false)
		return
	}
	lang := requestLanguage(c, req.Language)

	result, err := h.mooc.Search(c.Request.Context(), req.CourseName, req.Major, lang)
	if err != nil {
		h.fail(c, err, lang, i18n.MsgInternalError, false)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h *Handler) generateLearningPath(c *gin.Context) {
	var req curriculumRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.badRequest(c, requestLanguage(c, ""), i18n.MsgInvalidMajor, false)
		return
	}
	lang := requestLanguage(c, req.Language)

	path, err := h.learningPath.Generate(c.Request.Context(), req.Major, lang)
	if err != nil {
		h.fail(c, err, lang, i18n.MsgLearningPathFailed, false)
		return
	}
	c.JSON(http.StatusOK, path)
}

// Cache rows are keyed by language, so both cache endpoints require it
// explicitly rather than falling back to Accept-Language.
func (h *Handler) getCourseCache(c *gin.Context) {
	if strings.TrimSpace(c.Query("language")) == "" {
		h.badRequest(c, requestLanguage(c, ""), i18n.MsgMissingParameters, true)
		return
	}
	lang := requestLanguage(c, c.Query("language"))

	cached, err := h.mooc.GetCache(c.Request.Context(), c.Query("courseName"), c.Query("major"), lang)
	if err != nil {
		h.fail(c, err, lang, i18n.MsgGetCacheFailed, true)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "cache": cached})
}

func (h *Handler) saveCourseCache(c *gin.Context) {
	var req courseCacheRequest
	if err := c.ShouldBindJSON(&req); err != nil || strings.TrimSpace(req.Language) == "" {
		h.badRequest(c, requestLanguage(c, ""), i18n.MsgMissingParameters, true)
		return
	}
	lang := requestLanguage(c, req.Language)

	saved, err := h.mooc.SaveCache(c.Request.Context(), &storage.CourseCache{
		CourseName:  req.CourseName,
		Major:       req.Major,
		MOOCCourses: req.MOOCCourses,
		Textbooks:   req.Textbooks,
	}, lang)
	if err != nil {
		h.fail(c, err, lang, i18n.MsgSaveCacheFailed, true)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "cache": saved})
}

func (h *Handler) topRecords(c *gin.Context) {
	lang := requestLanguage(c, c.Query("language"))

	list, err := h.records.Top(c.Request.Context(), lang)
	if err != nil {
		h.fail(c, err, lang, i18n.MsgGetRecordsFailed, true)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "records": list})
}

func (h *Handler) getRecord(c *gin.Context) {
	lang := requestLanguage(c, c.Query("language"))

	record, err := h.records.Get(c.Request.Context(), c.Param("id"), lang)
	if err != nil {
		h.fail(c, err, lang, i18n.MsgRecordNetworkError, true)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "record": record})
}

func (h *Handler) vote(c *gin.Context) {
	var req voteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.badRequest(c, requestLanguage(c, ""), i18n.MsgRecordIDRequired, true)
		return
	}
	lang := requestLanguage(c, req.Language)

	votes, err := h.records.Vote(c.Request.Context(), req.RecordID, lang)
	if err != nil {
		h.fail(c, err, lang, i18n.MsgVoteFailed, true)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "votes": votes})
}

func (h *Handler) saveRecord(c *gin.Context) {
	var req saveRecordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.badRequest(c, requestLanguage(c, ""), i18n.MsgSaveRecordInvalid, true)
		return
	}
	lang := requestLanguage(c, req.Language)

	courses := make([]storage.Course, len(req.Courses))
	for i, entry := range req.Courses {
		courses[i] = entry.Course()
	}

	saved, err := h.records.Save(c.Request.Context(), req.Major, courses, lang)
	if err != nil {
		h.fail(c, err, lang, i18n.MsgSaveRecordFailed, true)
		return
	}

	body := gin.H{
		"success":  true,
		"recordId": saved.RecordID,
		"existed":  saved.Existed,
	}
	if saved.Existed {
		body["message"] = i18n.T(lang, i18n.MsgRecordExists)
	}
	c.JSON(http.StatusOK, body)
}
