package storage

import (
	"bytes"
	"encoding/json"
	"fmt"
	"time"

	"github.com/garyellow/uonline/internal/stringutil"
)

// Legacy course strings get a generated description with these suffixes.
const (
	legacyDescriptionZh = "相关课程内容"
	legacyDescriptionEn = " course content"
)

// Course is one entry of a curriculum.
type Course struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

// CourseEntry decodes either stored course shape: a legacy plain string or
// a {"name","description"} object.
type CourseEntry struct {
	legacy     string
	structured *Course
}

// UnmarshalJSON implements json.Unmarshaler.
func (e *CourseEntry) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '"' {
		return json.Unmarshal(data, &e.legacy)
	}
	var c Course
	if err := json.Unmarshal(data, &c); err != nil {
		return fmt.Errorf("decode course entry: %w", err)
	}
	e.structured = &c
	return nil
}

// Course resolves the entry to a Course.
func (e CourseEntry) Course() Course {
	if e.structured != nil {
		return *e.structured
	}
	suffix := legacyDescriptionEn
	if stringutil.ContainsCJK(e.legacy) {
		suffix = legacyDescriptionZh
	}
	return Course{Name: e.legacy, Description: e.legacy + suffix}
}

// decodeCourses reads a stored course list. A list that was itself stored as
// a JSON string is unwrapped first.
func decodeCourses(raw string) ([]Course, error) {
	data := bytes.TrimSpace([]byte(raw))
	if len(data) > 0 && data[0] == '"' {
		var inner string
		if err := json.Unmarshal(data, &inner); err != nil {
			return nil, fmt.Errorf("decode courses: %w", err)
		}
		data = []byte(inner)
	}

	var entries []CourseEntry
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, fmt.Errorf("decode courses: %w", err)
	}
	courses := make([]Course, len(entries))
	for i, e := range entries {
		courses[i] = e.Course()
	}
	return courses, nil
}

// LearningPathRecord is a saved curriculum that can be voted on and shared.
type LearningPathRecord struct {
	ID        string    `json:"id"`
	Major     string    `json:"major"`
	Courses   []Course  `json:"courses"`
	Votes     int       `json:"votes"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// MOOCCourse is an online course offering.
type MOOCCourse struct {
	Title      string   `json:"title"`
	Platform   string   `json:"platform"`
	URL        string   `json:"url"`
	Instructor string   `json:"instructor,omitempty"`
	Rating     *float64 `json:"rating,omitempty"` // 0-5
}

// Textbook is a direct link to a document.
type Textbook struct {
	Title  string `json:"title"`
	URL    string `json:"url"`
	Source string `json:"source"` // Hostname or "Unknown"
}

// CourseCache holds the resources found for one (course, major, language).
type CourseCache struct {
	CourseName  string       `json:"course_name"`
	Major       string       `json:"major"`
	Language    string       `json:"language"`
	MOOCCourses []MOOCCourse `json:"mooc_courses"`
	Textbooks   []Textbook   `json:"textbooks"`
	UpdatedAt   time.Time    `json:"updated_at"`
}
