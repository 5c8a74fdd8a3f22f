package classify

import (
	"net/url"
	"regexp"
	"strings"

	"github.com/garyellow/uonline/internal/search"
	"github.com/garyellow/uonline/internal/sliceutil"
	"github.com/garyellow/uonline/internal/storage"
)

const unknownSource = "Unknown"

var (
	documentExtensions = []string{".pdf", ".epub", ".djvu", ".doc", ".docx", ".ppt", ".pptx"}
	extensionSuffix    = regexp.MustCompile(`(?i)\.(?:pdf|epub|djvu|docx?|pptx?)$`)
)

// MOOC converts a search result into a course offering when it is a course
// page of a known provider that matches subject.
func MOOC(r search.Result, subject string) (storage.MOOCCourse, bool) {
	u, err := url.Parse(r.URL)
	if err != nil || u.Host == "" {
		return storage.MOOCCourse{}, false
	}

	name, ok := Platform(u.Hostname())
	if !ok || !HasCoursePath(u.Hostname(), u.Path) || IsListingPath(u.Path) {
		return storage.MOOCCourse{}, false
	}

	text := strings.ToLower(r.Title + " " + r.Description)
	if HasDisallowedContent(text) || !IsRelevant(text, subject) {
		return storage.MOOCCourse{}, false
	}

	course := storage.MOOCCourse{
		Title:      CleanMOOCTitle(r.Title),
		Platform:   name,
		URL:        r.URL,
		Instructor: Instructor(r.Description),
	}
	if course.Title == "" {
		course.Title = strings.TrimSpace(r.Title)
	}
	if rating, ok := Rating(r.Description); ok {
		course.Rating = &rating
	}
	return course, true
}

// MOOCs classifies results in order, dropping rejects and duplicates.
func MOOCs(results []search.Result, subject string) []storage.MOOCCourse {
	var courses []storage.MOOCCourse
	for _, r := range results {
		if c, ok := MOOC(r, subject); ok {
			courses = append(courses, c)
		}
	}
	return DedupMOOCs(courses)
}

// DocumentExtension returns the document extension the URL ends with, or "".
// A query string or fragment after the file name disqualifies the URL; such
// links are usually download pages rather than the document itself.
func DocumentExtension(rawURL string) string {
	p := strings.ToLower(strings.TrimSpace(rawURL))
	for _, ext := range documentExtensions {
		if strings.HasSuffix(p, ext) {
			return ext
		}
	}
	return ""
}

// Textbook converts a search result into a textbook when it links a
// document directly and matches subject.
func Textbook(r search.Result, subject string) (storage.Textbook, bool) {
	if DocumentExtension(r.URL) == "" {
		return storage.Textbook{}, false
	}

	text := strings.ToLower(r.Title + " " + r.Description)
	if hasTextbookDisallowedContent(text) || !IsRelevant(text, subject) {
		return storage.Textbook{}, false
	}

	title := extensionSuffix.ReplaceAllString(strings.TrimSpace(r.Title), "")
	title = strings.TrimSpace(leadingTag.ReplaceAllString(title, ""))

	source := unknownSource
	if u, err := url.Parse(r.URL); err == nil && u.Hostname() != "" {
		source = u.Hostname()
	}

	return storage.Textbook{Title: title, URL: r.URL, Source: source}, true
}

// Textbooks classifies results in order, dropping rejects and duplicates.
func Textbooks(results []search.Result, subject string) []storage.Textbook {
	var books []storage.Textbook
	for _, r := range results {
		if b, ok := Textbook(r, subject); ok {
			books = append(books, b)
		}
	}
	return DedupTextbooks(books)
}

// DedupMOOCs keeps the first course per (title, platform) and per URL.
func DedupMOOCs(courses []storage.MOOCCourse) []storage.MOOCCourse {
	return sliceutil.DeduplicateBy(courses,
		func(c storage.MOOCCourse) string { return "t:" + strings.ToLower(c.Title) + "-" + c.Platform },
		func(c storage.MOOCCourse) string { return "u:" + c.URL },
	)
}

// DedupTextbooks keeps the first textbook per URL, ignoring case.
func DedupTextbooks(books []storage.Textbook) []storage.Textbook {
	return sliceutil.Deduplicate(books, func(b storage.Textbook) string {
		return strings.ToLower(b.URL)
	})
}

// SearchLinks returns provider search pages for course, used when no
// course page was found.
func SearchLinks(course, major string) []storage.MOOCCourse {
	c := encodeComponent(course)
	m := encodeComponent(major)
	return []storage.MOOCCourse{
		{
			Title:      `在中国大学MOOC搜索"` + course + `"`,
			Platform:   "中国大学MOOC",
			URL:        "https://www.icourse163.org/search.htm?search=" + c,
			Instructor: "多位知名教授",
		},
		{
			Title:      `在学堂在线搜索"` + course + `"`,
			Platform:   "学堂在线",
			URL:        "https://www.xuetangx.com/search?query=" + c,
			Instructor: "清华北大等名校教师",
		},
		{
			Title:      `Search "` + course + `" on Coursera`,
			Platform:   "Coursera",
			URL:        "https://www.coursera.org/search?query=" + c + "%20" + m,
			Instructor: "University Professors",
		},
	}
}

// encodeComponent percent-encodes s for a query value, spaces as %20.
func encodeComponent(s string) string {
	return strings.ReplaceAll(url.QueryEscape(s), "+", "%20")
}
