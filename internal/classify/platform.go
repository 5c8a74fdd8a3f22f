// Package classify decides which search results are real MOOC course pages
// or downloadable textbooks, and extracts their metadata.
package classify

import "strings"

type platform struct {
	domain string
	name   string
	// coursePaths lists path segments a course page must contain.
	// Empty means any path is accepted.
	coursePaths []string
}

// platforms is matched in order. study.163.com precedes any broader 163 entry.
var platforms = []platform{
	{domain: "study.163.com", name: "网易云课堂"},
	{domain: "icourse163.org", name: "中国大学MOOC", coursePaths: []string{"/course/", "/learn/"}},
	{domain: "xuetangx.com", name: "学堂在线", coursePaths: []string{"/courses/", "/learn/"}},
	{domain: "coursera.org", name: "Coursera", coursePaths: []string{"/learn/", "/specializations/"}},
	{domain: "edx.org", name: "edX", coursePaths: []string{"/course/"}},
	{domain: "udacity.com", name: "Udacity", coursePaths: []string{"/course/"}},
	{domain: "udemy.com", name: "Udemy"},
	{domain: "bilibili.com", name: "哔哩哔哩"},
	{domain: "ewant.org", name: "华文慕课"},
	{domain: "zhihuishu.com", name: "智慧树", coursePaths: []string{"/courseDetail"}},
	{domain: "chaoxing.com", name: "超星尔雅"},
	{domain: "cnmooc.org", name: "好大学在线"},
	{domain: "futurelearn.com", name: "FutureLearn"},
	{domain: "swayam.gov.in", name: "SWAYAM"},
	{domain: "france-universite-numerique-mooc.fr", name: "FUN MOOC"},
	{domain: "iversity.org", name: "Iversity"},
	{domain: "kadenze.com", name: "Kadenze"},
	{domain: "canvas.net", name: "Canvas Network"},
	{domain: "alison.com", name: "Alison"},
	{domain: "skillshare.com", name: "Skillshare"},
}

func lookupPlatform(host string) (platform, bool) {
	host = strings.TrimSuffix(strings.ToLower(host), ".")
	for _, p := range platforms {
		if host == p.domain || strings.HasSuffix(host, "."+p.domain) {
			return p, true
		}
	}
	return platform{}, false
}

// Platform returns the display name of a known course provider host.
// Subdomains match their parent domain.
func Platform(host string) (string, bool) {
	p, ok := lookupPlatform(host)
	return p.name, ok
}

// HasCoursePath reports whether path looks like a course page for the
// provider at host. Providers without a path rule always pass; unknown
// hosts never do.
func HasCoursePath(host, path string) bool {
	p, ok := lookupPlatform(host)
	if !ok {
		return false
	}
	if len(p.coursePaths) == 0 {
		return true
	}
	for _, seg := range p.coursePaths {
		if strings.Contains(path, seg) {
			return true
		}
	}
	return false
}

var listingSegments = []string{"/search", "/category", "/browse", "/list", "/tag", "/subject", "/directory"}

// IsListingPath reports whether path is a search, category or other index page.
func IsListingPath(path string) bool {
	lower := strings.ToLower(path)
	for _, seg := range listingSegments {
		if strings.Contains(lower, seg) {
			return true
		}
	}
	return false
}
