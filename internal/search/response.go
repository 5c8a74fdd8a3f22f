package search

import (
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/garyellow/uonline/internal/stringutil"
)

type response struct {
	Web struct {
		Results []struct {
			Title       string `json:"title"`
			Description string `json:"description"`
			URL         string `json:"url"`
		} `json:"results"`
	} `json:"web"`
}

// results converts raw hits to plain text and drops unusable entries.
func (r response) results() []Result {
	out := make([]Result, 0, len(r.Web.Results))
	for _, raw := range r.Web.Results {
		res := Result{
			Title:       PlainText(raw.Title),
			Description: PlainText(raw.Description),
			URL:         strings.TrimSpace(raw.URL),
		}
		if res.URL == "" || (res.Title == "" && res.Description == "") {
			continue
		}
		out = append(out, res)
	}
	return out
}

// PlainText strips inline HTML such as <strong> highlights and decodes entities.
func PlainText(s string) string {
	if !strings.ContainsAny(s, "<&") {
		return stringutil.CollapseSpaces(s)
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(s))
	if err != nil {
		return stringutil.CollapseSpaces(s)
	}
	return stringutil.CollapseSpaces(doc.Text())
}
