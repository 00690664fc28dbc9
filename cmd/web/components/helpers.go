package components

import (
	"html/template"
	"net/url"
	"strconv"

	"github.com/rubiojr/aurosearch/cmd/web/components/types"
	"github.com/rubiojr/aurosearch/pkg/filters"
	"github.com/rubiojr/aurosearch/pkg/history"
	"github.com/rubiojr/aurosearch/pkg/render"
)

// SearchURL builds the /search link for a query, selection and page. Empty
// filters are left out and page 1 is implied, so following it runs the
// search again.
func SearchURL(query string, sel filters.Selection, page int) string {
	v := searchValues(query, sel)
	if page > 1 {
		v.Set("page", strconv.Itoa(page))
	}
	return "/search?" + v.Encode()
}

// PageURL links to another page of the results shown in data. The page is
// always set, page 1 included, so the link only moves within the results.
func PageURL(data types.PageData, page int) string {
	v := searchValues(data.Query, data.Selection)
	v.Set("page", strconv.Itoa(max(page, 1)))
	return "/search?" + v.Encode()
}

func searchValues(query string, sel filters.Selection) url.Values {
	v := url.Values{}
	v.Set("query", query)
	if sel.Author != "" {
		v.Set("author", sel.Author)
	}
	if sel.Group != "" {
		v.Set("group", sel.Group)
	}
	if sel.BookTitle != "" {
		v.Set("book_title", sel.BookTitle)
	}
	if sel.SearchType != "" && sel.SearchType != filters.SearchAll {
		v.Set("search_type", string(sel.SearchType))
	}
	return v
}

// HistoryURL reruns a recorded search.
func HistoryURL(e history.Entry) string {
	return SearchURL(e.Query, e.Selection, 1)
}

func funcs(groupLabels map[string]string) template.FuncMap {
	fm := render.TemplateFuncs(groupLabels)
	fm["pageURL"] = PageURL
	fm["historyURL"] = HistoryURL
	fm["noResults"] = func() string { return render.NoResults }
	return fm
}
