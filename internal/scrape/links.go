package scrape

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
)

const (
	rawContentBase = "https://raw.githubusercontent.com"
	blobBase       = "https://github.com"
)

// RewriteReadme makes the relative image sources and links of a rendered
// README point at the repository's default branch.
func RewriteReadme(html, owner, repo string) string {
	return rewriteFragment(html, func(attrName, val string) string {
		if strings.HasPrefix(val, "./") {
			val = val[2:]
		} else {
			val = strings.TrimPrefix(val, "/")
		}
		if attrName == "src" {
			return rawContentBase + "/" + owner + "/" + repo + "/HEAD/" + val
		}
		return blobBase + "/" + owner + "/" + repo + "/blob/HEAD/" + val
	}, false)
}

// rewriteFragment applies resolve to every relative img src and a href of an
// HTML fragment. Anchors, mailto links and data URIs are left alone.
func rewriteFragment(html string, resolve func(attrName, val string) string, newTab bool) string {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return html
	}
	doc.Find("img[src]").Each(func(_ int, sel *goquery.Selection) {
		src, _ := sel.Attr("src")
		if src == "" || strings.HasPrefix(src, "http") || strings.HasPrefix(src, "data:") {
			return
		}
		sel.SetAttr("src", resolve("src", src))
	})
	doc.Find("a").Each(func(_ int, sel *goquery.Selection) {
		href, ok := sel.Attr("href")
		if ok && href != "" && !strings.HasPrefix(href, "http") &&
			!strings.HasPrefix(href, "#") && !strings.HasPrefix(href, "mailto:") {
			sel.SetAttr("href", resolve("href", href))
		}
		if newTab {
			sel.SetAttr("target", "_blank")
		}
	})
	out, err := doc.Find("body").Html()
	if err != nil {
		return html
	}
	return out
}
