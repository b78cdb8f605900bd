package utils

import (
	"html/template"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// EnhanceHTMLContent 为 HTML 中的图片增加安全和优化属性，
// 并把单独成段的平台链接（YouTube / TikTok / Instagram）转成嵌入展示
func EnhanceHTMLContent(htmlStr string) template.HTML {
	if htmlStr == "" {
		return ""
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(htmlStr))
	if err != nil {
		return template.HTML(htmlStr)
	}

	// 增强图片属性
	doc.Find("img").Each(func(i int, s *goquery.Selection) {
		s.SetAttr("referrerpolicy", "no-referrer")
		s.SetAttr("rel", "noopener")
		s.SetAttr("loading", "lazy")
	})

	doc.Find("p").Each(func(i int, s *goquery.Selection) {
		text := strings.TrimSpace(s.Text())

		// 只处理单独成段的裸链接
		if !strings.HasPrefix(text, "http") || strings.Contains(text, " ") {
			return
		}

		var embedHTML string
		switch {
		case strings.Contains(text, "youtube.com/watch?v="):
			parts := strings.Split(text, "v=")
			if len(parts) > 1 {
				videoID := strings.Split(parts[1], "&")[0]
				embedHTML = `<div class="video-container"><iframe src="https://www.youtube.com/embed/` + videoID + `" frameborder="0" allowfullscreen allow="accelerometer; autoplay; clipboard-write; encrypted-media; gyroscope; picture-in-picture"></iframe></div>`
			}
		case strings.Contains(text, "youtu.be/"):
			parts := strings.Split(text, "youtu.be/")
			if len(parts) > 1 {
				videoID := strings.Split(parts[1], "?")[0]
				embedHTML = `<div class="video-container"><iframe src="https://www.youtube.com/embed/` + videoID + `" frameborder="0" allowfullscreen allow="accelerometer; autoplay; clipboard-write; encrypted-media; gyroscope; picture-in-picture"></iframe></div>`
			}
		case strings.Contains(text, "tiktok.com/") && strings.Contains(text, "/video/"):
			parts := strings.Split(text, "/video/")
			if len(parts) > 1 {
				videoID := strings.Split(parts[1], "?")[0]
				videoID = strings.TrimSuffix(videoID, "/")
				embedHTML = `<blockquote class="tiktok-embed" cite="` + text + `" data-video-id="` + videoID + `"><a href="` + text + `" target="_blank" rel="noopener noreferrer">` + text + `</a></blockquote>`
			}
		case strings.Contains(text, "instagram.com/p/") || strings.Contains(text, "instagram.com/reel/"):
			embedHTML = `<blockquote class="instagram-media" data-instgrm-permalink="` + text + `"><a href="` + text + `" target="_blank" rel="noopener noreferrer">` + text + `</a></blockquote>`
		}

		if embedHTML != "" {
			s.ReplaceWithHtml(embedHTML)
		}
	})

	// goquery renders full document tags if missing, we just want the body content
	html, _ := doc.Find("body").Html()
	if html == "" {
		html, _ = doc.Html()
	}

	return template.HTML(html)
}
