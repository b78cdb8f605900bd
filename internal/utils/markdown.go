package utils

import (
	"bytes"
	"html/template"
	"regexp"

	"github.com/microcosm-cc/bluemonday"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/renderer/html"
)

// 求证帖描述和评论都是短文本，GFM 加硬换行就够了
var mdParser = goldmark.New(
	goldmark.WithExtensions(extension.GFM),
	goldmark.WithRendererOptions(html.WithHardWraps()),
)

var policy = contentPolicy()

// contentPolicy 针对求证内容定制的净化策略：正文允许贴图和证据外链，
// 外链新窗口打开、nofollow 且不带 referrer，避免给待考证的账号导流
func contentPolicy() *bluemonday.Policy {
	p := bluemonday.UGCPolicy()
	p.AllowImages()
	p.AddTargetBlankToFullyQualifiedLinks(true)
	p.RequireNoFollowOnLinks(true)
	p.RequireNoReferrerOnLinks(true)
	return p
}

// handlePattern 匹配正文里的裸创作者署名，链接里的 @ 前面是 / 不会命中
var handlePattern = regexp.MustCompile(`(^|[\s>(])(@[A-Za-z0-9_][A-Za-z0-9_.]{1,29})`)

// RenderMarkdown 把求证帖描述 / 评论的 Markdown 渲染成净化后的 HTML。
// 裸 @handle 包上 creator-handle 样式，独立成段的媒体链接转成嵌入式播放器
func RenderMarkdown(source string) template.HTML {
	var buf bytes.Buffer
	if err := mdParser.Convert([]byte(source), &buf); err != nil {
		return template.HTML(policy.Sanitize(source))
	}

	sanitized := policy.SanitizeBytes(buf.Bytes())
	marked := handlePattern.ReplaceAllString(string(sanitized),
		`$1<span class="creator-handle">$2</span>`)

	return EnhanceHTMLContent(marked)
}
