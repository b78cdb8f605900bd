package utils

import (
	"strings"
	"testing"
)

func TestRenderMarkdownSanitizesScript(t *testing.T) {
	out := string(RenderMarkdown("hello <script>alert(1)</script> world"))
	if strings.Contains(out, "<script") {
		t.Fatalf("script survived sanitization: %s", out)
	}
	if !strings.Contains(out, "hello") {
		t.Fatalf("content lost: %s", out)
	}
}

func TestRenderMarkdownBasicFormatting(t *testing.T) {
	out := string(RenderMarkdown("**credit** the creator"))
	if !strings.Contains(out, "<strong>credit</strong>") {
		t.Fatalf("bold not rendered: %s", out)
	}
}

func TestRenderMarkdownHighlightsCreatorHandles(t *testing.T) {
	out := string(RenderMarkdown("credit goes to @jalaiah_harmon for the original"))
	if !strings.Contains(out, `<span class="creator-handle">@jalaiah_harmon</span>`) {
		t.Fatalf("handle not highlighted: %s", out)
	}

	// 链接路径里的 @ 不是署名，不能被包进 span
	out = string(RenderMarkdown("proof: https://www.tiktok.com/@user/video/1 here"))
	if strings.Contains(out, `creator-handle`) {
		t.Fatalf("handle inside a link path was highlighted: %s", out)
	}
}

func TestRenderMarkdownLinksGetNoFollow(t *testing.T) {
	out := string(RenderMarkdown("[proof](https://example.com/clip)"))
	if !strings.Contains(out, "nofollow") {
		t.Fatalf("external link missing nofollow: %s", out)
	}
	if !strings.Contains(out, `target="_blank"`) {
		t.Fatalf("external link should open in a new tab: %s", out)
	}
}

func TestEnhanceAddsImageAttributes(t *testing.T) {
	out := string(EnhanceHTMLContent(`<p><img src="https://i.example.com/a.jpg"></p>`))
	for _, attr := range []string{`referrerpolicy="no-referrer"`, `loading="lazy"`} {
		if !strings.Contains(out, attr) {
			t.Fatalf("missing %s in %s", attr, out)
		}
	}
}

func TestEnhanceEmbedsLoneYouTubeLink(t *testing.T) {
	out := string(EnhanceHTMLContent(`<p>https://www.youtube.com/watch?v=abc123</p>`))
	if !strings.Contains(out, "youtube.com/embed/abc123") {
		t.Fatalf("youtube link not embedded: %s", out)
	}
}

func TestEnhanceEmbedsTikTokLink(t *testing.T) {
	out := string(EnhanceHTMLContent(`<p>https://www.tiktok.com/@user/video/7301882424</p>`))
	if !strings.Contains(out, `data-video-id="7301882424"`) {
		t.Fatalf("tiktok link not embedded: %s", out)
	}
}

func TestEnhanceLeavesInlineLinksAlone(t *testing.T) {
	in := `<p>watch this https://www.youtube.com/watch?v=abc123 later</p>`
	out := string(EnhanceHTMLContent(in))
	if strings.Contains(out, "iframe") {
		t.Fatalf("inline link should not become an embed: %s", out)
	}
}
