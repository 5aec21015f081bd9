// Package imagelink turns bare [https://host/image.png] links in wiki source
// into markdown images.
package imagelink

import (
	"context"
	"net/url"
	"regexp"
	"strings"

	"github.com/damoang/angple-wiki/internal/config"
	"github.com/damoang/angple-wiki/internal/pipeline"
	"github.com/damoang/angple-wiki/internal/plugin"
)

// Name hook owner name
const Name = "imagelink"

// [https://url.com/image.jpg] 패턴 매칭
var pattern = regexp.MustCompile(`(?i)\[(https?://[^\]\s]+\.(?:jpg|jpeg|png|gif|webp|bmp|svg|avif)(?:\?[^\]\s]*)?)\]`)

// markdown 링크 대상에서 문제 되는 문자
var destEscaper = strings.NewReplacer("(", "%28", ")", "%29", " ", "%20", "<", "%3C", ">", "%3E")

// Plugin 이미지 링크 변환 플러그인
type Plugin struct {
	allowedDomains map[string]bool
	linkWrapper    bool
}

// New 플러그인 인스턴스 생성
func New(cfg config.ImageLinkConfig) *Plugin {
	p := &Plugin{
		allowedDomains: make(map[string]bool, len(cfg.AllowedDomains)),
		linkWrapper:    cfg.LinkWrapper,
	}
	for _, d := range cfg.AllowedDomains {
		d = strings.TrimSpace(strings.ToLower(d))
		if d != "" {
			p.allowedDomains[d] = true
		}
	}
	return p
}

// RegisterHooks wiki 본문 필터 등록
func (p *Plugin) RegisterHooks(hm *plugin.HookManager) {
	hm.RegisterFilter(plugin.HookWikiContent, Name, p.filterContent, 10)
}

func (p *Plugin) filterContent(_ context.Context, content string) (string, error) {
	if content == "" {
		return content, nil
	}
	return pipeline.OutsideInlineCode(content, p.Transform), nil
}

// Transform 콘텐츠 내 이미지 링크를 markdown 이미지로 변환
func (p *Plugin) Transform(content string) string {
	return pattern.ReplaceAllStringFunc(content, func(match string) string {
		imageURL := match[1 : len(match)-1]

		// 허용되지 않은 도메인은 변환하지 않음
		if !p.isAllowedDomain(imageURL) {
			return match
		}
		return p.buildImage(imageURL)
	})
}

// isAllowedDomain 허용된 도메인인지 확인
func (p *Plugin) isAllowedDomain(imageURL string) bool {
	// 허용 도메인이 비어있으면 모든 도메인 허용
	if len(p.allowedDomains) == 0 {
		return true
	}

	parsed, err := url.Parse(imageURL)
	if err != nil {
		return false
	}
	host := strings.ToLower(parsed.Hostname())

	// 정확히 일치하거나 서브도메인인 경우 허용
	for d := range p.allowedDomains {
		if host == d || strings.HasSuffix(host, "."+d) {
			return true
		}
	}
	return false
}

func (p *Plugin) buildImage(imageURL string) string {
	dest := destEscaper.Replace(imageURL)
	img := "![image](" + dest + ")"

	// 이미지 클릭 시 원본 열기
	if p.linkWrapper {
		return "[" + img + "](" + dest + ")"
	}
	return img
}
