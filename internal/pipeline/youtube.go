package pipeline

import (
	"fmt"
	"regexp"

	"github.com/damoang/angple-wiki/internal/config"
)

// YouTube 패턴: youtube.com/watch?v=ID, youtu.be/ID, youtube.com/embed/ID (한 줄 전체)
var youtubeLine = regexp.MustCompile(`(?im)^[ \t]*(?:https?://)?(?:www\.)?(?:youtube\.com/(?:watch\?v=|embed/)|youtu\.be/)([a-zA-Z0-9_-]{11})(?:[?&]\S*)?[ \t]*$`)

type youtubeEmbedder struct {
	maxWidth    int
	aspectRatio string
}

func newYouTubeEmbedder(cfg config.EmbedConfig) *youtubeEmbedder {
	e := &youtubeEmbedder{maxWidth: cfg.MaxWidth, aspectRatio: cfg.AspectRatio}
	if e.maxWidth <= 0 {
		e.maxWidth = 560
	}
	return e
}

// embed YouTube URL 단독 줄을 iframe으로 변환
func (e *youtubeEmbedder) embed(text string) string {
	return youtubeLine.ReplaceAllStringFunc(text, func(line string) string {
		m := youtubeLine.FindStringSubmatch(line)
		if len(m) < 2 {
			return line
		}
		return fmt.Sprintf(
			"\n"+`<div class="embed-container youtube" style="max-width:%dpx">
<iframe src="https://www.youtube.com/embed/%s" width="%d" height="%d" frameborder="0" allow="accelerometer; autoplay; clipboard-write; encrypted-media; gyroscope; picture-in-picture" allowfullscreen loading="lazy"></iframe>
</div>`+"\n",
			e.maxWidth, m[1], e.maxWidth, e.height(),
		)
	})
}

// height 비율에 따른 높이 계산
func (e *youtubeEmbedder) height() int {
	switch e.aspectRatio {
	case "4:3":
		return e.maxWidth * 3 / 4
	case "1:1":
		return e.maxWidth
	default: // 16:9
		return e.maxWidth * 9 / 16
	}
}
