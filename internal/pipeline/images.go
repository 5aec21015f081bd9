package pipeline

import (
	"context"
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"

	"github.com/damoang/angple-wiki/internal/domain"
	"golang.org/x/net/html"
)

// FileProvider resolves file metadata; unknown ids yield a placeholder
type FileProvider interface {
	GetFile(ctx context.Context, id uint64) domain.FileInfo
}

var imageEmbed = regexp.MustCompile(`(?i)\[\[image:(\d+)([:,][^\]|]*)?(?:\|([^\]]*))?\]\]`)

type imageOptions struct {
	width   int64
	height  int64
	variant string
}

func parseImageOptions(raw string) imageOptions {
	opts := imageOptions{variant: "original"}
	for _, f := range strings.FieldsFunc(raw, func(r rune) bool { return r == ':' || r == ',' }) {
		k, v, ok := strings.Cut(strings.TrimSpace(f), "=")
		if !ok {
			continue
		}
		switch strings.ToLower(k) {
		case "width", "w":
			opts.width, _ = strconv.ParseInt(v, 10, 64)
		case "height", "h":
			opts.height, _ = strconv.ParseInt(v, 10, 64)
		case "variant", "size":
			if v != "" {
				opts.variant = v
			}
		}
	}
	return opts
}

// FitSize scales the stored dimensions to the requested box keeping the
// aspect ratio. Unknown stored dimensions return the request unchanged.
func FitSize(fileW, fileH, w, h int64) (int64, int64) {
	if fileW <= 0 || fileH <= 0 {
		return w, h
	}
	ratio := float64(fileH) / float64(fileW)
	switch {
	case w > 0 && h > 0:
		scale := math.Min(float64(w)/float64(fileW), float64(h)/float64(fileH))
		return int64(math.Round(float64(fileW) * scale)), int64(math.Round(float64(fileH) * scale))
	case w > 0:
		return w, int64(math.Round(float64(w) * ratio))
	case h > 0:
		return int64(math.Round(float64(h) / ratio)), h
	default:
		return fileW, fileH
	}
}

type imageResolver struct {
	files FileProvider
}

func (r *imageResolver) resolve(ctx context.Context, text string) string {
	if r.files == nil {
		return text
	}
	return imageEmbed.ReplaceAllStringFunc(text, func(match string) string {
		m := imageEmbed.FindStringSubmatch(match)
		id, err := strconv.ParseUint(m[1], 10, 64)
		if err != nil {
			return match
		}
		opts := parseImageOptions(m[2])
		caption := strings.TrimSpace(m[3])
		return figure(r.files.GetFile(ctx, id), opts, caption)
	})
}

func figure(info domain.FileInfo, opts imageOptions, caption string) string {
	w, h := FitSize(info.Width, info.Height, opts.width, opts.height)

	class := "wiki-image"
	if info.Placeholder {
		class += " missing"
	}

	var b strings.Builder
	fmt.Fprintf(&b, `<figure class="%s">`, class)
	img := fmt.Sprintf(`<img src="%s" alt="%s"`, html.EscapeString(info.URL(opts.variant)), html.EscapeString(caption))
	if w > 0 {
		img += fmt.Sprintf(` width="%d"`, w)
	}
	if h > 0 {
		img += fmt.Sprintf(` height="%d"`, h)
	}
	img += ">"
	if info.Placeholder {
		b.WriteString(img)
	} else {
		fmt.Fprintf(&b, `<a href="%s">%s</a>`, html.EscapeString(info.URL("original")), img)
	}
	if caption != "" {
		fmt.Fprintf(&b, "<figcaption>%s</figcaption>", html.EscapeString(caption))
	}
	b.WriteString("</figure>")
	return b.String()
}
