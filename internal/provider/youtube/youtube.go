// Package youtube resolves public video metadata by scraping the watch page.
// Best effort: YouTube's markup changes; every extraction failure surfaces as
// an error the caller maps to a retryable condition.
package youtube

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"regexp"
	"strconv"
	"time"

	"github.com/tiaocarreiro/top5/internal/service"
)

const defaultWatchURL = "https://www.youtube.com/watch?v="

// Responses past this size are truncated; the player config sits early in
// the document.
const maxBodyBytes = 2 << 20

var (
	titleRe    = regexp.MustCompile(`"title":\{"runs":\[\{"text":"((?:[^"\\]|\\.)*)"`)
	metaTitle  = regexp.MustCompile(`<meta name="title" content="([^"]*)"`)
	channelRe  = regexp.MustCompile(`"ownerChannelName":"((?:[^"\\]|\\.)*)"`)
	viewsRe    = regexp.MustCompile(`"viewCount":"(\d+)"`)
	durationRe = regexp.MustCompile(`"lengthSeconds":"(\d+)"`)
	thumbRe    = regexp.MustCompile(`<meta property="og:image" content="([^"]*)"`)
)

// Provider implements service.MetadataProvider against youtube.com.
type Provider struct {
	client   *http.Client
	watchURL string
}

// NewProvider creates a Provider. A nil client gets a sane default timeout.
func NewProvider(client *http.Client) *Provider {
	if client == nil {
		client = &http.Client{Timeout: 10 * time.Second}
	}
	return &Provider{client: client, watchURL: defaultWatchURL}
}

// Fetch resolves title, channel, view count, duration and thumbnail for a
// video ID.
func (p *Provider) Fetch(ctx context.Context, videoID string) (service.VideoMetadata, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.watchURL+videoID, nil)
	if err != nil {
		return service.VideoMetadata{}, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept-Language", "pt-BR,pt;q=0.9,en;q=0.8")

	res, err := p.client.Do(req)
	if err != nil {
		return service.VideoMetadata{}, fmt.Errorf("fetch watch page: %w", err)
	}
	defer res.Body.Close()
	if res.StatusCode != http.StatusOK {
		return service.VideoMetadata{}, fmt.Errorf("watch page returned status %d", res.StatusCode)
	}
	body, err := io.ReadAll(io.LimitReader(res.Body, maxBodyBytes))
	if err != nil {
		return service.VideoMetadata{}, fmt.Errorf("read watch page: %w", err)
	}

	return parseWatchPage(body, videoID)
}

func parseWatchPage(body []byte, videoID string) (service.VideoMetadata, error) {
	meta := service.VideoMetadata{}

	if m := metaTitle.FindSubmatch(body); m != nil {
		meta.Title = string(m[1])
	} else if m := titleRe.FindSubmatch(body); m != nil {
		meta.Title = unescapeJSON(string(m[1]))
	}
	if meta.Title == "" {
		return service.VideoMetadata{}, fmt.Errorf("video %s: title not found", videoID)
	}

	if m := channelRe.FindSubmatch(body); m != nil {
		meta.Channel = unescapeJSON(string(m[1]))
	}
	if m := viewsRe.FindSubmatch(body); m != nil {
		meta.ViewCount, _ = strconv.ParseInt(string(m[1]), 10, 64)
	}
	if m := durationRe.FindSubmatch(body); m != nil {
		meta.DurationSeconds, _ = strconv.Atoi(string(m[1]))
	}
	if m := thumbRe.FindSubmatch(body); m != nil {
		meta.ThumbnailURL = string(m[1])
	}
	return meta, nil
}

// unescapeJSON handles the escapes that actually occur in embedded player
// JSON; anything fancier falls through unchanged.
func unescapeJSON(s string) string {
	var out []rune
	runes := []rune(s)
	for i := 0; i < len(runes); i++ {
		if runes[i] == '\\' && i+1 < len(runes) {
			i++
			switch runes[i] {
			case 'n':
				out = append(out, '\n')
			case 't':
				out = append(out, '\t')
			case 'u':
				if i+4 < len(runes) {
					if v, err := strconv.ParseInt(string(runes[i+1:i+5]), 16, 32); err == nil {
						out = append(out, rune(v))
						i += 4
						continue
					}
				}
				out = append(out, runes[i])
			default:
				out = append(out, runes[i])
			}
			continue
		}
		out = append(out, runes[i])
	}
	return string(out)
}

var _ service.MetadataProvider = (*Provider)(nil)
