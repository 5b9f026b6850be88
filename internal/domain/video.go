// Package domain contains domain models for the application.
package domain

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
)

// ErrInvalidReference is returned when a YouTube URL or video ID cannot be parsed.
var ErrInvalidReference = errors.New("invalid youtube url or video id")

var videoIDPattern = regexp.MustCompile(`^[A-Za-z0-9_-]{11}$`)

// Accepted URL shapes, tried in order; first match wins.
var videoURLPatterns = []*regexp.Regexp{
	regexp.MustCompile(`youtube\.com/watch\?(?:[^#\s]*&)?v=([A-Za-z0-9_-]{11})`),
	regexp.MustCompile(`youtu\.be/([A-Za-z0-9_-]{11})`),
	regexp.MustCompile(`youtube\.com/embed/([A-Za-z0-9_-]{11})`),
}

// VideoReference is an immutable value object wrapping a YouTube URL and the
// 11-character video ID extracted from it. Two references are equal when
// their IDs match, regardless of the surface URL form.
type VideoReference struct {
	url string
	id  string
}

// VideoReferenceFromURL parses any accepted YouTube URL shape (watch, short
// link, embed) into a VideoReference. Validation is purely syntactic.
func VideoReferenceFromURL(raw string) (VideoReference, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return VideoReference{}, fmt.Errorf("%w: empty url", ErrInvalidReference)
	}
	for _, p := range videoURLPatterns {
		if m := p.FindStringSubmatch(raw); m != nil {
			return VideoReference{url: raw, id: m[1]}, nil
		}
	}
	return VideoReference{}, fmt.Errorf("%w: %s", ErrInvalidReference, raw)
}

// VideoReferenceFromID builds a VideoReference from a known video ID,
// synthesizing the canonical watch URL.
func VideoReferenceFromID(id string) (VideoReference, error) {
	if !videoIDPattern.MatchString(id) {
		return VideoReference{}, fmt.Errorf("%w: %s", ErrInvalidReference, id)
	}
	return VideoReference{url: "https://www.youtube.com/watch?v=" + id, id: id}, nil
}

// RehydrateVideoReference rebuilds a reference from stored url/id columns.
// The id is still validated; the url is trusted as persisted.
func RehydrateVideoReference(url, id string) (VideoReference, error) {
	if !videoIDPattern.MatchString(id) {
		return VideoReference{}, fmt.Errorf("%w: %s", ErrInvalidReference, id)
	}
	if url == "" {
		url = "https://www.youtube.com/watch?v=" + id
	}
	return VideoReference{url: url, id: id}, nil
}

// URL returns the source URL the reference was built from.
func (v VideoReference) URL() string { return v.url }

// ID returns the extracted video ID.
func (v VideoReference) ID() string { return v.id }

// IsZero reports whether the reference is the zero value.
func (v VideoReference) IsZero() bool { return v.id == "" }

// WatchURL returns the canonical watch URL for the video.
func (v VideoReference) WatchURL() string {
	return "https://www.youtube.com/watch?v=" + v.id
}

// EmbedURL returns the embeddable player URL for the video.
func (v VideoReference) EmbedURL() string {
	return "https://www.youtube.com/embed/" + v.id
}

// ThumbnailURL returns the thumbnail image URL at the given quality
// (e.g. "maxresdefault", "hqdefault").
func (v VideoReference) ThumbnailURL(quality string) string {
	if quality == "" {
		quality = "maxresdefault"
	}
	return fmt.Sprintf("https://img.youtube.com/vi/%s/%s.jpg", v.id, quality)
}

// Equal reports whether both references point at the same video.
func (v VideoReference) Equal(o VideoReference) bool { return v.id == o.id }
