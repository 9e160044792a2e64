package types

import (
	"fmt"
	"time"
)

// AssetType distinguishes generated media.
type AssetType string

const (
	AssetImage AssetType = "image"
	AssetVideo AssetType = "video"
)

// GeneratedAsset is a piece of media produced by a generation request.
// URL is a data URL for images and a downloadable URI for videos.
type GeneratedAsset struct {
	ID        string    `json:"id"`
	Type      AssetType `json:"type"`
	URL       string    `json:"url"`
	Prompt    string    `json:"prompt"`
	Timestamp time.Time `json:"timestamp"`
}

// AspectRatio is an image or video frame shape accepted by the generation models.
type AspectRatio string

const (
	AspectSquare    AspectRatio = "1:1"
	AspectWide      AspectRatio = "16:9"
	AspectTall      AspectRatio = "9:16"
	AspectPortrait  AspectRatio = "3:4"
	AspectLandscape AspectRatio = "4:3"
)

// AspectRatios lists every supported ratio in display order.
var AspectRatios = []AspectRatio{AspectSquare, AspectWide, AspectTall, AspectPortrait, AspectLandscape}

// ParseAspectRatio validates s against the supported ratios.
func ParseAspectRatio(s string) (AspectRatio, error) {
	for _, r := range AspectRatios {
		if string(r) == s {
			return r, nil
		}
	}
	return "", fmt.Errorf("unsupported aspect ratio %q", s)
}
