package models

import (
	"fmt"
	"strings"
)

// Platform identifies a publishing destination kind. The set is closed:
// requests naming anything else are rejected at the API boundary.
type Platform string

const (
	PlatformFacebookPage  Platform = "facebook_page"
	PlatformFacebookGroup Platform = "facebook_group"
	PlatformYouTube       Platform = "youtube"
	PlatformTelegram      Platform = "telegram"
)

var allPlatforms = map[Platform]bool{
	PlatformFacebookPage:  true,
	PlatformFacebookGroup: true,
	PlatformYouTube:       true,
	PlatformTelegram:      true,
}

// ParsePlatform validates a single platform name.
func ParsePlatform(s string) (Platform, error) {
	p := Platform(strings.TrimSpace(strings.ToLower(s)))
	if !allPlatforms[p] {
		return "", fmt.Errorf("unknown platform %q", s)
	}
	return p, nil
}

// ParsePlatforms parses a comma-separated platform list. The result is
// de-duplicated and must be non-empty.
func ParsePlatforms(s string) ([]Platform, error) {
	seen := make(map[Platform]bool)
	var out []Platform
	for _, part := range strings.Split(s, ",") {
		if strings.TrimSpace(part) == "" {
			continue
		}
		p, err := ParsePlatform(part)
		if err != nil {
			return nil, err
		}
		if !seen[p] {
			seen[p] = true
			out = append(out, p)
		}
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("no platforms specified")
	}
	return out, nil
}
