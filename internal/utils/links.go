package utils

import (
	"regexp"
	"strings"

	"dealspot/internal/models"
)

var linkPattern = regexp.MustCompile(`(?i)(?:https?://|www\.)[^\s<>"']+`)

// DetectLinks finds URLs in a message body. Only the first occurrence of each
// distinct URL (case-insensitive) is reported, with the byte position where it
// was found.
func DetectLinks(message string) []models.DetectedLink {
	matches := linkPattern.FindAllStringIndex(message, -1)
	if len(matches) == 0 {
		return nil
	}

	seen := make(map[string]bool, len(matches))
	links := make([]models.DetectedLink, 0, len(matches))

	for _, match := range matches {
		url := strings.TrimRight(message[match[0]:match[1]], ".,;:!?)")
		key := strings.ToLower(url)
		if seen[key] {
			continue
		}
		seen[key] = true

		links = append(links, models.DetectedLink{
			URL:      url,
			Position: match[0],
		})
	}

	return links
}
