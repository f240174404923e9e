package service

import (
	"github.com/mileusna/useragent"
)

// ParsedUA holds the browser, OS, and device type extracted from a
// User-Agent string.
type ParsedUA struct {
	Browser    string
	OS         string
	DeviceType string
}

// ParseUserAgent extracts browser, OS, and device type from a user agent string.
func ParseUserAgent(uaString string) ParsedUA {
	ua := useragent.Parse(uaString)

	result := ParsedUA{
		Browser: ua.Name,
		OS:      ua.OS,
	}

	if result.Browser == "" {
		result.Browser = "Unknown"
	}
	if result.OS == "" {
		result.OS = "Unknown"
	}

	switch {
	case ua.Mobile:
		result.DeviceType = "mobile"
	case ua.Tablet:
		result.DeviceType = "tablet"
	case ua.Bot:
		result.DeviceType = "bot"
	default:
		result.DeviceType = "desktop"
	}

	return result
}
