// internal/ua/ua.go
//
// User-Agent parsing helpers.
//
// This wrapper isolates the third-party `github.com/avct/uasurfer` API so
// the rest of the codebase never sees its enums or structs.  The request
// context stores the raw USER_AGENT and ACCEPT_LANGUAGE values, and
// requestinfo calls Parse to turn them into an Info.
package ua

import (
	"fmt"
	"strconv"
	"strings"

	surfer "github.com/avct/uasurfer"
)

// Info carries the parsed client properties.
//
// Example (Chrome on macOS, "en-US,en;q=0.8"):
//
//	Browser   "Chrome"
//	Version   "125.0.6422"
//	OS        "MacOSX"
//	OSVersion "14.4"
//	Device    "Desktop"
//	Platform  "Mac"
//	Lang      "en-us"
//
// Device is one of "Desktop", "Mobile", "Tablet", "Bot", or "Other".
type Info struct {
	Raw       string
	Browser   string
	Version   string
	OS        string
	OSVersion string
	Device    string
	Platform  string
	Lang      string
	IsBot     bool
}

// Parse converts the User-Agent and Accept-Language values into an Info.
// The default USER_AGENT of a request context ("localhost") parses to an
// unknown browser on an unknown device, which is the honest answer.
func Parse(raw, acceptLanguage string) Info {
	u := surfer.Parse(raw)

	return Info{
		Raw:       raw,
		Browser:   strings.TrimPrefix(u.Browser.Name.String(), "Browser"),
		Version:   versionString(u.Browser.Version),
		OS:        strings.TrimPrefix(u.OS.Name.String(), "OS"),
		OSVersion: versionString(u.OS.Version),
		Device:    deviceClass(u),
		Platform:  strings.TrimPrefix(u.OS.Platform.String(), "Platform"),
		Lang:      PrimaryLang(acceptLanguage),
		IsBot:     u.IsBot(),
	}
}

// deviceClass folds uasurfer's device enum into the five classes above.
func deviceClass(u *surfer.UserAgent) string {
	if u.IsBot() {
		return "Bot"
	}
	switch u.DeviceType {
	case surfer.DeviceComputer:
		return "Desktop"
	case surfer.DeviceTablet:
		return "Tablet"
	case surfer.DevicePhone, surfer.DeviceWearable:
		return "Mobile"
	default:
		return "Other"
	}
}

// PrimaryLang returns the first language tag of an Accept-Language list,
// lower-cased, without its q-value.
func PrimaryLang(al string) string {
	first, _, _ := strings.Cut(al, ",")
	tag, _, _ := strings.Cut(first, ";")
	return strings.ToLower(strings.TrimSpace(tag))
}

// versionString renders a semantic version in dotted form while trimming
// trailing zeros, e.g. 17.0.0 → "17", 17.3.0 → "17.3", 17.3.1 → "17.3.1".
func versionString(v surfer.Version) string {
	switch {
	case v.Major == 0 && v.Minor == 0 && v.Patch == 0:
		return ""
	case v.Patch != 0:
		return fmt.Sprintf("%d.%d.%d", v.Major, v.Minor, v.Patch)
	case v.Minor != 0:
		return fmt.Sprintf("%d.%d", v.Major, v.Minor)
	}
	return strconv.Itoa(int(v.Major))
}
