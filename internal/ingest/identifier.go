package ingest

import "regexp"

// timeTokenPattern finds the macOS screenshot time ("... at 3.16.03 pm ...").
// \p{Z} covers the narrow no-break space macOS puts before am/pm.
var timeTokenPattern = regexp.MustCompile(`(?i)at[\s\p{Z}]+(\d+\.\d+\.\d+[\s\p{Z}]?[ap]m)`)

// ExtractID returns the join key for an image filename: the captured time token when the
// filename contains one, otherwise the filename itself.
func ExtractID(filename string) string {
	m := timeTokenPattern.FindStringSubmatch(filename)
	if m == nil {
		return filename
	}
	return m[1]
}
