package models

import "regexp"

// adIDPattern matches the ad identifier embedded in aruodas.lt listing URLs,
// e.g. "4-1234567" in "https://www.aruodas.lt/butai-vilniuje-4-1234567/".
var adIDPattern = regexp.MustCompile(`\d-\d{7}`)

// ExtractAdID returns the first ad identifier found in s, or the empty string
// when s carries none. It never fails: any input without the pattern simply
// yields "".
func ExtractAdID(s string) string {
	return adIDPattern.FindString(s)
}
