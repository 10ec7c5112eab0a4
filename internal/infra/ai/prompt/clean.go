package prompt

import (
	"regexp"
	"strings"
)

var fenceRe = regexp.MustCompile("(?s)```[a-zA-Z]*\\s*\\n(.*?)```")

// ExtractScript returns the code of a model reply, dropping markdown fences and
// any prose around them. Replies without fences are returned trimmed.
func ExtractScript(reply string) string {
	if m := fenceRe.FindStringSubmatch(reply); m != nil {
		return strings.TrimSpace(m[1]) + "\n"
	}
	out := strings.TrimSpace(reply)
	if out == "" {
		return ""
	}
	return out + "\n"
}
