// Utilities for rendering HTTP requests as cURL commands.
package shared

import (
	"fmt"
	"sort"
	"strings"
)

// CurlCommand renders an HTTP request as a multi-line cURL invocation that
// reproduces the call outside the engine. Headers are emitted in sorted
// order so the output is stable.
func CurlCommand(method, url string, headers map[string]string, body []byte) string {
	var b strings.Builder

	fmt.Fprintf(&b, "curl -X %s '%s'", method, url)

	keys := make([]string, 0, len(headers))
	for k := range headers {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, k := range keys {
		fmt.Fprintf(&b, " \\\n  -H '%s: %s'", k, headers[k])
	}

	if len(body) > 0 {
		fmt.Fprintf(&b, " \\\n  -d '%s'", escapeSingleQuotes(string(body)))
	}

	return b.String()
}

// escapeSingleQuotes makes a string safe inside single-quoted shell
// arguments using the '\'' idiom.
func escapeSingleQuotes(s string) string {
	return strings.ReplaceAll(s, "'", `'\''`)
}
