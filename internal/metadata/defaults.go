package metadata

import (
	"bytes"
	"encoding/xml"

	"github.com/creasty/defaults"
)

func applyDefaults(o *Options) {
	// Only string fields with literal tags; Set cannot fail on them.
	_ = defaults.Set(o)
}

func xmlEscape(s string) string {
	var buf bytes.Buffer
	_ = xml.EscapeText(&buf, []byte(s))
	return buf.String()
}
