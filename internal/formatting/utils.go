package formatting

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// PrettyJSON renders v as two-space indented JSON for the terminal and for
// launch artifacts. HTML characters are kept literal so shell commands such
// as "a && b" survive unchanged. Values that cannot be encoded fall back to
// their %v form.
func PrettyJSON(v any) string {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return fmt.Sprintf("%v", v)
	}
	return string(bytes.TrimRight(buf.Bytes(), "\n"))
}

// roundTripJSON converts v into its generic JSON shape in out.
func roundTripJSON(v any, out *any) error {
	b, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return json.Unmarshal(b, out)
}
