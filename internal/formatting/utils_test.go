package formatting

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPrettyJSON_LaunchArtifact(t *testing.T) {
	artifact := map[string]any{
		"mcpServers": map[string]any{
			"notes": map[string]any{
				"command": "sh",
				"args":    []string{"-c", "cd /srv && mcpstack serve > /dev/null"},
			},
		},
	}

	want := `{
  "mcpServers": {
    "notes": {
      "args": [
        "-c",
        "cd /srv && mcpstack serve > /dev/null"
      ],
      "command": "sh"
    }
  }
}`
	assert.Equal(t, want, PrettyJSON(artifact))
}

func TestPrettyJSON_Scalars(t *testing.T) {
	assert.Equal(t, `"<image>"`, PrettyJSON("<image>"))
	assert.Equal(t, "null", PrettyJSON(nil))
	assert.Equal(t, "[]", PrettyJSON([]string{}))
}

func TestPrettyJSON_UnencodableFallsBack(t *testing.T) {
	ch := make(chan int)
	assert.Equal(t, PrettyJSON(ch), PrettyJSON(ch))
	assert.Contains(t, PrettyJSON(ch), "0x")
}

func TestRoundTripJSON(t *testing.T) {
	type entry struct {
		Name  string `json:"name"`
		Score int    `json:"score,omitempty"`
	}

	var out any
	require.NoError(t, roundTripJSON([]entry{{Name: "hello_world", Score: 2}, {Name: "notes"}}, &out))
	assert.Equal(t, []any{
		map[string]any{"name": "hello_world", "score": float64(2)},
		map[string]any{"name": "notes"},
	}, out)

	assert.Error(t, roundTripJSON(make(chan int), &out))
}
