package containerizer

import (
	"bytes"
	"fmt"
	"text/template"

	"github.com/Masterminds/sprig/v3"
)

// Container paths used by generated images.
const (
	ContainerPipelinePath = "/etc/mcpstack/pipeline.json"
	ContainerBinaryPath   = "/usr/local/bin/mcpstack"
)

// DockerfileOptions control RenderDockerfile.
type DockerfileOptions struct {
	BuilderImage string            // Go toolchain image for the build stage
	BaseImage    string            // Runtime stage base image
	PipelineFile string            // Saved pipeline document, relative to the build context
	Env          map[string]string // Baked in as ENV instructions
	ExposePort   int               // Emitted as EXPOSE when non-zero
	Command      []string          // CMD arguments passed to the binary
}

const dockerfileTemplate = `# syntax=docker/dockerfile:1
FROM {{ .BuilderImage | default "golang:1.25" }} AS build
WORKDIR /src
COPY go.mod go.sum ./
RUN go mod download
COPY . .
RUN CGO_ENABLED=0 go build -trimpath -ldflags="-s -w" -o /out/mcpstack .

FROM {{ .BaseImage | default "gcr.io/distroless/static-debian12" }}
COPY --from=build /out/mcpstack {{ .BinaryPath }}
{{- if .PipelineFile }}
COPY {{ .PipelineFile }} {{ .PipelinePath }}
ENV MCPSTACK_CONFIG_PATH={{ .PipelinePath | quote }}
{{- end }}
{{- $env := .Env }}
{{- range $key := keys $env | sortAlpha }}
ENV {{ $key }}={{ get $env $key | quote }}
{{- end }}
{{- if .ExposePort }}
EXPOSE {{ .ExposePort }}
{{- end }}
ENTRYPOINT [{{ .BinaryPath | quote }}]
CMD {{ .Command | toJson }}
`

var dockerfileTmpl = template.Must(template.New("Dockerfile").Funcs(sprig.TxtFuncMap()).Parse(dockerfileTemplate))

// RenderDockerfile renders a Dockerfile that builds mcpstack and serves the
// pipeline document named by opts.PipelineFile.
func RenderDockerfile(opts DockerfileOptions) (string, error) {
	command := opts.Command
	if len(command) == 0 {
		command = []string{"serve"}
	}
	env := opts.Env
	if env == nil {
		env = map[string]string{}
	}
	envAny := make(map[string]interface{}, len(env))
	for k, v := range env {
		envAny[k] = v
	}

	data := map[string]interface{}{
		"BuilderImage": opts.BuilderImage,
		"BaseImage":    opts.BaseImage,
		"PipelineFile": opts.PipelineFile,
		"PipelinePath": ContainerPipelinePath,
		"BinaryPath":   ContainerBinaryPath,
		"Env":          envAny,
		"ExposePort":   opts.ExposePort,
		"Command":      command,
	}

	var buf bytes.Buffer
	if err := dockerfileTmpl.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("failed to render Dockerfile: %w", err)
	}
	return buf.String(), nil
}
