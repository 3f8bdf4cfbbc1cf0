package stack

// GenerateOptions are the format-specific inputs passed through Build to a generator.
// Each generator reads the fields that apply to it and ignores the rest.
type GenerateOptions struct {
	// ServerName is the key of the entry under mcpServers.
	ServerName string

	// Command, Args and Cwd override how the host launches the pipeline.
	Command string
	Args    []string
	Cwd     string

	// PipelinePath is the saved pipeline document the launched process should load.
	PipelinePath string

	// SavePath writes the artifact to this file when set.
	SavePath string

	// Merge merges the artifact into HostConfigPath, or into the detected
	// desktop host configuration when HostConfigPath is empty.
	Merge          bool
	HostConfigPath string

	// Image, Volumes, Ports, Network and ExtraArgs configure container launches.
	Image     string
	Volumes   []string
	Ports     []string
	Network   string
	ExtraArgs []string
}
