// Package containerizer drives the docker CLI for mcpstack pipelines.
//
// It covers three concerns:
//
//   - RunArgs builds the `docker run` argument list the docker generator
//     places in host configurations, after ValidateImageName has checked
//     the image reference.
//   - RenderDockerfile renders a multi-stage Dockerfile that compiles
//     mcpstack, bakes a saved pipeline document and its environment into
//     the image, and serves it on start.
//   - DockerRuntime builds, tags, pushes, pulls and lists images by
//     shelling out to docker.
//
// Commands are created through the package-level execCommandContext
// variable so tests can substitute a helper process.
package containerizer
