// SPDX-License-Identifier: MPL-2.0

package issue

import (
	"github.com/charmbracelet/glamour"
	"golang.org/x/exp/maps"
	"golang.org/x/exp/slices"
)

// Id identifies an entry in the issue catalog.
type Id int

const (
	// ConfigLoadFailedId covers unreadable or schema-invalid config files.
	ConfigLoadFailedId Id = iota + 1
	// EngineNotFoundId covers missing docker/podman binaries.
	EngineNotFoundId
	// ManifestNotFoundId covers a missing dependency manifest in the service directory.
	ManifestNotFoundId
	// BuildFailedId covers dependency installation / image build failures.
	BuildFailedId
	// InvalidPortId covers non-numeric or out-of-range PORT values.
	InvalidPortId
	// PortInUseId covers bind failures on an already-claimed port.
	PortInUseId
	// ServeFailedId covers server crashes after a successful start.
	ServeFailedId
)

type (
	// MarkdownMsg is markdown help text rendered for terminal display.
	MarkdownMsg string

	// HttpLink points at documentation relevant to an issue.
	HttpLink string

	// Issue pairs a failure class with rendered guidance for the user.
	Issue struct {
		id       Id
		mdMsg    MarkdownMsg
		docLinks []HttpLink
	}
)

// Id returns the catalog identifier of the issue.
func (i *Issue) Id() Id {
	return i.id
}

// MarkdownMsg returns the raw markdown help text.
func (i *Issue) MarkdownMsg() MarkdownMsg {
	return i.mdMsg
}

// DocLinks returns a copy of the documentation links.
func (i *Issue) DocLinks() []HttpLink {
	return slices.Clone(i.docLinks)
}

// Render renders the issue's markdown (plus links) with the given glamour style.
func (i *Issue) Render(stylePath string) (string, error) {
	extraMd := ""
	if len(i.docLinks) > 0 {
		extraMd += "\n\n## See also:\n"
		for _, link := range i.docLinks {
			extraMd += "- [" + string(link) + "]\n"
		}
	}
	return render(string(i.mdMsg)+extraMd, stylePath)
}

// render is swappable in tests to avoid terminal-dependent output.
var render = glamour.Render

var (
	configLoadFailedIssue = &Issue{
		id: ConfigLoadFailedId,
		mdMsg: `
# Configuration could not be loaded

The config file exists but could not be parsed or failed schema validation.

## Things you can try:
- Check the file for CUE syntax errors
- Compare against the defaults:
~~~
$ portlift config show
~~~
- Regenerate a fresh config file:
~~~
$ portlift config init
~~~`,
	}

	engineNotFoundIssue = &Issue{
		id: EngineNotFoundId,
		mdMsg: `
# No container engine available

Building or running environment images requires Docker or Podman on PATH.

## Things you can try:
- Install Docker or Podman
- If installed, make sure the daemon/socket is running:
~~~
$ docker version
$ podman version
~~~
- Select an engine explicitly with --engine or in the config file`,
	}

	manifestNotFoundIssue = &Issue{
		id: ManifestNotFoundId,
		mdMsg: `
# Dependency manifest not found

The service directory has no dependency manifest, so the environment image
cannot declare its dependency layer.

## Things you can try:
- Create the manifest file in the service directory (default: requirements.txt)
- Point at a different file name with --manifest
- An EMPTY manifest file is valid when the service has no dependencies`,
	}

	buildFailedIssue = &Issue{
		id: BuildFailedId,
		mdMsg: `
# Environment image build failed

Dependency installation is atomic: if any listed dependency cannot be
resolved or installed, the build aborts and no runnable image is produced.

## Things you can try:
- Read the install step output above for the failing package
- Verify every manifest entry is resolvable in the base image
- Pull the base image manually to rule out registry problems`,
	}

	invalidPortIssue = &Issue{
		id: InvalidPortId,
		mdMsg: `
# Invalid PORT value

PORT must be an integer between 1 and 65535. Startup is rejected up front
instead of handing an unusable value to the bind call.

## Things you can try:
- Unset PORT to use the default (8000)
- Set a valid value:
~~~
$ PORT=9090 portlift serve
~~~`,
	}

	portInUseIssue = &Issue{
		id: PortInUseId,
		mdMsg: `
# Port already in use

Another process has claimed the requested port, so the server cannot bind.

## Things you can try:
- Find the conflicting process:
~~~
$ ss -ltnp | grep <port>
~~~
- Choose another port via PORT or the config file`,
	}

	serveFailedIssue = &Issue{
		id: ServeFailedId,
		mdMsg: `
# Server terminated with an error

The server crashed after starting. There is no restart policy built in;
supervision is the responsibility of an external orchestrator.

## Things you can try:
- Inspect the logged error above
- Run with --verbose for the full error chain`,
	}

	catalog = map[Id]*Issue{
		ConfigLoadFailedId: configLoadFailedIssue,
		EngineNotFoundId:   engineNotFoundIssue,
		ManifestNotFoundId: manifestNotFoundIssue,
		BuildFailedId:      buildFailedIssue,
		InvalidPortId:      invalidPortIssue,
		PortInUseId:        portInUseIssue,
		ServeFailedId:      serveFailedIssue,
	}
)

// Get returns the catalog entry for id, or nil when unknown.
func Get(id Id) *Issue {
	return catalog[id]
}

// Ids returns all known issue ids in ascending order.
func Ids() []Id {
	ids := maps.Keys(catalog)
	slices.Sort(ids)
	return ids
}
