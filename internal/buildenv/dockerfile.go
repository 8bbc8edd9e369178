// SPDX-License-Identifier: MPL-2.0

package buildenv

import (
	"fmt"
	"strings"
)

// generateDockerfile creates the Dockerfile content for an environment image.
//
// The manifest is copied and installed before the source copy so the
// dependency layer is cached independently of source edits. A failed install
// aborts the build and leaves no runnable image behind.
func generateDockerfile(plan *Plan, manifest *Manifest) string {
	var sb strings.Builder

	fmt.Fprintf(&sb, "FROM %s\n\n", plan.BaseImage)
	fmt.Fprintf(&sb, "WORKDIR %s\n\n", plan.WorkDir)

	if manifest.IsEmpty() {
		sb.WriteString("# Empty manifest: no dependency layer needed\n")
		fmt.Fprintf(&sb, "COPY %s ./\n\n", plan.ManifestName)
	} else {
		sb.WriteString("# Dependency layer (cached until the manifest changes)\n")
		fmt.Fprintf(&sb, "COPY %s ./\n", plan.ManifestName)
		fmt.Fprintf(&sb, "RUN %s\n\n", plan.installCommand())
	}

	sb.WriteString("# Service source\n")
	sb.WriteString("COPY . .\n\n")

	fmt.Fprintf(&sb, "EXPOSE %s\n\n", plan.Port)

	cmd := plan.entrypoint()
	quoted := make([]string, len(cmd))
	for i, c := range cmd {
		quoted[i] = fmt.Sprintf("%q", c)
	}
	fmt.Fprintf(&sb, "CMD [%s]\n", strings.Join(quoted, ", "))

	return sb.String()
}
