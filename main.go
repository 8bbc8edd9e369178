// SPDX-License-Identifier: MPL-2.0

// Command portlift builds container images for web services with a cached
// dependency layer and runs them bound to the PORT environment variable.
package main

import cmd "portlift/cmd/portlift"

func main() {
	cmd.Execute()
}
