// SPDX-License-Identifier: MPL-2.0

// Package buildenv turns a service directory into a runnable container image.
//
// The image is assembled from a build plan: a base image, a dependency
// manifest installed in its own layer, and the service source copied on top.
// Keeping the manifest install ahead of the source copy means source-only
// edits reuse the cached dependency layer.
//
// Built images are cached by a content hash of the service directory and the
// plan, so unchanged inputs resolve to an existing image without rebuilding:
//
//	builder := buildenv.NewBuilder(engine, plan)
//	result, err := builder.Build(ctx)
//	// result.ImageTag contains the environment image to run
package buildenv
