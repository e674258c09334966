package domain

import "io"

// BuildRequest asks the build tool to compile a materialized package.
type BuildRequest struct {
	PackageDir  string
	PackageName string
	// BinName is the executable target to look for.
	BinName  string
	Mode     BuildMode
	Features []string
	Strategy ArtifactStrategy
	// Env holds extra KEY=VALUE pairs for the build.
	Env []string
	// Color runs the build tool attached to a pseudo terminal so it keeps its colors.
	Color  bool
	Output io.Writer
}

// BuildResult is a successful build.
type BuildResult struct {
	ArtifactPath string
}

// LaunchRequest describes how to run a compiled artifact.
type LaunchRequest struct {
	Path   string
	Args   []string
	Env    []string
	Dir    string
	Stdin  io.Reader
	Stdout io.Writer
	Stderr io.Writer
}
