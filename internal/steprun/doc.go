// Package steprun executes individual build steps. A Registry maps step
// kinds to Runner implementations; the matrix executor walks a target's
// step sequence and dispatches each step through the registry. Step
// internals (compilers, packagers) are external collaborators reached
// through the command runner; this package only tracks success, failure
// and produced files.
package steprun
