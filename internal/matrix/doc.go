// Package matrix fans the build matrix out into one independent task per
// target and joins the results. Targets share no mutable state: each task
// writes only to its own artifact namespace, runs its step sequence
// strictly in order, and reaches a terminal status without affecting any
// other task. One target's failure never prevents the rest from running
// to completion.
package matrix
