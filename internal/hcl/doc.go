// Package hcl provides the concrete HCL implementation of the
// config.Loader interface. It owns file parsing, the evaluation context
// exposing run-scoped variables (version, tag) to matrix files, and the
// translation of the HCL schema into the agnostic config model.
package hcl
