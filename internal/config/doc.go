// Package config defines the format-agnostic build matrix model and the
// Loader interface for producing it. Concrete file formats (HCL) implement
// Loader in their own package so the rest of the application never touches
// parser types.
package config
