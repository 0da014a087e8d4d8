// Package app contains the core application logic: configuration,
// construction of the component graph (loader, store, release client,
// executor, driver), and the run lifecycle, decoupled from any specific
// entrypoint like a CLI or server.
package app
