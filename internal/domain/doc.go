// Package domain contains the core concepts of the converter: the rendering
// configuration, how caller overrides merge onto defaults, and the error
// taxonomy. Keep this package free of transport (HTTP) and infrastructure
// (Chrome, filesystem) concerns.
package domain
