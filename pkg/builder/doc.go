// Package builder provides a Go client for a bizunit server
//
// Plan documents are assembled with a fluent Plan builder and stored under
// a name; Run builds an inbound request for a stored plan and reports the
// response the plan produced
package builder
