// Package server implements the HTTP surface of bizunit
//
// Inbound requests on /run are mapped onto plan executions, plan documents
// are managed under /plan, and execution events stream over a WebSocket
package server
