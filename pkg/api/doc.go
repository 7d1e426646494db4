// Package api defines the wire types shared by the bizunit engine
//
// This package contains the block template format, plan documents, the
// request snapshot handed to a plan execution, the HTTP-shaped response it
// produces, and the messages exchanged by the HTTP surface
package api
