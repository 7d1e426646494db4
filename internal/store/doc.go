// Package store groups the storage collaborators that blocks invoke: the
// key/value store, the relational store and object storage. None of them
// participate in the interpreter's control flow or scoping
package store
