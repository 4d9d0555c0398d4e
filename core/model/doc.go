// Package model holds the records exchanged during a directory sync.
//
// # Target users
//
// User mirrors an account of the learning platform. All scalars are pointers
// so that the same type serves as a full record and as a sparse patch.
// The Fields table enumerates every scalar with its kind, its access mode
// and its accessor; decoding, request encoding and diffing all go through it
// instead of inspecting the struct at runtime.
//
// # Diffing
//
// Diff compares a current user with a candidate built from the directory and
// returns only the identity plus the changed fields, or nil.
//
// # Source records
//
// SourceRecord carries the attributes of one directory entry and
// SourceIndex keeps records in the order the directory returned them.
// NormalizeID is the single join-key normalization used on both sides.
package model
