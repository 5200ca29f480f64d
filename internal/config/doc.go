// Package config loads tool settings from a CUE file.
//
// The file is unified with an embedded schema (schema.cue) that supplies
// defaults and bounds, so a missing or empty file yields Default(). Errors
// carry the CUE source position of the offending field.
package config
