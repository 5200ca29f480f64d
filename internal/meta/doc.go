// Package meta encodes and decodes the metadata payloads addressed by hash.
//
// A payload is an 8-byte big-endian magic number followed by a body:
//
//	Dotrain    0xffe5ffb4a3ff2cde  UTF-8 document text
//	Words      0xffe9e3a02ca8e235  canonical JSON word list
//	Deployer   0xffdb988a8cd04d32  canonical JSON bytecode + word list
//	Namespace  0xff0b5e1a7f3c2d94  canonical JSON exported namespace tree
//
// Anything else decodes as Raw, which is cached like any payload but cannot
// be imported into a namespace. JSON bodies must already be canonical: a
// body that re-encodes differently is rejected, so one meaning never has
// two hashes.
package meta
