// Package compiler defines the boundary between a resolved document and
// the external compiler that turns it into bytecode.
//
// A document composes a Program: the requested entrypoints, every binding
// they reach in dependency order, and the word table of the deployer the
// program targets. Programs are handed to a Compiler implementation;
// compiling itself happens outside this module.
//
// The package also carries the dependency Graph the document uses to
// detect binding cycles (Tarjan's strongly connected components) and to
// order bindings so that every binding follows its dependencies.
package compiler
