// Package harness runs .rain documents against scripted metadata and checks
// the resulting snapshot.
//
// # Scenario Format
//
// Scenarios are YAML files:
//
//	name: import_configs
//	description: "Renames, rebinds and elisions of an imported document"
//	payloads:
//	  - name: dep
//	    deployer:
//	      bytecode: "0x6080"
//	      words: [{name: add}, {name: sub, inputs: 2}]
//	  - name: ops
//	    source: remote
//	    words: [{name: mul}]
//	  - name: lib
//	    dotrain: |
//	      @ {{dep}}
//	      #fee 1
//	document: |
//	  @ {{dep}}
//	  @.lib {{lib}} 'fee 5
//	  #main _: add(lib.fee 1);
//	async: false
//	assertions:
//	  - type: no_problems
//	  - type: binding
//	    name: lib.fee
//	    value: "5"
//
// {{name}} placeholders in payload text and in the document are replaced
// by the hash of the named payload, so payloads must be listed after the
// payloads they reference. A payload's source decides where it lives:
//
//   - local (default): stored in the cache before parsing
//   - remote: served only by a remote source, so it is found by async parses
//   - none: never stored; importing it yields UndefinedMeta
//
// # Assertion Types
//
//   - state: the snapshot state ("parsed", "failed")
//   - no_problems: no top-level or binding problems
//   - problem: a problem with the given code whose range covers the text "at"
//   - binding: a namespace binding's type, value and dependencies
//   - namespace: a node exists at path, optionally of the given kind
//   - compose: composing entrypoints yields the given binding order, or
//     fails with the given code
//
// # Golden Reports
//
// Render turns a snapshot into a stable text report with hashes replaced by
// their payload names. RunWithGolden compares it against
// testdata/golden/<scenario>.golden; regenerate with -update.
package harness
