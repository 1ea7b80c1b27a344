/*
The deadexports command reports dead code in TypeScript and JavaScript module codebases.

	Usage: deadexports [flags] path/to/project

Starting from the configured entry files, deadexports resolves the production
import closure and reports:

  - files:      files never reached from any entry point
  - exports:    exported symbols never consumed outside their declaring file
  - types:      type-level declarations unused elsewhere
  - members:    symbols reachable only through a namespace import of their module
  - duplicates: several export names bound to one declaration

Each symbol is reported exactly once, under a single deterministic category.
A file exposing exactly one export name is skipped entirely, it is assumed to
be consumed as the module's primary interface.

# Configuration

The project root may contain a .deadexports.yaml file:

	entryFiles:
	  - src/index.ts
	filePatterns:
	  - src/
	include:
	  files: true
	  exports: true
	  types: true
	  members: true
	  duplicates: true
	respectPublicTag: false
	showProgress: false

Flags override the file where both are given.

# Flags

The -entry flag is a comma-separated list of entry file patterns, overriding
entryFiles from the configuration.

The -include flag is a comma-separated subset of
files,exports,types,members,duplicates. Everything is enabled by default.

The -respect-public flag skips declarations whose preceding comment carries a
@public tag.

The -progress flag renders progress lines while analyzing, rewritten in place.

The -json flag outputs the full report as JSON instead of text lines.

The -debug flag enables verbose debug output. Debug lines and progress lines
share stderr, so -debug disables the in-place progress rendering.

# Exit status

0 when the project is clean, 3 when issues were found, 1 on failure and 2 on
usage errors.

# Limitations

Reference resolution is text based over parse trees. Dynamic imports and
computed member accesses are not seen, review findings before deleting code.
*/
package main
