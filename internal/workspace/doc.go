// Package workspace manages the scratch directory a build renders decks into.
//
// Each build gets its own directory (e.g. .slides-tmp/slidebuilder-<build id>) holding one
// subdirectory per talk. Nothing in it is published directly; pages are patched out of it
// and shared assets copied from it. Cleanup removes it, and the base directory as well once
// no other build is using it.
package workspace
