// Package pipeline runs a slide build as an ordered list of named stages.
//
//	discover -> prepare_output -> build_decks -> copy_shared -> patch_html -> write_manifest -> publish
//
// Stages run strictly in sequence and the first error aborts the build. Talks are
// discovered before the output root is touched, decks are rendered into a per-build
// workspace, and the publication is assembled in a staging directory that replaces the
// output root only in the final stage. Each stage's duration and result are recorded in
// the Report and forwarded to a metrics.Recorder.
package pipeline
