// Package pipeline composes processing stages into a serial chain that
// consumes and produces interleaved sample blocks.
//
// A Pipeline owns the deinterleave/interleave boundary, the planar
// scratch buffers shared by its stages, and a transactional state
// container: SaveState captures every stage's processing state into one
// checksummed blob, and LoadState restores it atomically, rolling back
// on failure so a bad blob cannot leave the chain half-updated.
package pipeline
