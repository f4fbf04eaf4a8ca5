// Package cli provides the interactive Draped command-line client.
//
// It drives the auth and job services from a REPL: sign in (password or
// Google ID token), submit a photo and a garment image, follow the job
// while the tracker polls in the background, browse the job history and
// result gallery, and download results.
//
// The REPL is started via App.Root(ctx), which blocks until the user exits.
// Job outcomes are printed through Console, which the tracker also uses as
// its failure handler. See App, runREPL and Console for details.
package cli
