// Package pipeline drives the live preview.
//
// Frames flow through six workers connected by single-slot handoffs:
//
//	capture -> scale -> average -> diff -> display -> autosave
//
// The capture worker asks a Controller when to grab the next frame. The
// controller is paused at start; Once, SetLive and Stop move it between
// states. Each handoff holds at most one item, so a slow stage throttles
// everything upstream of it and items leave the chain in capture order.
//
// Stop closes the chain by making the controller exit. The capture worker
// then closes its handoff and the close propagates down the chain, each
// worker finishing its current item first.
package pipeline
