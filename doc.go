// Package h264intra provides a pure Go H.264 intra mode decision engine.
//
// Given a picture, the engine decides for every macroblock whether it is
// coded as Intra4x4, Intra8x8 or Intra16x16, which prediction mode each
// block uses, and the resulting coded block pattern. Decisions follow the
// encoder side of ITU-T H.264: the most probable mode derivation, neighbour
// availability (with constrained intra prediction), integer transforms and
// flat-matrix quantisation, and a Lagrangian rate-distortion cost at high
// complexity.
//
// The result can be written as an Annex B byte stream holding the sequence
// and picture parameter sets and an SEI message that carries the decision
// report. Slice data is not produced.
//
// Basic usage:
//
//	a, err := h264intra.Analyze(img, &h264intra.Options{QP: 28})
//	if err != nil {
//		return err
//	}
//	_, err = a.WriteTo(w)
package h264intra
