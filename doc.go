// Package gpuenc turns frames rendered into GPU memory into an H.264 or
// HEVC elementary stream using a hardware video encoder.
//
// A Session owns a device buffer of RGBA pixels. The caller renders a
// frame into Session.Buffer and calls Session.Submit; finished chunks of
// Annex-B bitstream are handed to the Sink as soon as the encoder
// releases them. Hardware encoders keep several frames in flight, so a
// Submit may produce no chunk or several; Session.Flush drains
// everything and leaves the session ready for a new stream with the
// same configuration.
//
// Muxing the elementary stream into a container is up to the caller.
//
// A Session is not safe for concurrent use; see SessionLocked.
package gpuenc
