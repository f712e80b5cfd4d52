// Package metadata decodes the page identity printed on a ballot card.
//
// Two encodings are supported. Timing mark metadata is the presence or
// absence of the 32 interior marks of the bottom border; the bits decode
// either as a Front (precinct and card numbers with a checksum) or a Back
// (election date and type with a fixed ender code), and exactly one of the
// two must succeed. QR metadata is a bit-packed record read from a QR code
// and resolved against the election definition.
package metadata
