// Package threefish implements the Threefish-256, -512 and -1024 tweakable block ciphers.
//
// Keys, tweaks and blocks are read as little-endian 64-bit words.
// One round engine serves all three sizes; only the word count, round count,
// rotation and permutation tables differ between them.
package threefish
