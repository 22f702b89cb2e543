// Package encryption encrypts and decrypts files and streams with Threefish in CBC-CS mode.
// Output is the IV followed by the ciphertext, the same length as the input plus one block.
// Files are processed concurrently and written atomically.
package encryption
