// Package encryption implements the fixed-key obfuscation layers of the pack
// format: a block cipher for file payloads and stream ciphers for index
// integers and paths.
//
// None of it is a security boundary. The keys are constants shipped with the
// games, there is no authentication, and decrypting foreign bytes simply
// yields garbage without ever reading past the supplied buffer.
package encryption
