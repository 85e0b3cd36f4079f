// Package builtin provides the functions available inside {{...}}
// expressions of suite files.
//
// Available functions:
//   - uuid(): Random UUID v4
//   - now(), date(layout): Current UTC time
//   - env(name): Environment variable value
//   - upper(s), lower(s), trim(s), repeat(s, n): String helpers
//   - base64(s), base64Decode(s), md5(s), sha256(s): Encodings and digests
//   - urlEncode(s), urlDecode(s): Query escaping
//
// Functions are invoked as {{name(args)}}; quoted arguments may contain commas.
package builtin
