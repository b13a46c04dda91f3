// Package match implements the lexical matching semantics shared by every
// match provider: case-insensitive equality, `*`/`?` wildcard patterns,
// whole-token containment, and phrase containment. Keeping these in one
// place lets alternative providers satisfy the same contracts verbatim.
//
// The package also defines the field weight table used to score global
// full-text matches.
package match
