// Package io reads and writes participant rosters.
//
// # JSON Format
//
// A roster is an object with a "participants" array:
//
//	{
//	  "participants": [
//	    {"id": "u1", "name": "Ada Lovelace"},
//	    {"id": "u2", "name": "Grace Hopper"}
//	  ]
//	}
//
// A bare array of participants is accepted as well. Every participant needs
// an "id"; "name" defaults to the id.
//
// # Text Format
//
// One participant per line, either "id<TAB>name" or just a name. Names
// without an id get the id "p<line>". Blank lines and lines starting with
// '#' are skipped.
//
// # Validation
//
// Both readers reject duplicate or malformed ids, so a roster that loads can
// be handed to a draw unchanged. Order is preserved: it is the slot order of
// the ring layout.
package io
