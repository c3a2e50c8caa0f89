// Package season holds competition-specific field layouts, game piece
// variants and periodic rules, plus a registry to look them up by name.
package season
