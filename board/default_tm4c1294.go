//go:build tm4c1294

package board

// Default is the variant the framework's global instances bind to
var Default = EKTM4C1294XL
