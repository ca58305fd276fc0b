//go:build tm4c129x && !tm4c1294

package board

// Default is the variant the framework's global instances bind to
var Default = DKTM4C129X
