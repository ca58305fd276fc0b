//go:build !tm4c1294 && !tm4c129x

package board

// Default is the variant the framework's global instances bind to
var Default = EKTM4C123GXL
