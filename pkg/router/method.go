package router

import "strings"

// MethodBmp is a bitmap over the fixed set of HTTP methods the router
// understands, letting one registration call bind a handler to several
// methods at once.
type MethodBmp uint16

// Method bits, one per supported HTTP method.
const (
	MethodGET MethodBmp = 1 << iota
	MethodHEAD
	MethodPOST
	MethodPUT
	MethodPATCH
	MethodDELETE
	MethodOPTIONS
	MethodCONNECT
	MethodTRACE

	methodCount = 9
	// AllMethods is the bitmap with every supported method bit set.
	AllMethods MethodBmp = (1 << methodCount) - 1
)

var methodByName = map[string]MethodBmp{
	"GET":     MethodGET,
	"HEAD":    MethodHEAD,
	"POST":    MethodPOST,
	"PUT":     MethodPUT,
	"PATCH":   MethodPATCH,
	"DELETE":  MethodDELETE,
	"OPTIONS": MethodOPTIONS,
	"CONNECT": MethodCONNECT,
	"TRACE":   MethodTRACE,
}

var methodIndex = map[MethodBmp]int{
	MethodGET: 0, MethodHEAD: 1, MethodPOST: 2, MethodPUT: 3, MethodPATCH: 4,
	MethodDELETE: 5, MethodOPTIONS: 6, MethodCONNECT: 7, MethodTRACE: 8,
}

// MethodFromString parses a method token (case-insensitive) into its
// bitmap bit, returning ok=false for unrecognized methods.
func MethodFromString(s string) (MethodBmp, bool) {
	m, ok := methodByName[strings.ToUpper(s)]
	return m, ok
}

// methodToIdx returns the dense index (0..methodCount-1) of a single method
// bit, used to index into a PathHandlerEntry's per-method handler arrays.
func methodToIdx(m MethodBmp) int {
	return methodIndex[m]
}

// IsMethodSet reports whether bmp has the bit for method m set.
func IsMethodSet(bmp MethodBmp, m MethodBmp) bool {
	return bmp&m != 0
}
