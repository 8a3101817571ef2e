package auth

import "net/http"

// Filter is an interface for any component that can wrap http.HandlerFuncs
// with access controls.
type Filter interface {
	Decorate(http.HandlerFunc) http.HandlerFunc
}
