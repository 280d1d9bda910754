package middleware

import "github.com/gin-gonic/gin"

// Guard is a single pass/fail check. A failing guard aborts the context and
// writes the response; a passing guard calls c.Next.
type Guard = gin.HandlerFunc

// Pipeline is an ordered guard list ending in a handler.
type Pipeline []gin.HandlerFunc

// Chain orders authenticate first, then guards as declared. Because every
// guard aborts on failure, the first failing guard decides the response and
// nothing after it runs.
func Chain(authenticate gin.HandlerFunc, guards ...Guard) Pipeline {
	if authenticate == nil {
		panic("middleware: Chain requires an authenticator")
	}
	p := make(Pipeline, 0, len(guards)+1)
	p = append(p, authenticate)
	for _, g := range guards {
		if g == nil {
			panic("middleware: nil guard in chain")
		}
		p = append(p, g)
	}
	return p
}

// Then returns the pipeline followed by handlers, ready to pass to a gin
// route. The receiver is not modified, so one pipeline can serve many routes.
func (p Pipeline) Then(handlers ...gin.HandlerFunc) []gin.HandlerFunc {
	out := make([]gin.HandlerFunc, 0, len(p)+len(handlers))
	out = append(out, p...)
	return append(out, handlers...)
}
