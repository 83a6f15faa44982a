package cmd

// Middleware wraps a command (logging, guild checks, role checks).
type Middleware func(Command) Command

// Apply applies middlewares in order. The last one in the list ends up outermost,
// so Apply(c, a, b) runs b, then a, then c.
func Apply(c Command, mws ...Middleware) Command {
	for _, mw := range mws {
		if mw == nil {
			continue
		}
		c = mw(c)
	}
	return c
}
