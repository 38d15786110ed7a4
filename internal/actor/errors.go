package actor

import "fmt"

// Fatalf reports a fatal configuration or dispatch error per the runtime's
// error-handling policy: duplicate type registration, an unknown method
// slot, or an instance that outgrew the swarm slot its size class
// reserved for it are all programmer errors the runtime does not attempt
// to recover from.
func Fatalf(format string, args ...any) {
	panic(fmt.Sprintf("actor: fatal: %s", fmt.Sprintf(format, args...)))
}
