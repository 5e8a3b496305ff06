// Command sandshell runs a sandboxed POSIX-style shell over an
// in-memory filesystem. It evaluates a single command line with -c,
// runs script files given as arguments, or starts an interactive
// read-eval loop.
package main

func main() {
	Execute()
}
