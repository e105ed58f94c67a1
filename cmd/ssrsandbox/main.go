// Command ssrsandbox is the Driver described in spec.md §4.G: a
// single-shot renderer by default, or a line-protocol server when
// given --server. Generalizes the teacher's cmd/goru layout (a cobra
// root command plus run/serve subcommands) into one root command with
// a mode-selecting flag, since spec.md's CLI surface has no
// subcommands of its own.
package main

func main() {
	Execute()
}
