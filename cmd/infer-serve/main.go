// Command infer-serve drives the inference serving core end to end: ModelFactory loading,
// optional hot reload, buffering, batching, and the symmetry-aware cache, wired together the
// way an MCTS caller would use them (spec §2 SYSTEM OVERVIEW). It is a demonstration and
// load-testing harness -- the self-play/evaluation CLI itself is explicitly out of scope per
// spec.md §1 -- not a production game server.
package main

func main() {
	Execute()
}
