package main

// Exit codes. Scripts driving the pipeline branch on these.
const (
	exitOK     = 0
	exitError  = 1 // operational failure (I/O, SQL, network)
	exitConfig = 2 // configuration could not be resolved
	exitData   = 3 // input data unusable (missing snapshot, bad CSV)
)
