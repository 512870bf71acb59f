// Package executor runs external tools (build orchestrator, archiver) as
// blocking child processes.
//
// Output of the child is streamed line by line into the context logger and the
// last lines are kept, so a failure surfaces as a *CommandError carrying the
// step name, argv, exit code and the tail of what the tool printed.
package executor
