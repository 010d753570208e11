// Command gauntlet runs the evaluation platform: a Temporal worker, workflow
// submission, and direct synchronous evaluation for local development.
package main

func main() {
	Execute()
}
