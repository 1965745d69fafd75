// Command gstcheck validates filings and sales registers offline, without a
// database or the HTTP server.
package main

func main() {
	Execute()
}
