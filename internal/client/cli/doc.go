// Package cli is the seedpipe command-line client. It unlocks the server
// with the application password, starts one transfer over the session
// channel and prints the server's events until the transfer ends.
//
// App.Run returns the process exit code: 0 after a success event, 1 after
// an error event or any client-side failure.
package cli
