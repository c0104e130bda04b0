// Package recording provides a headless RHI backend that records commands
// instead of executing them.
//
// Every call on a [CommandList] appends a typed [Command] (transitions,
// render pass scopes, pipeline binds, draws). Submitting the list moves it
// into the device's submission log, where tests and tools can inspect it:
//
//	dev := recording.New(backend.Options{Width: 1280, Height: 720})
//	graph := rendergraph.New(dev)
//	// ... AddPass, Execute ...
//	last, _ := dev.LastSubmission()
//	for _, cmd := range last.Commands {
//	    fmt.Println(cmd)
//	}
//
// # Validation
//
// The device tracks the state every barrier leaves a texture in. A barrier
// whose Before state disagrees with the tracked state, a present of an image
// that is not in [rhi.StatePresent], a double destroy and a leaked texture at
// Destroy are all collected in [Device.Violations] rather than failing the
// call, so a test can run a whole frame and then assert the log is clean.
//
// # Failure Injection
//
// [Device.FailNext] makes the next call of an operation fail, which is how
// render graph tests exercise backend-failure paths.
//
// Importing the package registers it with the backend registry as
// "recording".
package recording
