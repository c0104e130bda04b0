// Package backend selects the RHI device the render graph runs on.
//
// Backends register a [Factory] from an init() function, so linking a
// backend is a matter of importing it:
//
//	import (
//		_ "github.com/gogpu/rendergraph/backend/native"
//		_ "github.com/gogpu/rendergraph/backend/recording"
//	)
//
// # Backend Selection
//
// Selection happens once at startup. Use [Get] to request a backend by name
// or graphics API alias, or [Default] to take the best one that opens:
//
//	dev, err := backend.Get("vulkan", backend.Options{Width: 1280, Height: 720})
//	if err != nil {
//		log.Fatal(err)
//	}
//	defer dev.Destroy()
//
//	// Or: first backend that opens, in priority order.
//	dev, err = backend.Default(backend.Options{})
//
// # Available Backends
//
//   - "native": GPU rendering through the gogpu/wgpu HAL (aliases "vulkan", "v", "vk", "gpu")
//   - "recording": headless command log for tests and tooling (aliases "null", "none")
//
// Names without a registered backend, such as "dx12" on a build that only
// links Vulkan, fail with [ErrBackendNotAvailable].
package backend
