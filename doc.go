// Package ssrsandbox provides a V8-isolate sandbox for rendering
// JavaScript server-side-rendering bundles with zero default capabilities.
//
// # Overview
//
// ssrsandbox loads a chunks directory as a confined ES module graph and
// runs its entry module's render export inside a single V8 isolate per
// [host.Host]. Filesystem, environment, process, and timer access are not
// exposed to guest code; the only capabilities available are the fixed
// set in [ops] — console, crypto, base64, and an allowlisted fetch.
//
// # Basic Usage
//
//	h, err := host.New(config.Config{
//	    RootDir:        "/srv/chunks", // must be absolute
//	    MaxHeapBytes:   64 << 20,
//	    MaxRenderTime:  5 * time.Second,
//	    AllowedOrigins: []string{"https://api.example.com"},
//	}, nil)
//	defer h.Close()
//
//	result, err := h.Render(ctx, "entry.js", `{"path":"/"}`)
//	fmt.Println(result.Body)
//
// # Server Mode
//
// cmd/ssrsandbox --server speaks the line-oriented stdio protocol
// described in [protocol]: a two-line request (entry, props JSON) per
// render, answered with a Status/Length header pair followed by the
// response body.
//
// See the [host], [loader], [resolver], [ops], and [bootstrap] packages
// for detailed API documentation.
package ssrsandbox
