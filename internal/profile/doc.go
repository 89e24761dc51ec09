// Package profile loads backend settings manifests written in HCL.
//
// A profiles file contains zero or more `backend "<name>" { ... }` blocks.
// The loader never interprets a block's body; it hands the raw hcl.Body to
// the backend that owns it, which decodes the body into its own settings
// struct. This keeps backend configuration as opaque to the core as the
// forwarded command-line arguments are.
package profile
