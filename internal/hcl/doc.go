// Package hcl provides the concrete HCL implementation of the configuration
// Loader and Writer interfaces defined in the `config` package. It is
// responsible for file discovery, include resolution, parsing, and the
// translation of `class` and `object` blocks into the format-agnostic model.
//
// Object bodies are evaluated with a single function in scope, `ref(class,
// id)`, which produces a reference to another object:
//
//	object "NetworkConnection" "fa-net" {
//	  data_type          = "Fragment"
//	  associated_service = ref("Service", "frag-svc")
//	}
//
// A reference, or a tuple of references, becomes a relationship; every other
// value becomes an attribute.
package hcl
