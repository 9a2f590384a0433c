// Package config defines the format-agnostic model of a configuration
// database: class definitions (the schema) and object definitions (the data),
// along with the core interfaces (Loader, Writer) for reading and writing
// databases in a concrete file format.
//
// The `config.Model` is the single input of the `confdb` package. Concrete
// implementations of the interfaces, such as for HCL, are provided in separate
// packages.
package config
