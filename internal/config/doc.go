// Package config defines how workflow documents are discovered and loaded.
//
// The Loader interface is what the application depends on. FileLoader is its
// file-system implementation: it expands paths into files, picks a Parser by
// file extension and merges every parsed document into one model.Definition.
// The format-specific parsers live in the yaml_adapter and hcl_adapter
// packages, keeping this package free of any format dependency.
package config
