// Package autowire builds object graphs from constructor signatures. A Registry describes how each
// type is constructed, a Config layers aliases, type preferences and parameter bindings on top, and
// the Injector resolves every constructor parameter recursively: from explicit arguments, from the
// configuration, from a hosting Container, or by constructing the dependency itself.
//
// The Injector has comprehensive documentation about the resolution order. GeneratedInjector puts a
// table of precompiled factories in front of any Creator.
//
// There are also generic helper functions that make using this more concise.
package autowire
