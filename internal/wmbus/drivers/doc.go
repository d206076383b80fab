// Package drivers registers the built-in meter drivers with package
// driver. Each file declares one driver's detection triples and field
// list via an init() function, following the registerDriver/di.setName
// shape meters are declared with upstream.
package drivers
