// Package dal provides typed views over confdb objects. Get resolves a
// (class, id) pair into the most specific registered Go type along the
// object's inheritance chain; classes without a dedicated type are returned
// as *Base.
package dal
