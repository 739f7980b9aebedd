// Package configdiff compares two flattened rule configurations.
//
// Each side maps a rule id to its attribute set. A rule present on one side
// only is added or removed; a rule on both sides is changed when any attribute
// value differs or an attribute exists on one side only. The package has no
// dependency on violation matching.
package configdiff
