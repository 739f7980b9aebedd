// Package diff computes the symmetric difference of two violation reports.
//
// [Match] classifies the violations of a single file. Violations are only
// ever paired within the same rule id: exact line and column matches first,
// then a greedy nearest-line pass (smallest distance first, ties broken by
// patch line then base line) that absorbs line drift caused by unrelated
// edits. Anything left over is removed (base only) or added (patch only).
//
// [Aggregate] runs Match over the union of files from both runs on a bounded
// errgroup and folds the results into a [Report]. The report is deterministic:
// files are kept in path order and entries in position order.
package diff
