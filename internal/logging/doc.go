// Package logging builds the zerolog logger used by the command line tool.
//
// Output goes to stderr through a console writer so that rendered reports on
// stdout stay machine readable. Packages never reach for a global logger;
// they log through zerolog.Ctx on the context passed to them.
package logging
