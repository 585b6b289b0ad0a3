// Package modules enumerates the POM files that make up a Maven workspace.
//
// [Discover] follows <modules> declarations from the root POM, which yields
// the actual reactor. [Glob] is the filename-pattern alternative used when
// the caller hands in arbitrary candidate files; it filters well-known
// template and fixture directories through an [Excluder].
package modules
