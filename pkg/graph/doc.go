// Package graph builds the project dependency graph of a Maven workspace.
//
// # Index
//
// [NewIndex] maps every project coordinate (groupId:artifactId) to an
// [IndexEntry]. A coordinate declared by one POM is unique; one declared by
// several is ambiguous and never resolves to a project, so a duplicated
// artifact in the workspace cannot silently redirect dependencies.
//
// # Edges
//
// [Builder.Build] emits two kinds of [Edge]:
//
//   - [EdgeStatic]: a declared dependency on another workspace project
//   - [EdgeImplicit]: a project's parent, or an aggregator's module
//
// Dependencies on coordinates outside the workspace are ignored.
//
// # Registry
//
// Before edges are handed to an orchestrator they are checked against a
// [Registry] of the projects it knows. [NameSet] is the simple
// implementation:
//
//	g := (&graph.Builder{}).Build(projects, graph.Options{})
//	dropped := g.Validate(graph.NewNameSet(g.Projects...), nil)
//
// [ToDOT] and [RenderSVG] export the graph for inspection.
package graph
