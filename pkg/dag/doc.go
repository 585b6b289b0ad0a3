// Package dag provides the directed graph used to model project
// dependencies in a Maven workspace.
//
// # Overview
//
// Nodes are projects, identified by their task graph name
// ("groupId.artifactId"). An edge From→To means From needs To to be built
// first, either because it declares a dependency on it or because To is
// its parent or one of its aggregated modules.
//
// # Basic Usage
//
//	g := dag.New()
//	g.AddNode(dag.Node{ID: "com.acme.app"})
//	g.AddNode(dag.Node{ID: "com.acme.core"})
//	g.AddEdge(dag.Edge{From: "com.acme.app", To: "com.acme.core"})
//
// [DAG.TopologicalOrder] yields a build order with dependencies first.
// [DAG.Cycles] reports dependency cycles, which Maven rejects at build time
// but which this package tolerates so a partial graph can still be shown.
package dag
