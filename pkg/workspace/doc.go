// Package workspace drives the analysis of a Maven workspace.
//
// An [Analyzer] walks the module graph from the root POM, parses and
// resolves every project in fixed-size concurrent batches, discovers the
// goals of unknown plugins, synthesizes targets and builds the dependency
// graph. Its two entry points mirror what a task orchestrator asks of a
// project plugin:
//
//	a, err := workspace.New(root, config.Default(), workspace.WithLogger(logger))
//	if err != nil {
//	    return err
//	}
//	defer a.Close()
//
//	nodes, err := a.CreateNodes(ctx, files)       // root -> ProjectDescriptor
//	edges, err := a.CreateDependencies(ctx, nil)  // validated graph edges
//
// All caches of a run live in the analyzer's [Context]; nothing is shared
// between analyzers.
//
// A broken POM or a hung plugin discovery never fails a run. Such problems
// are logged and recorded in the [Report]; callers that need completeness
// check [Report.Complete].
package workspace
