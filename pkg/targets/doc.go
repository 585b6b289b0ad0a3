// Package targets synthesizes orchestrator targets for a Maven project:
// one per lifecycle phase (compile, test, package, verify, install) and
// one per goal of each attached plugin whose goals are known or were
// discovered.
//
// Lifecycle targets chain through DependsOn so that running install runs
// every earlier phase, and compile depends on "^install", the install
// target of every upstream project.
package targets
