// Package plugins answers "which goals does this Maven plugin offer?".
//
// Common plugins are answered from a built-in [Table]. A few utility
// plugins are never worth a target and are [Skipped]. Everything else is
// asked of Maven itself through `help:describe`, run by a [Pool] that
// bounds the number of live JVMs, shares duplicate requests and caches
// successful answers.
//
// The describe output is parsed by a [Grammar]: an ordered list of
// [Matcher]s plus header, terminator and fallback rules. New output shapes
// are supported by adding a matcher, without touching the pool.
//
//	pool := plugins.NewPool(plugins.Options{Logger: logger})
//	defer pool.Close()
//	d, err := pool.Discover(ctx, "org.codehaus.mojo:exec-maven-plugin", root)
package plugins
