// Package pom parses Maven pom.xml files into an in-memory project model.
//
// # Overview
//
// [Project] is the single model shared by the raw and the effective code
// paths: [Parser] produces raw models straight from XML, and the resolve
// package produces effective models of the same shape with inheritance and
// property placeholders applied.
//
//	p := pom.NewParser()
//	proj, err := p.Parse(ctx, "services/api/pom.xml")
//	if errors.Is(err, errors.ErrCodeParse) {
//	    // malformed file: log and skip
//	}
//
// # Coordinates
//
// A [Coordinate] is the (groupId, artifactId) pair. String renders the
// Maven form "g:a"; ProjectName renders the task graph form "g.a".
package pom
