package pom

import "strings"

// Default values applied when a POM omits the corresponding element.
const (
	DefaultScope          = "compile"
	DefaultType           = "jar"
	DefaultPackaging      = "jar"
	DefaultPluginGroupID  = "org.apache.maven.plugins"
	DefaultParentRelative = "../pom.xml"
)

// Coordinate identifies a project or dependency by groupId and artifactId.
// It is the join key between dependency declarations and workspace projects.
type Coordinate struct {
	GroupID    string `json:"groupId" yaml:"groupId"`
	ArtifactID string `json:"artifactId" yaml:"artifactId"`
}

// String returns "groupId:artifactId".
func (c Coordinate) String() string {
	return c.GroupID + ":" + c.ArtifactID
}

// ProjectName returns "groupId.artifactId", the name a project is
// registered under in the task graph.
func (c Coordinate) ProjectName() string {
	return c.GroupID + "." + c.ArtifactID
}

// IsZero reports whether either half of the coordinate is missing.
func (c Coordinate) IsZero() bool {
	return c.GroupID == "" || c.ArtifactID == ""
}

// ParseCoordinate splits "groupId:artifactId[:version]" into a coordinate.
// The version, if any, is returned separately.
func ParseCoordinate(s string) (Coordinate, string, bool) {
	parts := strings.Split(s, ":")
	if len(parts) < 2 || len(parts) > 3 || parts[0] == "" || parts[1] == "" {
		return Coordinate{}, "", false
	}
	var version string
	if len(parts) == 3 {
		version = parts[2]
	}
	return Coordinate{GroupID: parts[0], ArtifactID: parts[1]}, version, true
}

// ParentRef is the <parent> declaration of a POM.
type ParentRef struct {
	GroupID    string `json:"groupId" yaml:"groupId"`
	ArtifactID string `json:"artifactId" yaml:"artifactId"`
	Version    string `json:"version,omitempty" yaml:"version,omitempty"`

	// RelativePath is nil when the element is absent (Maven then looks at
	// ../pom.xml) and points to "" for an explicit empty <relativePath/>,
	// which disables the on-disk lookup.
	RelativePath *string `json:"relativePath,omitempty" yaml:"relativePath,omitempty"`
}

// Coordinate returns the parent's coordinate.
func (p *ParentRef) Coordinate() Coordinate {
	return Coordinate{GroupID: p.GroupID, ArtifactID: p.ArtifactID}
}

// Dependency is a single <dependency> entry.
type Dependency struct {
	GroupID    string `json:"groupId" yaml:"groupId"`
	ArtifactID string `json:"artifactId" yaml:"artifactId"`
	Version    string `json:"version,omitempty" yaml:"version,omitempty"`
	Scope      string `json:"scope,omitempty" yaml:"scope,omitempty"`
	Type       string `json:"type,omitempty" yaml:"type,omitempty"`
	Optional   bool   `json:"optional,omitempty" yaml:"optional,omitempty"`
}

// Coordinate returns the dependency's coordinate.
func (d Dependency) Coordinate() Coordinate {
	return Coordinate{GroupID: d.GroupID, ArtifactID: d.ArtifactID}
}

// Plugin is a single <build><plugins><plugin> entry.
type Plugin struct {
	GroupID    string `json:"groupId" yaml:"groupId"`
	ArtifactID string `json:"artifactId" yaml:"artifactId"`
	Version    string `json:"version,omitempty" yaml:"version,omitempty"`
}

// Coordinate returns the plugin's coordinate.
func (p Plugin) Coordinate() Coordinate {
	return Coordinate{GroupID: p.GroupID, ArtifactID: p.ArtifactID}
}

// Key returns "groupId:artifactId", the plugin cache key.
func (p Plugin) Key() string {
	return p.GroupID + ":" + p.ArtifactID
}

// Project is the in-memory model of a POM.
//
// The same shape is used for the raw model produced by [Parser] and the
// effective model produced by the resolver; Effective tells them apart.
// A Project returned from either cache is shared and must be treated as
// immutable.
type Project struct {
	// Path is the absolute path of the pom.xml file.
	Path string `json:"path" yaml:"path"`

	GroupID     string `json:"groupId" yaml:"groupId"`
	ArtifactID  string `json:"artifactId" yaml:"artifactId"`
	Version     string `json:"version,omitempty" yaml:"version,omitempty"`
	Packaging   string `json:"packaging,omitempty" yaml:"packaging,omitempty"`
	Name        string `json:"name,omitempty" yaml:"name,omitempty"`
	Description string `json:"description,omitempty" yaml:"description,omitempty"`

	Parent *ParentRef `json:"parent,omitempty" yaml:"parent,omitempty"`

	// Properties holds <properties> as declared (raw) or merged and
	// interpolated (effective).
	Properties map[string]string `json:"properties,omitempty" yaml:"properties,omitempty"`

	Dependencies         []Dependency `json:"dependencies,omitempty" yaml:"dependencies,omitempty"`
	DependencyManagement []Dependency `json:"dependencyManagement,omitempty" yaml:"dependencyManagement,omitempty"`
	Plugins              []Plugin     `json:"plugins,omitempty" yaml:"plugins,omitempty"`
	Modules              []string     `json:"modules,omitempty" yaml:"modules,omitempty"`

	Effective bool `json:"effective,omitempty" yaml:"effective,omitempty"`

	// ParentResolved is true when the parent POM was found on disk and
	// merged into this effective model.
	ParentResolved bool `json:"parentResolved,omitempty" yaml:"parentResolved,omitempty"`
}

// Coordinate returns the project's coordinate. For a raw model without its
// own groupId the parent's groupId is used, as Maven inheritance would.
func (p *Project) Coordinate() Coordinate {
	gid := p.GroupID
	if gid == "" && p.Parent != nil {
		gid = p.Parent.GroupID
	}
	return Coordinate{GroupID: gid, ArtifactID: p.ArtifactID}
}

// PackagingOrDefault returns the packaging, defaulting to "jar".
func (p *Project) PackagingOrDefault() string {
	if p.Packaging == "" {
		return DefaultPackaging
	}
	return p.Packaging
}

// IsAggregator reports whether the project lists modules.
func (p *Project) IsAggregator() bool {
	return len(p.Modules) > 0
}
