package pom

import (
	"encoding/xml"
	"strings"
)

type pomProject struct {
	XMLName     xml.Name
	GroupID     string     `xml:"groupId"`
	ArtifactID  string     `xml:"artifactId"`
	Version     string     `xml:"version"`
	Packaging   string     `xml:"packaging"`
	Name        string     `xml:"name"`
	Description string     `xml:"description"`
	Parent      *pomParent `xml:"parent"`

	Properties           pomProperties   `xml:"properties"`
	Dependencies         []pomDependency `xml:"dependencies>dependency"`
	DependencyManagement []pomDependency `xml:"dependencyManagement>dependencies>dependency"`
	Plugins              []pomPlugin     `xml:"build>plugins>plugin"`
	Modules              []string        `xml:"modules>module"`
}

type pomParent struct {
	GroupID      string  `xml:"groupId"`
	ArtifactID   string  `xml:"artifactId"`
	Version      string  `xml:"version"`
	RelativePath *string `xml:"relativePath"`
}

type pomDependency struct {
	GroupID    string `xml:"groupId"`
	ArtifactID string `xml:"artifactId"`
	Version    string `xml:"version"`
	Scope      string `xml:"scope"`
	Type       string `xml:"type"`
	Optional   string `xml:"optional"`
}

type pomPlugin struct {
	GroupID    string `xml:"groupId"`
	ArtifactID string `xml:"artifactId"`
	Version    string `xml:"version"`
}

// pomProperties captures arbitrary <properties> children.
type pomProperties struct {
	Entries []pomProperty `xml:",any"`
}

type pomProperty struct {
	XMLName xml.Name
	Value   string `xml:",chardata"`
}

func (x *pomProject) toProject(path string) *Project {
	p := &Project{
		Path:        path,
		GroupID:     trim(x.GroupID),
		ArtifactID:  trim(x.ArtifactID),
		Version:     trim(x.Version),
		Packaging:   trim(x.Packaging),
		Name:        trim(x.Name),
		Description: trim(x.Description),
		Properties:  make(map[string]string, len(x.Properties.Entries)),
	}

	if x.Parent != nil {
		p.Parent = &ParentRef{
			GroupID:    trim(x.Parent.GroupID),
			ArtifactID: trim(x.Parent.ArtifactID),
			Version:    trim(x.Parent.Version),
		}
		if x.Parent.RelativePath != nil {
			rel := trim(*x.Parent.RelativePath)
			p.Parent.RelativePath = &rel
		}
	}

	for _, e := range x.Properties.Entries {
		p.Properties[e.XMLName.Local] = trim(e.Value)
	}

	p.Dependencies = convertDependencies(x.Dependencies)
	p.DependencyManagement = convertDependencies(x.DependencyManagement)

	for _, pl := range x.Plugins {
		gid := trim(pl.GroupID)
		if gid == "" {
			gid = DefaultPluginGroupID
		}
		p.Plugins = append(p.Plugins, Plugin{
			GroupID:    gid,
			ArtifactID: trim(pl.ArtifactID),
			Version:    trim(pl.Version),
		})
	}

	for _, m := range x.Modules {
		if m = trim(m); m != "" {
			p.Modules = append(p.Modules, m)
		}
	}

	return p
}

func convertDependencies(in []pomDependency) []Dependency {
	if len(in) == 0 {
		return nil
	}
	out := make([]Dependency, 0, len(in))
	for _, d := range in {
		out = append(out, Dependency{
			GroupID:    trim(d.GroupID),
			ArtifactID: trim(d.ArtifactID),
			Version:    trim(d.Version),
			Scope:      trim(d.Scope),
			Type:       trim(d.Type),
			Optional:   trim(d.Optional) == "true",
		})
	}
	return out
}

func trim(s string) string { return strings.TrimSpace(s) }
