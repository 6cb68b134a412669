package sim

import (
	"bytes"
	"fmt"
	"maps"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Project is the on-disk description of one campaign: the fleet to simulate,
// the engine configuration and where the route table lives.
type Project struct {
	Fleet  Fleet  `yaml:"fleet"`
	Routes string `yaml:"routes"` // route document, relative to the project file
	Config Config `yaml:",inline"`
}

// LoadProject reads a project document from path. A relative Routes path is
// resolved against the project file's directory.
func LoadProject(path string) (Project, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Project{}, fmt.Errorf("reading project: %w", err)
	}
	p, err := ParseProject(data)
	if err != nil {
		return Project{}, err
	}
	if p.Routes != "" && !filepath.IsAbs(p.Routes) {
		p.Routes = filepath.Join(filepath.Dir(path), p.Routes)
	}
	return p, nil
}

// ParseProject decodes a project document over DefaultConfig. Scalars and
// nested groups left out of the document keep their defaults. The campaign
// itself (sources, rigs and schedule) is taken from the defaults only when
// the document names none of the three.
// Uses strict parsing: unrecognized keys (typos) are rejected.
func ParseProject(data []byte) (Project, error) {
	def := DefaultConfig()
	p := Project{Config: def}
	p.Config.Sources, p.Config.Rigs, p.Config.Schedule = nil, nil, nil
	p.Config.Cost.WaterAcquisition = nil

	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&p); err != nil {
		return Project{}, fmt.Errorf("parsing project: %w", err)
	}

	c := &p.Config
	if c.Sources == nil && c.Rigs == nil && c.Schedule == nil {
		c.Sources, c.Rigs, c.Schedule = def.Sources, def.Rigs, def.Schedule
		if c.Cost.WaterAcquisition == nil {
			c.Cost.WaterAcquisition = maps.Clone(def.Cost.WaterAcquisition)
		}
	}
	return p, nil
}
