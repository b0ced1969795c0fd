package store

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/kilianp07/skyops/core/model"
)

// Seed is the YAML roster import format. List columns accept either a YAML
// sequence or a comma-delimited string, matching sheet exports.
type Seed struct {
	Pilots   []seedPilot   `yaml:"pilots"`
	Drones   []seedDrone   `yaml:"drones"`
	Missions []seedMission `yaml:"missions"`
}

type seedPilot struct {
	ID                string  `yaml:"pilot_id"`
	Name              string  `yaml:"name"`
	Skills            flexSet `yaml:"skills"`
	Certifications    flexSet `yaml:"certifications"`
	Location          string  `yaml:"location"`
	Status            string  `yaml:"status"`
	CurrentAssignment string  `yaml:"current_assignment"`
	AvailableFrom     string  `yaml:"available_from"`
}

type seedDrone struct {
	ID                string  `yaml:"drone_id"`
	Model             string  `yaml:"model"`
	Capabilities      flexSet `yaml:"capabilities"`
	Status            string  `yaml:"status"`
	Location          string  `yaml:"location"`
	CurrentAssignment string  `yaml:"current_assignment"`
	MaintenanceDue    string  `yaml:"maintenance_due"`
}

type seedMission struct {
	ID             string  `yaml:"project_id"`
	Client         string  `yaml:"client"`
	Location       string  `yaml:"location"`
	RequiredSkills flexSet `yaml:"required_skills"`
	RequiredCerts  flexSet `yaml:"required_certs"`
	Priority       string  `yaml:"priority"`
	StartDate      string  `yaml:"start_date"`
	EndDate        string  `yaml:"end_date"`
}

type flexSet model.Set

func (s *flexSet) UnmarshalYAML(n *yaml.Node) error {
	switch n.Kind {
	case yaml.ScalarNode:
		*s = flexSet(model.ParseSet(n.Value))
		return nil
	case yaml.SequenceNode:
		var vs []string
		if err := n.Decode(&vs); err != nil {
			return err
		}
		*s = flexSet(model.NewSet(vs...))
		return nil
	default:
		return fmt.Errorf("line %d: expected list or comma-separated string", n.Line)
	}
}

// DecodeSeed parses a YAML roster.
func DecodeSeed(r io.Reader) (Seed, error) {
	var s Seed
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&s); err != nil && !errors.Is(err, io.EOF) {
		return Seed{}, fmt.Errorf("decode seed: %w", err)
	}
	return s, s.validate()
}

func (s Seed) validate() error {
	seen := map[string]bool{}
	check := func(kind model.Kind, id string) error {
		id = strings.TrimSpace(id)
		if id == "" {
			return fmt.Errorf("%s row without id", kind)
		}
		key := string(kind) + "/" + id
		if seen[key] {
			return fmt.Errorf("duplicate %s id %s", kind, id)
		}
		seen[key] = true
		return nil
	}
	for _, p := range s.Pilots {
		if err := check(model.KindPilot, p.ID); err != nil {
			return err
		}
	}
	for _, d := range s.Drones {
		if err := check(model.KindDrone, d.ID); err != nil {
			return err
		}
	}
	for _, m := range s.Missions {
		if err := check(model.KindMission, m.ID); err != nil {
			return err
		}
	}
	return nil
}

// PilotModels converts the seed rows to model values.
func (s Seed) PilotModels() []model.Pilot {
	out := make([]model.Pilot, 0, len(s.Pilots))
	for _, p := range s.Pilots {
		out = append(out, model.Pilot{
			ID: strings.TrimSpace(p.ID), Name: p.Name,
			Skills: model.Set(p.Skills), Certifications: model.Set(p.Certifications),
			Location: strings.TrimSpace(p.Location), Status: model.NormalizeStatus(p.Status),
			CurrentAssignment: reference(p.CurrentAssignment), AvailableFrom: p.AvailableFrom,
		})
	}
	return out
}

// DroneModels converts the seed rows to model values.
func (s Seed) DroneModels() []model.Drone {
	out := make([]model.Drone, 0, len(s.Drones))
	for _, d := range s.Drones {
		out = append(out, model.Drone{
			ID: strings.TrimSpace(d.ID), Model: d.Model, Capabilities: model.Set(d.Capabilities),
			Status: model.NormalizeStatus(d.Status), Location: strings.TrimSpace(d.Location),
			CurrentAssignment: reference(d.CurrentAssignment), MaintenanceDue: d.MaintenanceDue,
		})
	}
	return out
}

// MissionModels converts the seed rows to model values.
func (s Seed) MissionModels() []model.Mission {
	out := make([]model.Mission, 0, len(s.Missions))
	for _, m := range s.Missions {
		start, _ := model.ParseDate(m.StartDate)
		end, _ := model.ParseDate(m.EndDate)
		out = append(out, model.Mission{
			ID: strings.TrimSpace(m.ID), Client: m.Client, Location: strings.TrimSpace(m.Location),
			RequiredSkills: model.Set(m.RequiredSkills), RequiredCerts: model.Set(m.RequiredCerts),
			Priority: m.Priority, StartDate: start, EndDate: end,
		})
	}
	return out
}

// Apply writes every seed row through w.
func (s Seed) Apply(ctx context.Context, w Writer) error {
	for _, p := range s.PilotModels() {
		if err := w.PutPilot(ctx, p); err != nil {
			return err
		}
	}
	for _, d := range s.DroneModels() {
		if err := w.PutDrone(ctx, d); err != nil {
			return err
		}
	}
	for _, m := range s.MissionModels() {
		if err := w.PutMission(ctx, m); err != nil {
			return err
		}
	}
	return nil
}

// LoadSeedFile decodes the YAML file at path and applies it to w. It returns
// the number of rows written.
func LoadSeedFile(ctx context.Context, path string, w Writer) (int, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, err
	}
	defer func() { _ = f.Close() }()
	s, err := DecodeSeed(f)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", path, err)
	}
	if err := s.Apply(ctx, w); err != nil {
		return 0, err
	}
	return len(s.Pilots) + len(s.Drones) + len(s.Missions), nil
}
