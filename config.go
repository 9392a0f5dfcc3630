package sprinkles

import (
	_ "embed"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

//go:embed defaults.yaml
var defaultSettingsYaml []byte

// Settings are engine-level knobs, separate from per-emitter configs.
type Settings struct {
	Workers       int     `yaml:"workers"`
	MaxFrameDelta float32 `yaml:"max_frame_delta"`
	Debug         bool    `yaml:"debug"`
	LogPrefix     string  `yaml:"log_prefix"`
}

func DefaultSettings() Settings {
	var s Settings
	if err := yaml.Unmarshal(defaultSettingsYaml, &s); err != nil {
		panic(fmt.Sprintf("embedded defaults.yaml is invalid: %v", err))
	}
	return s
}

// LoadSettings reads a settings file over the embedded defaults. An empty
// path returns the defaults unchanged.
func LoadSettings(path string) (Settings, error) {
	s := DefaultSettings()
	if path == "" {
		return s, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return s, fmt.Errorf("read settings: %w", err)
	}
	if err := yaml.Unmarshal(data, &s); err != nil {
		return s, fmt.Errorf("parse settings %s: %w", path, err)
	}
	return s, nil
}

// SystemFile is the on-disk form of a whole particle system: its emitters
// and colliders.
type SystemFile struct {
	Name      string           `yaml:"name"`
	Emitters  []EmitterConfig  `yaml:"emitters"`
	Colliders []ColliderConfig `yaml:"colliders"`
}

// LoadSystemFile parses a system description. Emitters start from the
// default config so files only need to spell out what differs.
func LoadSystemFile(path string) (*SystemFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read system file: %w", err)
	}
	return ParseSystemFile(data)
}

func ParseSystemFile(data []byte) (*SystemFile, error) {
	var raw struct {
		Name      string           `yaml:"name"`
		Emitters  []yaml.Node      `yaml:"emitters"`
		Colliders []ColliderConfig `yaml:"colliders"`
	}
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("parse system file: %w", err)
	}
	f := &SystemFile{Name: raw.Name, Colliders: raw.Colliders}
	for i := range raw.Emitters {
		cfg := DefaultEmitterConfig("")
		if err := raw.Emitters[i].Decode(&cfg); err != nil {
			return nil, fmt.Errorf("parse emitter %d: %w", i, err)
		}
		f.Emitters = append(f.Emitters, cfg)
	}
	return f, nil
}

// LoadInto instantiates the file's emitters and colliders in a system.
func (f *SystemFile) LoadInto(s *ParticleSystem) []EmitterID {
	ids := make([]EmitterID, 0, len(f.Emitters))
	for _, cfg := range f.Emitters {
		ids = append(ids, s.AddEmitter(cfg))
	}
	for _, c := range f.Colliders {
		s.AddCollider(c)
	}
	return ids
}
