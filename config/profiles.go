package config

import (
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/spf13/pflag"
	"gopkg.in/yaml.v3"
)

// Profile is a named bundle of traffic-shape defaults. Zero fields are
// treated as unset and leave the flag defaults in place.
type Profile struct {
	HTMLPct    int    `yaml:"html_pct"`
	AttachPct  int    `yaml:"attach_pct"`
	SubjectLen int    `yaml:"subject_len"`
	NumEmails  int    `yaml:"num_emails"`
	OutputDir  string `yaml:"output_dir"`
}

var builtinProfiles = map[string]Profile{
	"mixed_business": {HTMLPct: 88, AttachPct: 25, SubjectLen: 50, NumEmails: 1000, OutputDir: "output_emails"},
	"internal_ops":   {HTMLPct: 75, AttachPct: 15, SubjectLen: 50, NumEmails: 1000, OutputDir: "output_emails"},
	"marketing":      {HTMLPct: 98, AttachPct: 2, SubjectLen: 50, NumEmails: 1000, OutputDir: "output_emails"},
}

// resolveProfile looks a profile up by name, first in the optional YAML
// profile file, then among the built-ins. File profiles shadow built-ins of
// the same name.
func resolveProfile(name, file string) (Profile, error) {
	profiles := make(map[string]Profile, len(builtinProfiles))
	for k, v := range builtinProfiles {
		profiles[k] = v
	}

	if file != "" {
		loaded, err := loadProfileFile(file)
		if err != nil {
			return Profile{}, err
		}
		for k, v := range loaded {
			profiles[k] = v
		}
	}

	profile, ok := profiles[name]
	if !ok {
		names := make([]string, 0, len(profiles))
		for k := range profiles {
			names = append(names, k)
		}
		sort.Strings(names)
		return Profile{}, fmt.Errorf("unknown profile %q, available: %s", name, strings.Join(names, ", "))
	}
	return profile, nil
}

func loadProfileFile(path string) (map[string]Profile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read profile file: %w", err)
	}

	profiles := make(map[string]Profile)
	if err := yaml.Unmarshal(data, &profiles); err != nil {
		return nil, fmt.Errorf("parse profile file: %w", err)
	}
	return profiles, nil
}

// applyProfile copies non-zero profile values into the config for every
// field whose flag the user did not set explicitly.
func applyProfile(cfg *Config, p Profile, flags *pflag.FlagSet) {
	if p.HTMLPct != 0 && !flags.Changed("html-pct") {
		cfg.HTMLPct = p.HTMLPct
	}
	if p.AttachPct != 0 && !flags.Changed("attach-pct") {
		cfg.AttachPct = p.AttachPct
	}
	if p.SubjectLen != 0 && !flags.Changed("subject-len") {
		cfg.SubjectLen = p.SubjectLen
	}
	if p.NumEmails != 0 && !flags.Changed("num-emails") {
		cfg.NumEmails = p.NumEmails
	}
	if p.OutputDir != "" && !flags.Changed("output-dir") {
		cfg.OutputDir = p.OutputDir
	}
}
