package docfetch

import (
	"bytes"
	_ "embed"
	"fmt"
	"io"
	"regexp"
	"slices"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"gopkg.in/yaml.v3"
)

// Technique names accepted in a profile's technique list.
const (
	TechniqueHarvest  = "harvest"
	TechniqueTrigger  = "trigger"
	TechniqueEmbedded = "embedded"
	TechniqueMirror   = "mirror"
	TechniqueAPI      = "api"
	TechniqueImages   = "images"
	TechniqueShots    = "screenshots"
	TechniquePrint    = "print"
)

//go:embed profiles.yaml
var defaultProfilesYAML []byte

// HarvestConfig configures selector-based link harvesting.
type HarvestConfig struct {
	// Selectors are queried in order; earlier selectors win.
	Selectors []string `yaml:"selectors"`
	// Match lists lowercase substrings; a link qualifies when its
	// href/src/data attribute contains any of them.
	Match []string `yaml:"match"`
	// RequirePDF accepts only responses whose media type is application/pdf.
	RequirePDF bool `yaml:"require_pdf"`
}

// TriggerConfig configures clicking download buttons.
type TriggerConfig struct {
	Targets []ClickTarget `yaml:"targets"`
	Wait    time.Duration `yaml:"wait"`
	Harvest HarvestConfig `yaml:"harvest"`
}

// EmbeddedConfig configures scanning inline scripts for JSON download data.
type EmbeddedConfig struct {
	// Markers must all appear in a script for it to be scanned.
	Markers []string `yaml:"markers"`
	// Key is the JSON key whose string value is a download URL.
	Key string `yaml:"key"`
}

// MirrorConfig configures third-party mirror redirects.
type MirrorConfig struct {
	// Domain is the source domain replaced by each mirror host.
	Domain  string        `yaml:"domain"`
	Hosts   []string      `yaml:"hosts"`
	Settle  time.Duration `yaml:"settle"`
	Harvest HarvestConfig `yaml:"harvest"`
}

// APIConfig configures the external conversion API.
type APIConfig struct {
	Endpoint string `yaml:"endpoint"`
	URLField string `yaml:"url_field"`
	Format   string `yaml:"format"`
}

// ImageConfig configures page-image reconstruction.
type ImageConfig struct {
	Selectors []string `yaml:"selectors"`
	Limit     int      `yaml:"limit"`
	Scroll    []string `yaml:"scroll"`
}

// ScreenshotConfig configures rebuilding a document from screenshots of
// its rendered page elements.
type ScreenshotConfig struct {
	Selector string   `yaml:"selector"`
	Limit    int      `yaml:"limit"`
	Scroll   []string `yaml:"scroll"`
}

// PrintStepConfig configures the print fallback.
type PrintStepConfig struct {
	Scroll []string `yaml:"scroll"`
}

// NamingConfig sets suggested filename prefixes.
type NamingConfig struct {
	Prefix      string `yaml:"prefix"`
	PrintPrefix string `yaml:"print_prefix"`
}

// Profile is the technique chain and selector set for one site.
type Profile struct {
	Settle     time.Duration    `yaml:"settle"`
	Techniques []string         `yaml:"techniques"`
	IDPatterns []string         `yaml:"id_patterns"`
	Naming     NamingConfig     `yaml:"naming"`
	Harvest    HarvestConfig    `yaml:"harvest"`
	Trigger    TriggerConfig    `yaml:"trigger"`
	Embedded   EmbeddedConfig   `yaml:"embedded"`
	Mirror     MirrorConfig     `yaml:"mirror"`
	API        APIConfig        `yaml:"api"`
	Images     ImageConfig      `yaml:"images"`
	Shots      ScreenshotConfig `yaml:"screenshots"`
	Print      PrintStepConfig  `yaml:"print"`

	idPatterns []*regexp.Regexp
}

// Profiles maps each site to its profile.
type Profiles map[SiteHint]*Profile

type profilesFile struct {
	Profiles map[string]*Profile `yaml:"profiles"`
}

var knownTechniques = []string{
	TechniqueHarvest, TechniqueTrigger, TechniqueEmbedded, TechniqueMirror,
	TechniqueAPI, TechniqueImages, TechniqueShots, TechniquePrint,
}

// DefaultProfiles returns the built-in profiles for SlideShare, Scribd and
// generic pages.
func DefaultProfiles() Profiles {
	p, err := LoadProfiles(bytes.NewReader(defaultProfilesYAML))
	if err != nil {
		panic(fmt.Sprintf("docfetch: built-in profiles: %v", err))
	}
	return p
}

// LoadProfiles parses a profiles YAML document. Sites missing from the
// document keep their built-in profile, so an override file only needs the
// sites it changes.
func LoadProfiles(r io.Reader) (Profiles, error) {
	var f profilesFile
	if err := yaml.NewDecoder(r).Decode(&f); err != nil {
		return nil, goerr.Wrap(err, "decoding profiles")
	}

	out := Profiles{}
	for name, p := range f.Profiles {
		site, ok := ParseSiteHint(name)
		if !ok {
			return nil, goerr.New("unknown site in profiles", goerr.V("site", name))
		}
		if p == nil {
			return nil, goerr.New("empty profile", goerr.V("site", name))
		}
		if err := p.compile(); err != nil {
			return nil, goerr.Wrap(err, "invalid profile", goerr.V("site", name))
		}
		out[site] = p
	}

	for _, site := range []SiteHint{Generic, SlideShare, Scribd} {
		if _, ok := out[site]; ok {
			continue
		}
		def, err := defaultProfile(site)
		if err != nil {
			return nil, err
		}
		out[site] = def
	}
	return out, nil
}

func defaultProfile(site SiteHint) (*Profile, error) {
	var f profilesFile
	if err := yaml.Unmarshal(defaultProfilesYAML, &f); err != nil {
		return nil, goerr.Wrap(err, "decoding built-in profiles")
	}
	p, ok := f.Profiles[site.String()]
	if !ok || p == nil {
		return nil, goerr.New("no built-in profile", goerr.V("site", site.String()))
	}
	if err := p.compile(); err != nil {
		return nil, err
	}
	return p, nil
}

// compile validates the technique list and compiles ID patterns. A missing
// print step is appended; a print step anywhere but last is an error.
func (p *Profile) compile() error {
	for i, name := range p.Techniques {
		if !slices.Contains(knownTechniques, name) {
			return goerr.New("unknown technique", goerr.V("technique", name))
		}
		if name == TechniquePrint && i != len(p.Techniques)-1 {
			return goerr.New("print must be the last technique")
		}
	}
	if !slices.Contains(p.Techniques, TechniquePrint) {
		p.Techniques = append(p.Techniques, TechniquePrint)
	}

	p.idPatterns = p.idPatterns[:0]
	for _, expr := range p.IDPatterns {
		re, err := regexp.Compile(expr)
		if err != nil {
			return goerr.Wrap(err, "invalid id pattern", goerr.V("pattern", expr))
		}
		p.idPatterns = append(p.idPatterns, re)
	}

	if p.Images.Limit <= 0 {
		p.Images.Limit = 50
	}
	if p.Shots.Selector == "" {
		p.Shots.Selector = "div.document_page"
	}
	if p.Shots.Limit <= 0 {
		p.Shots.Limit = 200
	}
	return nil
}

// chain returns the technique names to run for mode.
func (p *Profile) chain(mode Mode) []string {
	if mode == ModeImage {
		return []string{TechniqueImages, TechniqueShots, TechniquePrint}
	}
	return p.Techniques
}

// documentID returns the first capture group of the first matching ID
// pattern, or "" when none match.
func (p *Profile) documentID(rawURL string) string {
	for _, re := range p.idPatterns {
		if m := re.FindStringSubmatch(rawURL); len(m) > 1 {
			return m[1]
		}
	}
	return ""
}
