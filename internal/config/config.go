// Package config loads mdpane settings from a YAML file and per-document
// overrides from front matter.
package config

import (
	"io"
	"os"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"

	"github.com/kyaoi/mdpane/internal/highlight"
	"github.com/kyaoi/mdpane/internal/mathrender"
	"github.com/kyaoi/mdpane/internal/widget"
)

// Config is the file-level configuration. Flags override it.
type Config struct {
	Addr     string `yaml:"addr"`
	Style    string `yaml:"style"`
	LogLevel string `yaml:"log_level"`
	// LogFile receives logs while the terminal host owns the screen.
	LogFile string `yaml:"log_file"`
	Watch   bool   `yaml:"watch"`
	Emoji   bool   `yaml:"emoji"`
	Widget  Widget `yaml:"widget"`
}

// Widget holds default widget props.
type Widget struct {
	SanitizeHTML    bool                   `yaml:"sanitize_html"`
	RTL             bool                   `yaml:"rtl"`
	LineBreaks      bool                   `yaml:"line_breaks"`
	HeaderLinks     bool                   `yaml:"header_links"`
	MinHeight       bool                   `yaml:"min_height"`
	LatexDelimiters []mathrender.Delimiter `yaml:"latex_delimiters"`
	ElemClasses     []string               `yaml:"elem_classes"`
}

func Default() Config {
	p := widget.DefaultProps()
	return Config{
		Addr:     "127.0.0.1:8600",
		Style:    highlight.DefaultStyle,
		LogLevel: "info",
		Watch:    true,
		Widget: Widget{
			SanitizeHTML:    p.SanitizeHTML,
			RTL:             p.RTL,
			LineBreaks:      p.LineBreaks,
			HeaderLinks:     p.HeaderLinks,
			MinHeight:       p.MinHeight,
			LatexDelimiters: p.LatexDelimiters,
		},
	}
}

// Load reads path over the defaults. An empty path returns the defaults.
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}

	f, err := os.Open(path)
	if err != nil {
		return cfg, errors.Wrap(err, "open config")
	}
	defer f.Close()

	dec := yaml.NewDecoder(f)
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
		return cfg, errors.Wrapf(err, "parse config %s", path)
	}
	if err := cfg.validate(); err != nil {
		return cfg, errors.Wrapf(err, "config %s", path)
	}
	return cfg, nil
}

func (c Config) validate() error {
	for _, d := range c.Widget.LatexDelimiters {
		if d.Left == "" || d.Right == "" {
			return errors.Errorf("latex delimiter %q: left and right are required", d.String())
		}
	}
	return nil
}

// Props returns widget props seeded from the configured defaults.
func (c Config) Props() widget.Props {
	p := widget.DefaultProps()
	p.SanitizeHTML = c.Widget.SanitizeHTML
	p.RTL = c.Widget.RTL
	p.LineBreaks = c.Widget.LineBreaks
	p.HeaderLinks = c.Widget.HeaderLinks
	p.MinHeight = c.Widget.MinHeight
	p.LatexDelimiters = append([]mathrender.Delimiter(nil), c.Widget.LatexDelimiters...)
	p.ElemClasses = append([]string(nil), c.Widget.ElemClasses...)
	return p
}
