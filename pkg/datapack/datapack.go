// Package datapack assembles generated function files into a datapack,
// either on disk or as Go source that embeds one.
package datapack

import (
	"encoding/json"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/chazu/quill/pkg/codegen"
)

// Pack is a complete datapack held in memory.
type Pack struct {
	Namespace   string
	Format      int32
	Description string

	// Functions maps a function name to its commands.
	Functions map[string][]string

	// Order lists function names in the order they were generated.
	Order []string

	// Load names the function run when the pack is loaded.
	Load string
}

// Entry is one file of a pack, addressed by its slash-separated path
// relative to the pack root.
type Entry struct {
	Path    string
	Content string
}

// New builds a pack from a generation result. The result must define the
// pack_format and pack_description variables.
func New(ns string, res *codegen.Result) (*Pack, error) {
	format, desc, err := res.PackMeta()
	if err != nil {
		return nil, err
	}
	return &Pack{
		Namespace:   ns,
		Format:      format,
		Description: desc,
		Functions:   res.Files,
		Order:       res.Order,
		Load:        res.Root(),
	}, nil
}

type meta struct {
	Pack struct {
		PackFormat  int32  `json:"pack_format"`
		Description string `json:"description"`
	} `json:"pack"`
}

type tag struct {
	Values []string `json:"values"`
}

// Meta renders pack.mcmeta.
func (p *Pack) Meta() ([]byte, error) {
	var m meta
	m.Pack.PackFormat = p.Format
	m.Pack.Description = p.Description
	return marshal(m)
}

// LoadTag renders the function tag that runs the load function.
func (p *Pack) LoadTag() ([]byte, error) {
	return marshal(tag{Values: []string{p.Namespace + ":" + p.Load}})
}

func marshal(v interface{}) ([]byte, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, err
	}
	return append(data, '\n'), nil
}

// FunctionPath returns the path of a function file relative to the pack root.
func (p *Pack) FunctionPath(name string) string {
	return path.Join("data", p.Namespace, "functions", name+".mcfunction")
}

// Entries lists every file of the pack: metadata first, then the load tag,
// then the functions in generation order.
func (p *Pack) Entries() ([]Entry, error) {
	mcmeta, err := p.Meta()
	if err != nil {
		return nil, fmt.Errorf("rendering pack.mcmeta: %w", err)
	}
	load, err := p.LoadTag()
	if err != nil {
		return nil, fmt.Errorf("rendering load tag: %w", err)
	}

	entries := []Entry{
		{Path: "pack.mcmeta", Content: string(mcmeta)},
		{Path: "data/minecraft/tags/functions/load.json", Content: string(load)},
	}
	for _, name := range p.Order {
		entries = append(entries, Entry{
			Path:    p.FunctionPath(name),
			Content: renderFunction(p.Functions[name]),
		})
	}
	return entries, nil
}

func renderFunction(lines []string) string {
	if len(lines) == 0 {
		return ""
	}
	return strings.Join(lines, "\n") + "\n"
}

// Write writes the pack under dir, creating directories as needed.
// Existing files with the same paths are overwritten.
func (p *Pack) Write(dir string) error {
	entries, err := p.Entries()
	if err != nil {
		return err
	}
	for _, e := range entries {
		target := filepath.Join(dir, filepath.FromSlash(e.Path))
		if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
			return fmt.Errorf("creating %s: %w", filepath.Dir(target), err)
		}
		if err := os.WriteFile(target, []byte(e.Content), 0o644); err != nil {
			return fmt.Errorf("writing %s: %w", target, err)
		}
	}
	return nil
}

// Stats summarizes the size of a pack.
type Stats struct {
	Functions int
	Commands  int
}

// Stats counts the functions and commands in the pack.
func (p *Pack) Stats() Stats {
	s := Stats{Functions: len(p.Order)}
	for _, name := range p.Order {
		s.Commands += len(p.Functions[name])
	}
	return s
}
