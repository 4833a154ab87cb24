package datapack

import (
	"bytes"
	"fmt"

	"github.com/dave/jennifer/jen"
)

// GoSource renders a Go file in package pkg that embeds the pack. The file
// declares the pack metadata as constants, the pack files in Paths and
// Files, and a Write function that materializes them under a directory.
func (p *Pack) GoSource(pkg string) (string, error) {
	entries, err := p.Entries()
	if err != nil {
		return "", err
	}

	f := jen.NewFile(pkg)
	f.HeaderComment("Code generated by quill. DO NOT EDIT.")

	f.Const().Defs(
		jen.Id("Namespace").Op("=").Lit(p.Namespace),
		jen.Id("PackFormat").Op("=").Lit(int(p.Format)),
		jen.Id("PackDescription").Op("=").Lit(p.Description),
		jen.Id("Load").Op("=").Lit(p.Namespace+":"+p.Load),
	)
	f.Line()

	f.Comment("Paths lists the pack files in write order.")
	f.Var().Id("Paths").Op("=").Index().String().ValuesFunc(func(g *jen.Group) {
		for _, e := range entries {
			g.Line().Lit(e.Path)
		}
		g.Line()
	})
	f.Line()

	f.Comment("Files maps each pack path to its content.")
	f.Var().Id("Files").Op("=").Map(jen.String()).String().Values(jen.DictFunc(func(d jen.Dict) {
		for _, e := range entries {
			d[jen.Lit(e.Path)] = jen.Lit(e.Content)
		}
	}))
	f.Line()

	f.Comment("Write writes the pack under dir.")
	f.Func().Id("Write").Params(jen.Id("dir").String()).Error().Block(
		jen.For(jen.List(jen.Id("_"), jen.Id("name")).Op(":=").Range().Id("Paths")).Block(
			jen.Id("path").Op(":=").Qual("path/filepath", "Join").Call(
				jen.Id("dir"),
				jen.Qual("path/filepath", "FromSlash").Call(jen.Id("name")),
			),
			jen.If(
				jen.Err().Op(":=").Qual("os", "MkdirAll").Call(
					jen.Qual("path/filepath", "Dir").Call(jen.Id("path")),
					jen.Op("0o755"),
				),
				jen.Err().Op("!=").Nil(),
			).Block(jen.Return(jen.Err())),
			jen.If(
				jen.Err().Op(":=").Qual("os", "WriteFile").Call(
					jen.Id("path"),
					jen.Index().Byte().Call(jen.Id("Files").Index(jen.Id("name"))),
					jen.Op("0o644"),
				),
				jen.Err().Op("!=").Nil(),
			).Block(jen.Return(jen.Err())),
		),
		jen.Return(jen.Nil()),
	)

	buf := &bytes.Buffer{}
	if err := f.Render(buf); err != nil {
		return "", fmt.Errorf("rendering Go source: %w", err)
	}
	return buf.String(), nil
}
