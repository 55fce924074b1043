package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/spf13/cobra"

	"condo-extract/api/internal/app"
	"condo-extract/api/internal/export"
	"condo-extract/api/internal/pipeline"
	"condo-extract/api/internal/record"
	"condo-extract/api/internal/util"
)

type processOpts struct {
	format string
	outDir string
	diag   bool
}

func newProcessCmd(c *cli) *cobra.Command {
	o := &processOpts{}
	cmd := &cobra.Command{
		Use:   "process <file-or-glob>...",
		Short: "Extract units from local PDF files",
		Example: `  condo process lista.pdf
  condo process 'docs/**/*.pdf' --format csv --out ./out`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if o.format != "json" && o.format != "csv" {
				return fmt.Errorf("unknown format %q (json|csv)", o.format)
			}
			files, err := expandPatterns(args)
			if err != nil {
				return err
			}
			if len(files) == 0 {
				return fmt.Errorf("no PDF files match %s", strings.Join(args, " "))
			}

			docs := make([]pipeline.Document, 0, len(files))
			for _, f := range files {
				b, err := os.ReadFile(f)
				if err != nil {
					return err
				}
				docs = append(docs, pipeline.Document{Name: f, Data: b})
			}

			a, cleanup, err := app.Build(cmd.Context(), c.cfg, c.log)
			if err != nil {
				return err
			}
			defer cleanup()

			results := a.Pipeline.ProcessBatch(cmd.Context(), docs)
			return o.write(cmd.OutOrStdout(), results)
		},
	}
	cmd.Flags().StringVarP(&o.format, "format", "f", "json", "output format: json or csv")
	cmd.Flags().StringVarP(&o.outDir, "out", "o", "", "write one file per document into this directory")
	cmd.Flags().BoolVar(&o.diag, "diagnostics", false, "include ambiguities and conflicts in JSON output")
	return cmd
}

// expandPatterns resolves ** globs and plain paths, keeping .pdf files only,
// deduplicated in first-seen order.
func expandPatterns(patterns []string) ([]string, error) {
	seen := map[string]bool{}
	var out []string
	for _, p := range patterns {
		matches, err := doublestar.FilepathGlob(p)
		if err != nil {
			return nil, fmt.Errorf("pattern %q: %w", p, err)
		}
		for _, m := range matches {
			if !util.HasPDFExt(m) || seen[m] {
				continue
			}
			if fi, err := os.Stat(m); err != nil || fi.IsDir() {
				continue
			}
			seen[m] = true
			out = append(out, m)
		}
	}
	return out, nil
}

type docOutput struct {
	File        string                `json:"file"`
	Success     bool                  `json:"success"`
	RunID       string                `json:"run_id,omitempty"`
	Unidades    []record.UnitRecord   `json:"unidades,omitempty"`
	Total       int                   `json:"total"`
	Condominio  string                `json:"condominio,omitempty"`
	Detail      string                `json:"detail,omitempty"`
	Diagnostics *pipeline.Diagnostics `json:"diagnostics,omitempty"`
}

func (o *processOpts) write(stdout io.Writer, results []pipeline.BatchResult) error {
	if o.outDir != "" {
		if err := os.MkdirAll(o.outDir, 0o755); err != nil {
			return err
		}
	}

	failed := 0
	used := map[string]bool{}
	for _, r := range results {
		if r.Err != nil {
			failed++
		}
		w := stdout
		var f *os.File
		if o.outDir != "" {
			if r.Err != nil && o.format == "csv" {
				continue
			}
			var err error
			f, err = os.Create(uniqueOutputPath(o.outDir, r.Name, o.format, used))
			if err != nil {
				return err
			}
			w = f
		}
		err := o.render(w, r)
		if f != nil {
			if cerr := f.Close(); err == nil {
				err = cerr
			}
		}
		if err != nil {
			return err
		}
	}
	if failed > 0 {
		return fmt.Errorf("%d of %d documents failed", failed, len(results))
	}
	return nil
}

func (o *processOpts) render(w io.Writer, r pipeline.BatchResult) error {
	if o.format == "csv" {
		if r.Err != nil {
			fmt.Fprintf(os.Stderr, "%s: Erro ao processar PDF: %v\n", r.Name, r.Err)
			return nil
		}
		return export.WriteCSV(w, r.Result.Document)
	}

	out := docOutput{File: r.Name}
	if r.Err != nil {
		out.Detail = "Erro ao processar PDF: " + r.Err.Error()
	} else {
		out.Success = true
		out.RunID = r.Result.RunID
		out.Unidades = r.Result.Document.Units
		out.Total = r.Result.Document.TotalUnits
		out.Condominio = r.Result.Document.CondominiumName
		if o.diag {
			out.Diagnostics = &r.Result.Diagnostics
		}
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(out)
}

func outputPath(dir, name, format string) string {
	base := strings.TrimSuffix(filepath.Base(name), filepath.Ext(name))
	return filepath.Join(dir, base+"."+format)
}

// uniqueOutputPath is outputPath with a numeric suffix when another document
// of the run already took the name: a/lista.pdf, b/lista.pdf -> lista.json, lista-2.json.
func uniqueOutputPath(dir, name, format string, used map[string]bool) string {
	p := outputPath(dir, name, format)
	base := strings.TrimSuffix(p, "."+format)
	for n := 2; used[p]; n++ {
		p = fmt.Sprintf("%s-%d.%s", base, n, format)
	}
	used[p] = true
	return p
}
