package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"langcodec/internal/app"
	"langcodec/internal/codec"
	"langcodec/internal/config"
	"langcodec/internal/convert"
	"langcodec/internal/domain"
	"langcodec/internal/events"
	"langcodec/internal/formats"
)

func convertCmd() *cobra.Command {
	var conv config.Conversion
	var normalize bool
	cmd := &cobra.Command{
		Use:   "convert",
		Short: "Convert a localization file to another format",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := app.LoadConfig(viper.GetString("workspace"))
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("normalize") {
				conv.Normalize = &normalize
			}
			if err := runConversion(cfg, conv); err != nil {
				return err
			}
			cacheOutputs(cfg, conv.Output)
			recordEvent(cmd.Context(), events.TypeConvert, conv.Input, map[string]any{
				"output":    conv.Output,
				"normalize": conv.ShouldNormalize(cfg.Defaults.Normalize),
			})
			return nil
		},
	}
	cmd.Flags().StringVarP(&conv.Input, "input", "i", "", "input file")
	cmd.Flags().StringVarP(&conv.Output, "output", "o", "", "output file")
	cmd.Flags().StringVar(&conv.InputFormat, "input-format", "", "input format (android|strings|xcstrings|csv|tsv)")
	cmd.Flags().StringVar(&conv.OutputFormat, "output-format", "", "output format (android|strings|xcstrings|csv|tsv)")
	cmd.Flags().StringVar(&conv.Language, "lang", "", "language for single-language formats")
	cmd.Flags().BoolVar(&normalize, "normalize", false, "rewrite iOS placeholders (%@, %ld) to printf form")
	_ = cmd.MarkFlagRequired("input")
	_ = cmd.MarkFlagRequired("output")
	return cmd
}

func runConversion(cfg *config.Config, conv config.Conversion) error {
	inFmt, outFmt, err := conv.Formats()
	if err != nil {
		return err
	}
	return newConverter(cfg).ConvertWithNormalization(conv.Input, inFmt, conv.Output, outFmt, conv.ShouldNormalize(cfg.Defaults.Normalize))
}

func runCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run every conversion listed in the config",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(viper.GetString("workspace"))
			if err != nil {
				return err
			}
			type result struct {
				Input  string `json:"input"`
				Output string `json:"output"`
				OK     bool   `json:"ok"`
				Error  string `json:"error,omitempty"`
			}
			var results []result
			var written []string
			failed := 0
			for _, conv := range cfg.Conversions {
				r := result{Input: conv.Input, Output: conv.Output, OK: true}
				if err := runConversion(cfg, conv); err != nil {
					r.OK, r.Error = false, err.Error()
					failed++
				} else {
					written = append(written, conv.Output)
					recordEvent(cmd.Context(), events.TypeConvert, conv.Input, map[string]any{"output": conv.Output, "run": true})
				}
				results = append(results, r)
			}
			cacheOutputs(cfg, written...)
			if viper.GetBool("json") {
				if err := printJSON(results); err != nil {
					return err
				}
			} else {
				tw := table.NewWriter()
				tw.SetOutputMirror(os.Stdout)
				tw.AppendHeader(table.Row{"Input", "Output", "Result"})
				for _, r := range results {
					status := "ok"
					if !r.OK {
						status = r.Error
					}
					tw.AppendRow(table.Row{r.Input, r.Output, status})
				}
				tw.Render()
			}
			if failed > 0 {
				return fmt.Errorf("%d of %d conversions failed", failed, len(results))
			}
			return nil
		},
	}
	return cmd
}

func viewCmd() *cobra.Command {
	var lang, format string
	cmd := &cobra.Command{
		Use:   "view [FILE]",
		Short: "Show the entries of a localization file, or of the last conversion",
		Long:  "Without FILE, view reads the cache written by the last convert or run.",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var c *codec.Codec
			var err error
			if len(args) == 0 {
				var cfg *config.Config
				if cfg, err = app.LoadConfig(viper.GetString("workspace")); err != nil {
					return err
				}
				path := cachePath(cfg, viper.GetString("workspace"))
				if path == "" {
					return fmt.Errorf("no file given and cache.path is not configured")
				}
				c, err = codec.LoadFromFile(path, codec.WithLogger(nil))
			} else {
				c, err = loadCodec(args, format, "")
			}
			if err != nil {
				return err
			}
			var resources []domain.Resource
			for _, r := range c.Resources() {
				if lang == "" || r.HasLanguage(lang) {
					resources = append(resources, r)
				}
			}
			if viper.GetBool("json") {
				return printJSON(resources)
			}
			tw := table.NewWriter()
			tw.SetOutputMirror(os.Stdout)
			tw.AppendHeader(table.Row{"Key", "Language", "Status", "Value"})
			for _, r := range resources {
				for _, e := range r.Entries {
					tw.AppendRow(table.Row{e.ID, r.Metadata.Language, e.Status, formatValue(e.Value)})
				}
			}
			tw.Render()
			return nil
		},
	}
	cmd.Flags().StringVar(&lang, "lang", "", "only show this language")
	cmd.Flags().StringVar(&format, "format", "", "file format when the extension is ambiguous")
	return cmd
}

type languageStats struct {
	Language string                     `json:"language"`
	Total    int                        `json:"total"`
	ByStatus map[domain.EntryStatus]int `json:"by_status"`
}

func statsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "stats FILE...",
		Short: "Count entries per language and status",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := loadCodec(args, "", "")
			if err != nil {
				return err
			}
			var stats []languageStats
			for _, r := range c.Resources() {
				s := languageStats{Language: r.Metadata.Language, Total: len(r.Entries), ByStatus: map[domain.EntryStatus]int{}}
				for _, e := range r.Entries {
					s.ByStatus[e.Status]++
				}
				stats = append(stats, s)
			}
			if viper.GetBool("json") {
				return printJSON(stats)
			}
			header := table.Row{"Language", "Total"}
			for _, st := range domain.EntryStatuses() {
				header = append(header, string(st))
			}
			tw := table.NewWriter()
			tw.SetOutputMirror(os.Stdout)
			tw.AppendHeader(header)
			for _, s := range stats {
				row := table.Row{s.Language, s.Total}
				for _, st := range domain.EntryStatuses() {
					row = append(row, s.ByStatus[st])
				}
				tw.AppendRow(row)
			}
			tw.Render()
			return nil
		},
	}
	return cmd
}

func languagesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "languages FILE",
		Short: "List the languages of a localization file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := loadCodec(args, "", "")
			if err != nil {
				return err
			}
			if viper.GetBool("json") {
				return printJSON(c.Languages())
			}
			for _, l := range c.Languages() {
				fmt.Println(l)
			}
			return nil
		},
	}
	return cmd
}

func mergeCmd() *cobra.Command {
	var out, outputFormat, lang, strategy string
	cmd := &cobra.Command{
		Use:   "merge -o OUT IN...",
		Short: "Merge several files into one, per language",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			strat, err := domain.ParseConflictStrategy(strategy)
			if err != nil {
				return err
			}
			c, err := loadCodec(args, "", "")
			if err != nil {
				return err
			}
			merged, err := mergeByLanguage(c.Resources(), strat)
			if err != nil {
				return err
			}
			ft, err := resolveOutputFormat(out, outputFormat, lang)
			if err != nil {
				return err
			}
			cfg, err := app.LoadConfig(viper.GetString("workspace"))
			if err != nil {
				return err
			}
			if err := writeResources(newConverter(cfg), merged, out, ft); err != nil {
				return err
			}
			recordEvent(cmd.Context(), events.TypeMerge, out, map[string]any{
				"inputs":   args,
				"strategy": string(strat),
			})
			return nil
		},
	}
	cmd.Flags().StringVarP(&out, "output", "o", "", "output file")
	cmd.Flags().StringVar(&outputFormat, "output-format", "", "output format")
	cmd.Flags().StringVar(&lang, "lang", "", "language to write for single-language outputs")
	cmd.Flags().StringVar(&strategy, "strategy", string(domain.ConflictLast), "conflict strategy (first|last|skip)")
	_ = cmd.MarkFlagRequired("output")
	return cmd
}

// mergeByLanguage merges resources sharing a language, keeping first-seen
// language order.
func mergeByLanguage(resources []domain.Resource, strategy domain.ConflictStrategy) ([]domain.Resource, error) {
	var order []string
	groups := map[string][]domain.Resource{}
	for _, r := range resources {
		lang := r.Metadata.Language
		if _, ok := groups[lang]; !ok {
			order = append(order, lang)
		}
		groups[lang] = append(groups[lang], r)
	}
	out := make([]domain.Resource, 0, len(order))
	for _, lang := range order {
		m, err := convert.MergeResources(groups[lang], strategy)
		if err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, nil
}

func snapshotCmd() *cobra.Command {
	snap := &cobra.Command{
		Use:   "snapshot",
		Short: "Save and restore resource sets",
		Long:  "Snapshots keep a copy of every entry of one or more files in the workspace database so they can be compared or restored later.",
	}
	snap.AddCommand(snapshotSaveCmd())
	snap.AddCommand(snapshotListCmd())
	snap.AddCommand(snapshotShowCmd())
	snap.AddCommand(snapshotRestoreCmd())
	snap.AddCommand(snapshotDeleteCmd())
	return snap
}

func snapshotSaveCmd() *cobra.Command {
	var label string
	cmd := &cobra.Command{
		Use:   "save FILE...",
		Short: "Snapshot one or more files",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := loadCodec(args, "", "")
			if err != nil {
				return err
			}
			if label == "" {
				label = strings.Join(args, ",")
			}
			return withWorkspace(cmd.Context(), func(ctx context.Context, ws *app.Workspace) error {
				s, err := ws.Store.SaveSnapshot(ctx, label, c.Resources())
				if err != nil {
					return err
				}
				return printJSONOrTable(s)
			})
		},
	}
	cmd.Flags().StringVar(&label, "label", "", "snapshot label")
	return cmd
}

func snapshotListCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List snapshots",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withWorkspace(cmd.Context(), func(ctx context.Context, ws *app.Workspace) error {
				snaps, err := ws.Store.ListSnapshots(ctx)
				if err != nil {
					return err
				}
				if viper.GetBool("json") {
					return printJSON(snaps)
				}
				tw := table.NewWriter()
				tw.SetOutputMirror(os.Stdout)
				tw.AppendHeader(table.Row{"ID", "Label", "Created", "Languages", "Entries"})
				for _, s := range snaps {
					tw.AppendRow(table.Row{s.ID, s.Label, s.CreatedAt, strings.Join(s.Languages, ","), s.Entries})
				}
				tw.Render()
				return nil
			})
		},
	}
	return cmd
}

func snapshotShowCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "show ID",
		Short: "Show the entries of a snapshot",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withWorkspace(cmd.Context(), func(ctx context.Context, ws *app.Workspace) error {
				resources, err := ws.Store.LoadSnapshot(ctx, args[0])
				if err != nil {
					return err
				}
				if viper.GetBool("json") {
					return printJSON(resources)
				}
				tw := table.NewWriter()
				tw.SetOutputMirror(os.Stdout)
				tw.AppendHeader(table.Row{"Key", "Language", "Status", "Value"})
				for _, r := range resources {
					for _, e := range r.Entries {
						tw.AppendRow(table.Row{e.ID, r.Metadata.Language, e.Status, formatValue(e.Value)})
					}
				}
				tw.Render()
				return nil
			})
		},
	}
	return cmd
}

func snapshotRestoreCmd() *cobra.Command {
	var out, outputFormat, lang string
	cmd := &cobra.Command{
		Use:   "restore ID",
		Short: "Write a snapshot back to its source files, or to --output",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withWorkspace(cmd.Context(), func(ctx context.Context, ws *app.Workspace) error {
				resources, err := ws.Store.LoadSnapshot(ctx, args[0])
				if err != nil {
					return err
				}
				conv := newConverter(ws.Config)
				if out != "" {
					ft, err := resolveOutputFormat(out, outputFormat, lang)
					if err != nil {
						return err
					}
					if err := writeResources(conv, resources, out, ft); err != nil {
						return err
					}
				} else {
					c, err := codec.NewBuilder(codec.WithDefaults(convert.Defaults{
						SourceLanguage: ws.Config.Defaults.SourceLanguage,
						Version:        ws.Config.Defaults.Version,
					})).AddResources(resources...).Build()
					if err != nil {
						return err
					}
					if err := c.WriteToFile(); err != nil {
						return err
					}
				}
				return ws.Events.Record(ctx, events.TypeSnapshotRestore, args[0], events.EventPayload{"output": out})
			})
		},
	}
	cmd.Flags().StringVarP(&out, "output", "o", "", "write every resource to this file instead of the source files")
	cmd.Flags().StringVar(&outputFormat, "output-format", "", "output format")
	cmd.Flags().StringVar(&lang, "lang", "", "language to write for single-language outputs")
	return cmd
}

func snapshotDeleteCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "delete ID",
		Short: "Delete a snapshot",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withWorkspace(cmd.Context(), func(ctx context.Context, ws *app.Workspace) error {
				return ws.Store.DeleteSnapshot(ctx, args[0])
			})
		},
	}
	return cmd
}

// cachePath resolves cache.path against the workspace. Empty disables the cache.
func cachePath(cfg *config.Config, workspace string) string {
	if cfg.Cache.Path == "" {
		return ""
	}
	if filepath.IsAbs(cfg.Cache.Path) {
		return cfg.Cache.Path
	}
	return filepath.Join(workspace, cfg.Cache.Path)
}

// cacheOutputs stores the resources of the written files in the workspace
// cache. Failures are only logged.
func cacheOutputs(cfg *config.Config, outputs ...string) {
	path := cachePath(cfg, viper.GetString("workspace"))
	if path == "" || len(outputs) == 0 {
		return
	}
	if err := writeCache(path, outputs); err != nil {
		slog.Warn("cache not written", "path", path, "error", err)
	}
}

func writeCache(path string, outputs []string, opts ...codec.Option) error {
	b := codec.NewBuilder(append([]codec.Option{codec.WithLogger(nil)}, opts...)...)
	for _, out := range outputs {
		b.AddFile(out)
	}
	c, err := b.Build()
	if err != nil {
		return err
	}
	return c.CachePretty(path)
}

// loadCodec reads every path into one codec. An explicit format or language
// overrides inference.
func loadCodec(paths []string, format, lang string) (*codec.Codec, error) {
	b := codec.NewBuilder(codec.WithLogger(nil))
	for _, p := range paths {
		switch {
		case format != "":
			ft, err := formats.ParseFormatType(format)
			if err != nil {
				return nil, err
			}
			b.AddFileWithFormat(p, ft.WithLanguage(lang))
		case lang != "":
			b.ReadFileByExtension(p, lang)
		default:
			b.AddFile(p)
		}
	}
	return b.Build()
}

func resolveOutputFormat(out, explicit, lang string) (formats.FormatType, error) {
	var ft formats.FormatType
	if explicit != "" {
		parsed, err := formats.ParseFormatType(explicit)
		if err != nil {
			return ft, err
		}
		inferred, _ := formats.InferLanguageFromPath(out, parsed)
		ft = parsed.WithLanguage(inferred)
	} else {
		inferred, ok := formats.InferFormatFromPath(out)
		if !ok {
			return ft, domain.WithPath(domain.NewError(domain.CodeUnknownFormat, "cannot infer output format from extension"), out)
		}
		ft = inferred
	}
	if lang != "" {
		ft = ft.WithLanguage(lang)
	}
	return ft, nil
}

// writeResources writes all resources to multi-language outputs and the one
// matching the output language otherwise.
func writeResources(conv *convert.Converter, resources []domain.Resource, out string, ft formats.FormatType) error {
	if ft.IsMultiLanguage() {
		if ft.Kind == formats.Xcstrings {
			resources = conv.SeedCatalogMetadata(resources)
		}
		return conv.ConvertResourcesToFormat(resources, out, ft)
	}
	var picked *domain.Resource
	switch {
	case ft.Language != "":
		for i := range resources {
			if resources[i].HasLanguage(ft.Language) {
				picked = &resources[i]
				break
			}
		}
	case len(resources) == 1:
		picked = &resources[0]
	default:
		return domain.NewError(domain.CodeInvalidResource, "%d languages to write to a single-language file; pass --lang", len(resources))
	}
	if picked == nil {
		return domain.NewError(domain.CodeInvalidResource, "no resource for language %q", ft.Language)
	}
	return conv.ConvertResourcesToFormat([]domain.Resource{*picked}, out, ft)
}

func formatValue(t domain.Translation) string {
	switch t.Kind {
	case domain.TranslationSingular:
		return t.Text
	case domain.TranslationPlural:
		if t.Plural == nil {
			return ""
		}
		parts := make([]string, 0, len(t.Plural.Forms))
		for _, cat := range t.Plural.Categories() {
			parts = append(parts, fmt.Sprintf("%s: %s", cat, t.Plural.Forms[cat]))
		}
		return strings.Join(parts, "; ")
	}
	return ""
}
