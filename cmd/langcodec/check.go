package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"langcodec/internal/app"
	"langcodec/internal/domain"
	"langcodec/internal/placeholder"
)

type placeholderIssue struct {
	Key      string   `json:"key"`
	Language string   `json:"language"`
	Form     string   `json:"form,omitempty"`
	Want     []string `json:"want"`
	Got      []string `json:"got"`
}

func checkCmd() *cobra.Command {
	var source string
	cmd := &cobra.Command{
		Use:   "check FILE...",
		Short: "Check that translations keep the placeholders of the source language",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if source == "" {
				cfg, err := app.LoadConfig(viper.GetString("workspace"))
				if err != nil {
					return err
				}
				source = cfg.Defaults.SourceLanguage
			}
			c, err := loadCodec(args, "", "")
			if err != nil {
				return err
			}
			issues := placeholderIssues(c.Resources(), source)
			if viper.GetBool("json") {
				if err := printJSON(issues); err != nil {
					return err
				}
			} else if len(issues) > 0 {
				tw := table.NewWriter()
				tw.SetOutputMirror(os.Stdout)
				tw.AppendHeader(table.Row{"Key", "Language", "Form", "Expected", "Found"})
				for _, is := range issues {
					tw.AppendRow(table.Row{is.Key, is.Language, is.Form, strings.Join(is.Want, " "), strings.Join(is.Got, " ")})
				}
				tw.Render()
			}
			if len(issues) > 0 {
				return fmt.Errorf("%d placeholder mismatches", len(issues))
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&source, "source", "", "source language (default from config)")
	return cmd
}

// placeholderIssues compares every translation with the source-language entry
// of the same key. Plural forms are compared per category, or against a
// singular source. Empty values are skipped.
func placeholderIssues(resources []domain.Resource, source string) []placeholderIssue {
	var src *domain.Resource
	for i := range resources {
		if resources[i].HasLanguage(source) {
			src = &resources[i]
			break
		}
	}
	if src == nil {
		return nil
	}
	var issues []placeholderIssue
	for _, r := range resources {
		if r.HasLanguage(source) {
			continue
		}
		for _, e := range r.Entries {
			ref := src.FindEntry(e.ID)
			if ref == nil {
				continue
			}
			for _, pair := range comparableForms(ref.Value, e.Value) {
				if pair.got == "" || placeholder.SameSignature(pair.want, pair.got) {
					continue
				}
				issues = append(issues, placeholderIssue{
					Key:      e.ID,
					Language: r.Metadata.Language,
					Form:     pair.form,
					Want:     placeholder.Signature(pair.want),
					Got:      placeholder.Signature(pair.got),
				})
			}
		}
	}
	return issues
}

type formPair struct {
	form      string
	want, got string
}

func comparableForms(ref, tr domain.Translation) []formPair {
	switch tr.Kind {
	case domain.TranslationSingular:
		if ref.Kind == domain.TranslationSingular {
			return []formPair{{want: ref.Text, got: tr.Text}}
		}
	case domain.TranslationPlural:
		if tr.Plural == nil {
			return nil
		}
		var out []formPair
		for _, cat := range tr.Plural.Categories() {
			got := tr.Plural.Forms[cat]
			switch ref.Kind {
			case domain.TranslationSingular:
				out = append(out, formPair{form: cat.String(), want: ref.Text, got: got})
			case domain.TranslationPlural:
				if ref.Plural == nil {
					continue
				}
				if want, ok := ref.Plural.Forms[cat]; ok {
					out = append(out, formPair{form: cat.String(), want: want, got: got})
				}
			}
		}
		return out
	}
	return nil
}
