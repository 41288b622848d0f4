package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"pkt.systems/hapticnote/internal/appconfig"
	"pkt.systems/hapticnote/internal/descriptor"
	"pkt.systems/hapticnote/schema"
)

var (
	labelStyle = lipgloss.NewStyle().Bold(true)
	dimStyle   = lipgloss.NewStyle().Faint(true)
)

func newClassifyCmd() *cobra.Command {
	var cfgPath string
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "classify <text>",
		Short: "Classify text offline and show the resulting color",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			text := strings.Join(args, " ")
			if strings.TrimSpace(text) == "" {
				return errors.New("text is required")
			}
			cfg, err := appconfig.Load(cfgPath)
			if err != nil {
				return err
			}
			gateway, err := loadLexicon(cmd.Context(), cfg.Lexicon)
			if err != nil {
				return err
			}
			result := newClassifier(gateway, cfg.Lexicon).Analyze(cmd.Context(), text)
			d := descriptor.ForEmotion(result.Emotion)
			if asJSON {
				tokens := make([]string, len(result.Tokens))
				for i, tok := range result.Tokens {
					tokens[i] = tok.Lemma
				}
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(schema.ClassifyResponse{
					Emotion: result.Emotion,
					Stage:   string(result.Stage),
					Tokens:  tokens,
					Scores:  result.Scores,
					Color:   d.ColorName,
				})
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), renderClassification(result.Emotion, string(result.Stage), d))
			return err
		},
	}
	cmd.Flags().StringVarP(&cfgPath, "config", "c", "", "path to config file")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print the full cascade result as JSON")
	return cmd
}

func renderClassification(e schema.Emotion, stage string, d schema.Descriptor) string {
	swatch := lipgloss.NewStyle().
		Background(lipgloss.Color(d.Color.Hex())).
		Render("    ")
	return fmt.Sprintf("%s %s %s %s",
		labelStyle.Render(string(e)),
		swatch,
		d.ColorName,
		dimStyle.Render(fmt.Sprintf("(%s, %d Hz)", stage, d.VibrationHz)),
	)
}
