package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"slices"

	"github.com/spf13/cobra"

	"github.com/dgallion1/texchunk/internal/doctree"
	"github.com/dgallion1/texchunk/internal/extract"
	"github.com/dgallion1/texchunk/internal/generate"
	"github.com/dgallion1/texchunk/internal/pipeline"
	"github.com/dgallion1/texchunk/internal/registry"
)

var version = "0.1.0"

func main() {
	rootCmd := &cobra.Command{
		Use:   "texchunk",
		Short: "Split resumes into reorderable chunks",
		Long: `texchunk parses a LaTeX resume (or a PDF, DOCX, Markdown, HTML or
text export of one) into section and item chunks, and rebuilds LaTeX
from the chunks you keep, in the order you choose.`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "Log parser decisions to stderr")
	rootCmd.PersistentFlags().Bool("pdftotext", true, "Fall back to pdftotext when PDF extraction fails")

	rootCmd.AddCommand(chunksCmd())
	rootCmd.AddCommand(rebuildCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func chunksCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "chunks <file>",
		Short: "Print the chunks parsed from a resume as JSON",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			doc, err := load(cmd, args[0])
			if err != nil {
				return err
			}
			full, _ := cmd.Flags().GetBool("document")

			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			if full {
				return enc.Encode(doc)
			}
			return enc.Encode(doc.Chunks)
		},
	}
	cmd.Flags().Bool("document", false, "Include preamble, packages and lead")
	return cmd
}

func rebuildCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "rebuild <file>",
		Short: "Regenerate LaTeX after dropping or promoting chunks",
		Long: `Rebuild parses the file, moves every --drop chunk to standby,
moves the --first chunks to the front of the document in the order given,
and prints the regenerated LaTeX. An id cannot be given to both flags.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			doc, err := load(cmd, args[0])
			if err != nil {
				return err
			}
			drop, _ := cmd.Flags().GetStringSlice("drop")
			first, _ := cmd.Flags().GetStringSlice("first")
			output, _ := cmd.Flags().GetString("output")

			src, err := rebuild(doc, drop, first)
			if err != nil {
				return err
			}

			if output == "" {
				_, err = io.WriteString(cmd.OutOrStdout(), src)
				return err
			}
			return writeFile(output, src)
		},
	}
	cmd.Flags().StringSlice("drop", []string{}, "Chunk ids to move to standby")
	cmd.Flags().StringSlice("first", []string{}, "Chunk ids to move to the front, in order")
	cmd.Flags().StringP("output", "o", "", "Write LaTeX to this file instead of stdout")
	return cmd
}

// rebuild applies drops, then promotions, and regenerates the document. An id
// may not be both dropped and promoted.
func rebuild(doc *doctree.Document, drop, first []string) (string, error) {
	for _, id := range first {
		if slices.Contains(drop, id) {
			return "", fmt.Errorf("%s is in both --drop and --first", id)
		}
	}
	reg := registry.New()
	if err := reg.ReplaceAll(doc); err != nil {
		return "", err
	}
	for _, id := range drop {
		if err := reg.SetActive(id, false); err != nil {
			return "", fmt.Errorf("drop: %w", err)
		}
	}
	for i, id := range first {
		if err := reg.Reorder(id, i); err != nil {
			return "", fmt.Errorf("first: %w", err)
		}
	}
	return generate.Generate(reg.Document()), nil
}

func writeFile(path, src string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create output: %w", err)
	}
	if _, err := io.WriteString(f, src); err != nil {
		f.Close()
		return fmt.Errorf("write output: %w", err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("close output: %w", err)
	}
	return nil
}

func load(cmd *cobra.Command, path string) (*doctree.Document, error) {
	verbose, _ := cmd.Flags().GetBool("verbose")
	pdftotext, _ := cmd.Flags().GetBool("pdftotext")

	level := slog.LevelWarn
	if verbose {
		level = slog.LevelDebug
	}
	log := slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: level}))

	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	im := pipeline.NewImporter(extract.Options{PDFFallbackPdftotext: pdftotext}, nil, log)
	doc, err := im.Import(context.Background(), f, filepath.Base(path))
	if err != nil {
		return nil, err
	}
	log.Debug("loaded", "file", path, "chunks", len(doc.Chunks))
	return doc, nil
}
