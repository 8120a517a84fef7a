// Command blockmatch reports matching block keyword pairs (if/end,
// begin/end, do/done, tell/end tell, and so on) for one of the supported
// languages.
package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sort"

	"github.com/fsnotify/fsnotify"
	"github.com/fxamacker/cbor/v2"
	"github.com/lithammer/fuzzysearch/fuzzy"
	"github.com/spf13/cobra"

	"github.com/opal-lang/blockmatch"
)

func main() {
	var (
		langName string
		format   string
		watch    bool
	)

	rootCmd := &cobra.Command{
		Use:           "blockmatch <file>",
		Short:         "Report matching block keyword pairs in a source file",
		Args:          cobra.ExactArgs(1),
		SilenceErrors: true,
		SilenceUsage:  true,
		RunE: func(cmd *cobra.Command, args []string) error {
			file := args[0]
			lang, err := resolveLanguage(langName)
			if err != nil {
				return err
			}

			if !watch {
				return runOnce(cmd, file, lang, format)
			}
			return runWatch(cmd, file, lang, format)
		},
	}

	rootCmd.Flags().StringVarP(&langName, "lang", "l", "", "language to parse (required)")
	rootCmd.Flags().StringVarP(&format, "format", "f", "text", "output format: text, json, or cbor")
	rootCmd.Flags().BoolVarP(&watch, "watch", "w", false, "re-run on every change to the file")
	_ = rootCmd.MarkFlagRequired("lang")

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "blockmatch: %v\n", err)
		os.Exit(1)
	}
}

// resolveLanguage validates langName against the registered tags, using
// fuzzy matching to suggest a correction on a typo rather than just
// rejecting it.
func resolveLanguage(langName string) (blockmatch.Language, error) {
	for _, tag := range blockmatch.Languages() {
		if string(tag) == langName {
			return tag, nil
		}
	}

	names := make([]string, 0, len(blockmatch.Languages()))
	for _, tag := range blockmatch.Languages() {
		names = append(names, string(tag))
	}
	if match := fuzzy.RankFindFold(langName, names); len(match) > 0 {
		sort.Sort(match)
		return "", fmt.Errorf("unknown language %q, did you mean %q?", langName, match[0].Target)
	}
	return "", fmt.Errorf("unknown language %q (supported: %v)", langName, names)
}

func runOnce(cmd *cobra.Command, file string, lang blockmatch.Language, format string) error {
	source, err := os.ReadFile(file)
	if err != nil {
		return fmt.Errorf("reading %s: %w", file, err)
	}
	pairs, err := blockmatch.Parse(source, lang)
	if err != nil {
		return err
	}
	return writePairs(cmd.OutOrStdout(), pairs, format)
}

// runWatch re-parses file every time fsnotify reports a write to it,
// printing the updated pair list to stdout until the process is
// interrupted.
func runWatch(cmd *cobra.Command, file string, lang blockmatch.Language, format string) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("starting watcher: %w", err)
	}
	defer watcher.Close()

	if err := watcher.Add(file); err != nil {
		return fmt.Errorf("watching %s: %w", file, err)
	}

	if err := runOnce(cmd, file, lang, format); err != nil {
		fmt.Fprintf(cmd.ErrOrStderr(), "blockmatch: %v\n", err)
	}

	for {
		select {
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if event.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				continue
			}
			if err := runOnce(cmd, file, lang, format); err != nil {
				fmt.Fprintf(cmd.ErrOrStderr(), "blockmatch: %v\n", err)
			}
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			fmt.Fprintf(cmd.ErrOrStderr(), "blockmatch: watch error: %v\n", err)
		}
	}
}

func writePairs(w io.Writer, pairs []blockmatch.BlockPair, format string) error {
	switch format {
	case "text":
		for _, p := range pairs {
			fmt.Fprintf(w, "%s (%d:%d) .. %s (%d:%d) nest=%d\n",
				p.Open.Text, p.Open.Pos.Line+1, p.Open.Pos.Column+1,
				p.Close.Text, p.Close.Pos.Line+1, p.Close.Pos.Column+1,
				p.Nest)
		}
		return nil
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(pairs)
	case "cbor":
		encMode, err := cbor.CanonicalEncOptions().EncMode()
		if err != nil {
			return fmt.Errorf("configuring CBOR encoder: %w", err)
		}
		data, err := encMode.Marshal(pairs)
		if err != nil {
			return fmt.Errorf("CBOR encoding failed: %w", err)
		}
		_, err = w.Write(data)
		return err
	default:
		return fmt.Errorf("unsupported format %q (use text, json, or cbor)", format)
	}
}
