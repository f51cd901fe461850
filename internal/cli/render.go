package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/matzehuels/textart/pkg/errors"
	"github.com/matzehuels/textart/pkg/imageio"
	"github.com/matzehuels/textart/pkg/palette"
	"github.com/matzehuels/textart/pkg/pipeline"
	"github.com/matzehuels/textart/pkg/sink"
)

// stdinName is the input argument that reads the image from standard input.
const stdinName = "-"

// optionFlags holds the generation flags shared by render and preview.
type optionFlags struct {
	width        int
	aspect       float64
	palette      string
	chars        string
	invert       bool
	maxDimension int
	filter       string
	luma         string
	alpha        string
}

// renderOpts holds the command-line flags for the render command.
type renderOpts struct {
	optionFlags
	formats string // comma-separated output formats
	output  string // output file, base path, or directory for several inputs
	noCache bool
	refresh bool
}

func addOptionFlags(cmd *cobra.Command, o *optionFlags) {
	f := cmd.Flags()
	f.IntVarP(&o.width, "width", "w", pipeline.DefaultWidth, "output width in columns")
	f.Float64VarP(&o.aspect, "aspect", "a", pipeline.DefaultAspectCorrection, "glyph aspect correction (cell width / height)")
	f.StringVarP(&o.palette, "palette", "p", "", "palette preset (see 'textart palettes')")
	f.StringVar(&o.chars, "chars", "", "custom glyph ramp, darkest first (overrides --palette)")
	f.BoolVarP(&o.invert, "invert", "i", false, "invert brightness (for light text on dark backgrounds)")
	f.IntVar(&o.maxDimension, "max-dimension", 0, "largest allowed output width or height (0 = default)")
	f.StringVar(&o.filter, "filter", "", "resampling filter: box (default), linear, catmullrom, lanczos, nearest")
	f.StringVar(&o.luma, "luma", "", "luminance weights: rec709 (default), rec601, lightness")
	f.StringVar(&o.alpha, "alpha", "", "transparent pixels: white (default), black, ignore")

	_ = cmd.RegisterFlagCompletionFunc("palette", fixedCompletion(palette.Names()...))
	_ = cmd.RegisterFlagCompletionFunc("filter", fixedCompletion("box", "linear", "catmullrom", "lanczos", "nearest"))
	_ = cmd.RegisterFlagCompletionFunc("luma", fixedCompletion("rec709", "rec601", "lightness"))
	_ = cmd.RegisterFlagCompletionFunc("alpha", fixedCompletion("white", "black", "ignore"))
}

// fixedCompletion completes a flag from a fixed list of values.
func fixedCompletion(values ...string) func(*cobra.Command, []string, string) ([]string, cobra.ShellCompDirective) {
	return func(*cobra.Command, []string, string) ([]string, cobra.ShellCompDirective) {
		return values, cobra.ShellCompDirectiveNoFileComp
	}
}

// applyTo overrides config defaults with every flag the user set explicitly.
func (o *optionFlags) applyTo(opts *pipeline.Options, changed func(string) bool) {
	if changed("width") {
		opts.Width = o.width
	}
	if changed("aspect") {
		opts.AspectCorrection = o.aspect
	}
	if changed("palette") {
		opts.Palette = o.palette
		opts.CustomPalette = ""
	}
	if changed("chars") {
		opts.CustomPalette = o.chars
	}
	if changed("invert") {
		opts.Invert = o.invert
	}
	if changed("max-dimension") {
		opts.MaxDimension = o.maxDimension
	}
	if changed("filter") {
		opts.Filter = o.filter
	}
	if changed("luma") {
		opts.Luma = o.luma
	}
	if changed("alpha") {
		opts.Alpha = o.alpha
	}
}

// renderCommand creates the render command.
func (c *CLI) renderCommand() *cobra.Command {
	var opts renderOpts

	cmd := &cobra.Command{
		Use:   "render <image>...",
		Short: "Convert images to text art",
		Long: `Convert one or more images to text art.

With a single input and text output, the art is written to stdout unless
--output is given. Other formats are written next to the input (or to
--output). Use "-" to read an image from stdin.`,
		Example: `  textart render photo.jpg
  textart render -w 120 -p blocks photo.png
  textart render -f text,png -o out/ a.png b.png
  curl -s https://example.com/cat.png | textart render -`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			popts := c.Config.pipelineOptions()
			opts.applyTo(&popts, cmd.Flags().Changed)
			if cmd.Flags().Changed("format") {
				popts.Formats = splitList(opts.formats)
			}
			popts.Refresh = opts.refresh
			if err := popts.ValidateAndSetDefaults(); err != nil {
				return err
			}
			return c.runRender(cmd.Context(), args, popts, &opts)
		},
	}

	addOptionFlags(cmd, &opts.optionFlags)
	cmd.Flags().StringVarP(&opts.formats, "format", "f", "", "output format(s): text (default), json, png (comma-separated)")
	cmd.Flags().StringVarP(&opts.output, "output", "o", "", "output file (single format), base path, or directory (several inputs)")
	cmd.Flags().BoolVar(&opts.noCache, "no-cache", false, "disable caching")
	cmd.Flags().BoolVar(&opts.refresh, "refresh", false, "ignore cached results and regenerate")
	_ = cmd.RegisterFlagCompletionFunc("format", fixedCompletion(formatNames()...))

	return cmd
}

// runRender converts every input, stopping at the first failure.
func (c *CLI) runRender(ctx context.Context, inputs []string, popts pipeline.Options, opts *renderOpts) error {
	runner, err := c.newRunner(ctx, opts.noCache)
	if err != nil {
		return err
	}
	defer runner.Close()

	toStdout := opts.output == "" && len(inputs) == 1 &&
		len(popts.Formats) == 1 && popts.Formats[0] == string(sink.FormatText)
	prog := newProgress(c.Logger)

	for _, input := range inputs {
		data, err := readImage(input)
		if err != nil {
			return err
		}

		if toStdout {
			result, err := runner.Execute(ctx, data, popts)
			if err != nil {
				return err
			}
			_, err = c.stdout.Write(result.Artifacts[string(sink.FormatText)])
			return err
		}

		spin := newSpinner(ctx, c.status, "Converting "+input)
		spin.Start()
		result, err := runner.Execute(ctx, data, popts)
		if err != nil {
			if spin.Cancelled() {
				spin.Stop()
				return err
			}
			spin.StopWithError(fmt.Sprintf("%s: %s", input, errors.UserMessage(err)))
			return err
		}
		spin.StopWithSuccess("Converted " + input)

		paths, err := writeArtifacts(result, input, opts.output, popts.Formats, len(inputs) > 1)
		if err != nil {
			return err
		}
		for _, p := range paths {
			c.status.file(p)
		}
		c.status.stats(result.Stats.Columns, result.Stats.Rows, popts.PaletteLabel(), result.CacheInfo.ArtHit)
	}

	prog.done(fmt.Sprintf("converted %d image(s)", len(inputs)))
	return nil
}

// readImage reads an input file, or stdin for "-".
func readImage(path string) ([]byte, error) {
	if path == stdinName {
		data, err := io.ReadAll(os.Stdin)
		if err != nil {
			return nil, errors.Wrap(errors.ErrCodeInvalidInput, err, "read stdin")
		}
		return data, nil
	}
	return imageio.ReadFile(path)
}

// writeArtifacts writes each rendered format and returns the paths written.
func writeArtifacts(result *pipeline.Result, input, output string, formats []string, multi bool) ([]string, error) {
	paths := make([]string, 0, len(formats))
	for _, name := range formats {
		f := sink.Format(name)
		path := outputPath(input, output, f, len(formats) == 1, multi)
		if dir := filepath.Dir(path); dir != "." {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return paths, fmt.Errorf("create %s: %w", dir, err)
			}
		}
		if err := os.WriteFile(path, result.Artifacts[name], 0o644); err != nil {
			return paths, fmt.Errorf("write %s: %w", path, err)
		}
		paths = append(paths, path)
	}
	return paths, nil
}

// outputPath picks the file for one format.
//
//   - several inputs with --output: output is a directory
//   - no --output: next to the input, with the format's extension, never
//     overwriting the input itself
//   - one format and an --output with an extension: output as given
//   - otherwise: --output without its extension plus the format's extension
func outputPath(input, output string, f sink.Format, single, multi bool) string {
	switch {
	case multi && output != "":
		return filepath.Join(output, stem(input)+"."+f.Extension())
	case output == "":
		path := basePath(input) + "." + f.Extension()
		if path == input {
			path = basePath(input) + "." + appName + "." + f.Extension()
		}
		return path
	case single && filepath.Ext(output) != "":
		return output
	default:
		return basePath(output) + "." + f.Extension()
	}
}

// basePath strips the file extension. Stdin maps to "stdin".
func basePath(path string) string {
	if path == stdinName {
		return "stdin"
	}
	return strings.TrimSuffix(path, filepath.Ext(path))
}

func stem(input string) string {
	return filepath.Base(basePath(input))
}

func formatNames() []string {
	names := make([]string, len(sink.Formats))
	for i, f := range sink.Formats {
		names[i] = string(f)
	}
	return names
}

// splitList parses a comma-separated flag value.
func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
