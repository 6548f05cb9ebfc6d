package main

import (
	"flag"
	"os"
	"strconv"
	"strings"

	"github.com/npillmayer/schuko/schukonf/testconfig"
	"github.com/npillmayer/schuko/tracing"
	"github.com/npillmayer/schuko/tracing/gologadapter"
	"github.com/npillmayer/schuko/tracing/trace2go"
	"github.com/npillmayer/ufomerge/core"
	"github.com/npillmayer/ufomerge/core/ufo"
	"github.com/npillmayer/ufomerge/core/ufo/ufodir"
	"github.com/npillmayer/ufomerge/merge"
	"github.com/pterm/pterm"
)

// tracer traces with key 'ufomerge.merge'
func tracer() tracing.Trace {
	return tracing.Select("ufomerge.merge")
}

func main() {
	initDisplay()

	// set up logging
	tracing.RegisterTraceAdapter("go", gologadapter.GetAdapter(), false)
	conf := testconfig.Conf{
		"tracing.adapter":      "go",
		"trace.ufomerge.merge": "Info",
		"trace.ufomerge.ufo":   "Error",
	}
	if err := trace2go.ConfigureRoot(conf, "trace", trace2go.ReplaceTracers(true)); err != nil {
		core.UserError(core.ErrorWithCode(err, core.EINTERNAL))
		os.Exit(core.EINTERNAL)
	}
	tracing.SetTraceSelector(trace2go.Selector())

	opts := parseFlags()
	if opts.verbose {
		tracing.Select("ufomerge.merge").SetTraceLevel(tracing.LevelDebug)
		tracing.Select("ufomerge.ufo").SetTraceLevel(tracing.LevelDebug)
	}
	if err := run(opts); err != nil {
		tracer().Errorf(err.Error())
		pterm.Error.Println(core.UserMessage(err))
		os.Exit(core.Code(err))
	}
}

// We use pterm for moderately fancy output.
func initDisplay() {
	pterm.Info.Prefix = pterm.Prefix{
		Text:  " !  ",
		Style: pterm.NewStyle(pterm.BgCyan, pterm.FgBlack),
	}
	pterm.Error.Prefix = pterm.Prefix{
		Text:  " Error",
		Style: pterm.NewStyle(pterm.BgRed, pterm.FgBlack),
	}
}

type options struct {
	glyphs         string
	glyphsFile     string
	codepoints     string
	codepointsFile string
	exclude        string
	excludeFile    string
	skip           bool
	replace        bool
	subset         bool
	closure        bool
	ignore         bool
	scale          bool
	output         string
	verbose        bool
	recipient      string
	donor          string
}

func parseFlags() *options {
	opts := &options{}
	flag.StringVar(&opts.glyphs, "g", "", "Glyph names to merge, comma-separated, trailing * matches by prefix")
	flag.StringVar(&opts.glyphs, "glyphs", "", "Glyph names to merge, comma-separated, trailing * matches by prefix")
	flag.StringVar(&opts.glyphsFile, "G", "", "File with glyph names to merge, one per line")
	flag.StringVar(&opts.glyphsFile, "glyphs-file", "", "File with glyph names to merge, one per line")
	flag.StringVar(&opts.codepoints, "u", "", "Codepoints to merge, comma-separated (U+0301, 0x301 or decimal)")
	flag.StringVar(&opts.codepoints, "codepoints", "", "Codepoints to merge, comma-separated (U+0301, 0x301 or decimal)")
	flag.StringVar(&opts.codepointsFile, "U", "", "File with codepoints to merge, one per line")
	flag.StringVar(&opts.codepointsFile, "codepoints-file", "", "File with codepoints to merge, one per line")
	flag.StringVar(&opts.exclude, "x", "", "Glyph names to exclude from the selection, comma-separated")
	flag.StringVar(&opts.exclude, "exclude", "", "Glyph names to exclude from the selection, comma-separated")
	flag.StringVar(&opts.excludeFile, "X", "", "File with glyph names to exclude, one per line")
	flag.StringVar(&opts.excludeFile, "exclude-file", "", "File with glyph names to exclude, one per line")
	flag.BoolVar(&opts.skip, "skip-existing", false, "Keep the recipient's version of glyphs both fonts have (default)")
	flag.BoolVar(&opts.replace, "replace-existing", false, "Overwrite glyphs both fonts have with the donor's version")
	flag.BoolVar(&opts.subset, "subset-layout", false, "Merge the layout rules expressible in the merged set (default)")
	flag.BoolVar(&opts.closure, "layout-closure", false, "Additionally merge glyphs reachable through layout rules")
	flag.BoolVar(&opts.ignore, "ignore-layout", false, "Merge no layout rules at all")
	flag.BoolVar(&opts.scale, "scale-to-upm", false, "Scale the donor to the recipient's units per em first")
	flag.StringVar(&opts.output, "o", "", "Output path (default: rewrite the recipient in place)")
	flag.StringVar(&opts.output, "output", "", "Output path (default: rewrite the recipient in place)")
	flag.BoolVar(&opts.verbose, "v", false, "Verbose tracing")
	flag.Parse()
	if flag.NArg() != 2 {
		pterm.Error.Println("usage: ufomerge [flags] RECIPIENT.ufo DONOR.ufo")
		flag.PrintDefaults()
		os.Exit(core.EINVALID)
	}
	opts.recipient = flag.Arg(0)
	opts.donor = flag.Arg(1)
	return opts
}

func run(opts *options) error {
	policy, err := merge.PolicyFromFlags(opts.skip, opts.replace, opts.subset, opts.closure, opts.ignore)
	if err != nil {
		return err
	}
	sel, err := buildSelection(opts)
	if err != nil {
		return err
	}
	recipient, err := ufodir.Read(opts.recipient)
	if err != nil {
		return err
	}
	donor, err := ufodir.Read(opts.donor)
	if err != nil {
		return err
	}
	if opts.scale && donor.Info.UnitsPerEm != recipient.Info.UnitsPerEm {
		if donor.Info.UnitsPerEm <= 0 {
			return core.Error(core.EINVALID, "donor has units per em of %v, cannot scale",
				donor.Info.UnitsPerEm)
		}
		factor := recipient.Info.UnitsPerEm / donor.Info.UnitsPerEm
		tracer().Infof("scaling donor by %.4f to %v units per em", factor, recipient.Info.UnitsPerEm)
		ufo.Scale(donor, factor)
	}
	if err := merge.Merge(recipient, donor, sel, policy); err != nil {
		return err
	}
	output := opts.output
	if output == "" {
		output = opts.recipient
	}
	if err := ufodir.Write(recipient, output); err != nil {
		return err
	}
	pterm.Info.Printfln("%s now has %d glyphs", output, recipient.NumGlyphs())
	return nil
}

func buildSelection(opts *options) (merge.GlyphSelection, error) {
	var sel merge.GlyphSelection
	sel.Names = splitList(opts.glyphs)
	if opts.glyphsFile != "" {
		names, err := readLines(opts.glyphsFile)
		if err != nil {
			return sel, err
		}
		sel.Names = append(sel.Names, names...)
	}
	entries := splitList(opts.codepoints)
	if opts.codepointsFile != "" {
		more, err := readLines(opts.codepointsFile)
		if err != nil {
			return sel, err
		}
		entries = append(entries, more...)
	}
	for _, entry := range entries {
		cp, err := parseCodepoint(entry)
		if err != nil {
			return sel, err
		}
		sel.Codepoints = append(sel.Codepoints, cp)
	}
	sel.Exclude = splitList(opts.exclude)
	if opts.excludeFile != "" {
		names, err := readLines(opts.excludeFile)
		if err != nil {
			return sel, err
		}
		sel.Exclude = append(sel.Exclude, names...)
	}
	return sel, nil
}

func splitList(s string) []string {
	if s == "" {
		return nil
	}
	var items []string
	for _, item := range strings.Split(s, ",") {
		if item = strings.TrimSpace(item); item != "" {
			items = append(items, item)
		}
	}
	return items
}

// readLines reads entries, one per line. Blank lines and lines starting
// with '#' are skipped.
func readLines(path string) ([]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, core.WrapError(err, core.EMISSING, "cannot read list file %s", path)
	}
	var names []string
	for _, line := range strings.Split(string(data), "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		names = append(names, line)
	}
	return names, nil
}

// parseCodepoint accepts U+0301, 0x301 and plain decimal notation.
func parseCodepoint(entry string) (rune, error) {
	base, digits := 10, entry
	switch {
	case strings.HasPrefix(entry, "U+"), strings.HasPrefix(entry, "u+"),
		strings.HasPrefix(entry, "0x"), strings.HasPrefix(entry, "0X"):
		base, digits = 16, entry[2:]
	}
	n, err := strconv.ParseInt(digits, base, 32)
	if err != nil || n < 0 {
		return 0, core.Error(core.EINVALID, "cannot parse codepoint %q", entry)
	}
	return rune(n), nil
}
