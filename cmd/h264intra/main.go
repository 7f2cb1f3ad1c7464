// Command h264intra runs the H.264 intra mode decision on an image and
// writes the decisions as an Annex B stream.
//
// Usage:
//
//	h264intra analyze [options] <input>   PNG/JPEG/GIF/BMP/TIFF/WebP → .264 (use "-" for stdin)
//	h264intra dump [options] <input.264>  Print the parameter sets and decision report
package main

import (
	"flag"
	"fmt"
	"image/png"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/deepteams/h264intra"
)

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	var err error
	switch os.Args[1] {
	case "analyze":
		err = runAnalyze(os.Args[2:])
	case "dump":
		err = runDump(os.Args[2:], os.Stdout)
	case "-h", "-help", "--help", "help":
		printUsage()
		return
	default:
		fmt.Fprintf(os.Stderr, "h264intra: unknown command %q\n\n", os.Args[1])
		printUsage()
		os.Exit(1)
	}

	if err != nil {
		fmt.Fprintf(os.Stderr, "h264intra: %v\n", err)
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Fprintf(os.Stderr, `Usage:
  h264intra analyze [options] <input>    Decide intra modes and write an Annex B stream
  h264intra dump [options] <input.264>   Print the content of a stream written by analyze

Use "-" as input to read from stdin, "-o -" to write to stdout.

Run "h264intra <command> -h" for command-specific options.
`)
}

// openInput returns an io.ReadCloser for the given path.
// If path is "-", stdin is returned (caller should not close).
func openInput(path string) (io.ReadCloser, error) {
	if path == "-" {
		return io.NopCloser(os.Stdin), nil
	}
	return os.Open(path)
}

// --- analyze ---

func runAnalyze(args []string) error {
	fs := flag.NewFlagSet("analyze", flag.ContinueOnError)
	qp := fs.Int("qp", 28, "quantisation parameter 0-51")
	complexity := fs.String("complexity", "high", "cost function: low/medium/high")
	t8x8 := fs.Bool("8x8", true, "evaluate Intra8x8 macroblocks")
	constrained := fs.Bool("constrained", false, "constrained intra prediction")
	adaptive := fs.Bool("ar", true, "adaptive rounding")
	arWeight := fs.Int("ar_weight", 0, "adaptive rounding weight 0-64 (0=default)")
	disable := fs.String("disable", "", "comma separated 4x4/8x8 modes to skip, e.g. 3,7")
	parDisable := fs.Bool("no_i16_par", false, "disable 16x16 vertical and horizontal")
	planeDisable := fs.Bool("no_i16_plane", false, "disable 16x16 plane")
	chroma444 := fs.Bool("444", false, "analyse Cb and Cr as 4:4:4 planes")
	lambda := fs.Float64("lambda", 0, "Lagrangian multiplier (0=derive from qp)")
	level := fs.Int("level", 0, "level_idc (0=default)")
	output := fs.String("o", "", `output path (default: <input>.264, "-" for stdout)`)
	recon := fs.String("recon", "", "write the reconstruction as PNG")
	verbose := fs.Bool("v", false, "print decision statistics")

	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() < 1 {
		return fmt.Errorf("analyze: missing input file\nUsage: h264intra analyze [options] <input>")
	}
	inputPath := fs.Arg(0)

	cx, err := parseComplexity(*complexity)
	if err != nil {
		return err
	}
	modes, err := parseModes(*disable)
	if err != nil {
		return err
	}
	opts := &h264intra.Options{
		QP:                   *qp,
		Complexity:           cx,
		Transform8x8:         *t8x8,
		ConstrainedIntraPred: *constrained,
		AdaptiveRounding:     *adaptive,
		AdaptRndWeight:       *arWeight,
		DisabledModes:        modes,
		Intra16ParDisable:    *parDisable,
		Intra16PlaneDisable:  *planeDisable,
		Chroma444:            *chroma444,
		Lambda:               *lambda,
		Level:                *level,
	}

	in, err := openInput(inputPath)
	if err != nil {
		return err
	}
	defer in.Close()

	img, _, err := h264intra.DecodeImage(in)
	if err != nil {
		return fmt.Errorf("analyze: %w", err)
	}

	start := time.Now()
	a, err := h264intra.Analyze(img, opts)
	if err != nil {
		return fmt.Errorf("analyze: %w", err)
	}
	elapsed := time.Since(start)

	if *verbose {
		printStats(os.Stderr, a, elapsed)
	}
	if *recon != "" {
		if err := writeRecon(*recon, a); err != nil {
			return err
		}
	}

	if *output == "-" {
		_, err := a.WriteTo(os.Stdout)
		return err
	}
	outputPath := *output
	if outputPath == "" {
		if inputPath == "-" {
			outputPath = "output.264"
		} else {
			base := strings.TrimSuffix(filepath.Base(inputPath), filepath.Ext(inputPath))
			outputPath = base + ".264"
		}
	}

	out, err := os.Create(outputPath)
	if err != nil {
		return err
	}
	n, err := a.WriteTo(out)
	if err != nil {
		out.Close()
		os.Remove(outputPath)
		return fmt.Errorf("analyze: %w", err)
	}
	if err := out.Close(); err != nil {
		os.Remove(outputPath)
		return err
	}

	fmt.Fprintf(os.Stderr, "Analyzed %s → %s (%d bytes)\n", inputPath, outputPath, n)
	return nil
}

func parseComplexity(s string) (h264intra.Complexity, error) {
	switch strings.ToLower(s) {
	case "low":
		return h264intra.ComplexityLow, nil
	case "medium":
		return h264intra.ComplexityMedium, nil
	case "high":
		return h264intra.ComplexityHigh, nil
	default:
		return 0, fmt.Errorf("analyze: unknown complexity %q (use low/medium/high)", s)
	}
}

// parseModes parses a comma separated list of prediction modes.
func parseModes(s string) ([]int, error) {
	if s == "" {
		return nil, nil
	}
	var modes []int
	for _, f := range strings.Split(s, ",") {
		m, err := strconv.Atoi(strings.TrimSpace(f))
		if err != nil {
			return nil, fmt.Errorf("analyze: bad mode %q in -disable", f)
		}
		modes = append(modes, m)
	}
	return modes, nil
}

func writeRecon(path string, a *h264intra.Analysis) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := png.Encode(f, a.ReconImage()); err != nil {
		f.Close()
		os.Remove(path)
		return fmt.Errorf("analyze: writing reconstruction: %w", err)
	}
	return f.Close()
}

var modeNames = [...]string{"V", "H", "DC", "DDL", "DDR", "VR", "HD", "VL", "HU"}

var mode16Names = [...]string{"V", "H", "DC", "P"}

func printStats(w io.Writer, a *h264intra.Analysis, elapsed time.Duration) {
	st := &a.Stats
	fmt.Fprintf(w, "Picture:    %d x %d (%d x %d MBs), %v\n", a.Width, a.Height, a.MBWidth, a.MBHeight, elapsed.Round(time.Microsecond))
	fmt.Fprintf(w, "MB types:   I4 %d, I8 %d, I16 %d\n", st.MBTypes[h264intra.MBI4], st.MBTypes[h264intra.MBI8], st.MBTypes[h264intra.MBI16])
	fmt.Fprintf(w, "4x4 modes: ")
	for m, n := range st.Modes4x4 {
		fmt.Fprintf(w, " %s:%d", modeNames[m], n)
	}
	fmt.Fprintf(w, "\n8x8 modes: ")
	for m, n := range st.Modes8x8 {
		fmt.Fprintf(w, " %s:%d", modeNames[m], n)
	}
	fmt.Fprintf(w, "\n16x16:     ")
	for m, n := range st.Modes16 {
		fmt.Fprintf(w, " %s:%d", mode16Names[m], n)
	}
	fmt.Fprintf(w, "\nMPM blocks: %d\n", st.MPMBlocks)
	fmt.Fprintf(w, "Cost:       %d\n", st.Cost)
	fmt.Fprintf(w, "PSNR:       Y %.2f", a.PSNR[0])
	if a.Options.Chroma444 {
		fmt.Fprintf(w, "  Cb %.2f  Cr %.2f", a.PSNR[1], a.PSNR[2])
	}
	fmt.Fprintln(w, " dB")
	fmt.Fprintf(w, "SSIM:       Y %.4f", a.SSIM[0])
	if a.Options.Chroma444 {
		fmt.Fprintf(w, "  Cb %.4f  Cr %.4f", a.SSIM[1], a.SSIM[2])
	}
	fmt.Fprintln(w)
}

// --- dump ---

func runDump(args []string, w io.Writer) error {
	fs := flag.NewFlagSet("dump", flag.ContinueOnError)
	showMBs := fs.Bool("mbs", false, "print every macroblock decision")
	showMap := fs.Bool("map", false, "print the macroblock type map")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() < 1 {
		return fmt.Errorf("dump: missing input file\nUsage: h264intra dump [options] <input.264>")
	}
	inputPath := fs.Arg(0)

	in, err := openInput(inputPath)
	if err != nil {
		return err
	}
	defer in.Close()

	info, err := h264intra.ParseStream(in)
	if err != nil {
		return fmt.Errorf("dump: %w", err)
	}

	for i, u := range info.Units {
		fmt.Fprintf(w, "NAL %d:      %-4s ref_idc %d, %d bytes\n", i, u.Name, u.RefIdc, u.Size)
	}
	fmt.Fprintf(w, "Profile:    %d, level %d, chroma_format_idc %d\n", info.Profile, info.Level, info.ChromaFormat)
	fmt.Fprintf(w, "Dimensions: %d x %d\n", info.Width, info.Height)
	fmt.Fprintf(w, "PPS:        qp %d, 8x8 %v, constrained %v\n", info.InitQP, info.Transform8x8, info.ConstrainedIntraPred)

	r := info.Report
	if r == nil {
		fmt.Fprintln(w, "Report:     none")
		return nil
	}
	var counts [5]int
	for _, d := range r.MBs {
		counts[d.Type]++
	}
	fmt.Fprintf(w, "Report:     %d MBs, complexity %v: I4 %d, I8 %d, I16 %d\n",
		len(r.MBs), r.Complexity, counts[h264intra.MBI4], counts[h264intra.MBI8], counts[h264intra.MBI16])

	mbW, mbH := r.MBSize()
	if *showMap {
		for y := 0; y < mbH; y++ {
			var sb strings.Builder
			for x := 0; x < mbW; x++ {
				sb.WriteString(typeLetter(r.MBs[y*mbW+x].Type))
			}
			fmt.Fprintln(w, sb.String())
		}
	}
	if *showMBs {
		for i, d := range r.MBs {
			fmt.Fprintf(w, "MB %d (%d,%d): %v cbp %d cost %d", i, i%mbW, i/mbW, d.Type, d.CBP, d.Cost)
			switch d.Type {
			case h264intra.MBI16:
				fmt.Fprintf(w, " mode %s", mode16Names[d.I16Mode])
			case h264intra.MBI4, h264intra.MBI8:
				names := make([]string, len(d.Modes))
				for j, m := range d.Modes {
					names[j] = modeNames[m]
				}
				fmt.Fprintf(w, " modes %s", strings.Join(names, ","))
			}
			fmt.Fprintln(w)
		}
	}
	return nil
}

func typeLetter(t h264intra.MBType) string {
	switch t {
	case h264intra.MBI4:
		return "4"
	case h264intra.MBI8:
		return "8"
	case h264intra.MBI16:
		return "G"
	case h264intra.MBInter:
		return "P"
	}
	return "?"
}
