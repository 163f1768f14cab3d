// Copyright 2026 The go-lpc Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Command daphne-plot plots the waveforms and peak charges of the frames
// held in DAPHNE raw capture files.
package main // import "github.com/go-lpc/daphne/cmd/daphne-plot"

import (
	"flag"
	"fmt"
	"image/color"
	"io"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-lpc/daphne/board"
	"github.com/go-lpc/daphne/spy"
	"go-hep.org/x/hep/hbook"
	"go-hep.org/x/hep/hplot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
)

const usage = `daphne-plot plots the waveforms and peak charges of DAPHNE frames.

Usage: daphne-plot [OPTIONS] FILE1 [FILE2 [FILE3 ...]]

Example:

 $> daphne-plot -o ./plots ./run_042.raw
 $> daphne-plot -o ./plots -n 10 -bins 200 ./run_042.raw ./run_043.raw

options:
`

func main() {
	xmain(os.Stdout, os.Args[1:])
}

type params struct {
	odir  string
	nwave int // number of waveforms to plot
	size  int // capture size in words
	bins  int
	max   float64 // upper edge of the charge histogram
	ext   string
}

func xmain(w io.Writer, args []string) {
	log.SetPrefix("daphne-plot: ")
	log.SetFlags(0)

	var (
		fset = flag.NewFlagSet("daphne-plot", flag.ExitOnError)
		p    params
	)
	fset.StringVar(&p.odir, "o", ".", "output directory for plots")
	fset.IntVar(&p.nwave, "n", 1, "number of waveforms to plot")
	fset.IntVar(&p.size, "size", board.OutputSpyLen, "number of words per capture (0: whole file)")
	fset.IntVar(&p.bins, "bins", 100, "number of bins of the peak charge histogram")
	fset.Float64Var(&p.max, "max", 1<<23, "upper edge of the peak charge histogram")
	fset.StringVar(&p.ext, "ext", "png", "plot file format (png, pdf, svg)")

	fset.Usage = func() {
		fmt.Print(usage)
		fset.PrintDefaults()
	}

	err := fset.Parse(args)
	if err != nil {
		log.Fatalf("could not parse input arguments: %+v", err)
	}

	if fset.NArg() == 0 {
		fset.Usage()
		log.Fatalf("missing path to input raw capture file")
	}

	err = process(w, p, fset.Args())
	if err != nil {
		log.Fatalf("could not plot frames: %+v", err)
	}
}

func process(w io.Writer, p params, fnames []string) error {
	var frames []spy.Frame
	for _, fname := range fnames {
		fs, err := load(fname, p.size)
		if err != nil {
			return err
		}
		frames = append(frames, fs...)
	}

	if len(frames) == 0 {
		return fmt.Errorf("no frame found")
	}

	err := os.MkdirAll(p.odir, 0755)
	if err != nil {
		return fmt.Errorf("could not create output directory: %w", err)
	}

	n := p.nwave
	if n > len(frames) {
		n = len(frames)
	}
	for i := 0; i < n; i++ {
		oname := filepath.Join(p.odir, fmt.Sprintf("waveform_%03d.%s", i, p.ext))
		err = plotWaveform(oname, &frames[i])
		if err != nil {
			return fmt.Errorf("could not plot waveform %d: %w", i, err)
		}
		fmt.Fprintf(w, "waveform %d: %s\n", i, oname)
	}

	oname := filepath.Join(p.odir, "charge."+p.ext)
	h := chargeHist(frames, p.bins, p.max)
	err = plotCharge(oname, h)
	if err != nil {
		return fmt.Errorf("could not plot peak charges: %w", err)
	}
	fmt.Fprintf(w, "charge: %s (entries=%d, mean=%g)\n", oname, h.Entries(), h.XMean())

	return nil
}

func load(fname string, size int) ([]spy.Frame, error) {
	f, err := os.Open(fname)
	if err != nil {
		return nil, fmt.Errorf("could not open %q: %w", fname, err)
	}
	defer f.Close()

	words, err := spy.ReadCapture(f)
	if err != nil {
		return nil, fmt.Errorf("could not read %q: %w", fname, err)
	}
	return spy.DecodeCaptures(words, size), nil
}

// chargeHist fills the charge of every non-empty peak record.
func chargeHist(frames []spy.Frame, bins int, max float64) *hbook.H1D {
	h := hbook.NewH1D(bins, 0, max)
	for i := range frames {
		for _, pk := range frames[i].Peaks {
			if pk.Charge == 0 {
				continue
			}
			h.Fill(float64(pk.Charge), 1)
		}
	}
	return h
}

func plotWaveform(oname string, f *spy.Frame) error {
	hdr := f.Header

	p := hplot.New()
	p.Title.Text = fmt.Sprintf(
		"DAPHNE link=%d channel=%d ts=%d", hdr.Link, hdr.Channel, hdr.TimeStamp,
	)
	p.X.Label.Text = "sample"
	p.Y.Label.Text = "ADC counts"

	xys := make(plotter.XYs, len(f.Samples))
	for i, v := range f.Samples {
		xys[i].X = float64(i)
		xys[i].Y = float64(v)
	}
	wave, err := plotter.NewLine(xys)
	if err != nil {
		return fmt.Errorf("could not create waveform line: %w", err)
	}
	wave.LineStyle.Color = color.RGBA{B: 255, A: 255}
	wave.LineStyle.Width = vg.Points(1)

	xmax := float64(len(f.Samples) - 1)
	base, err := plotter.NewLine(plotter.XYs{
		{X: 0, Y: float64(hdr.Baseline)},
		{X: xmax, Y: float64(hdr.Baseline)},
	})
	if err != nil {
		return fmt.Errorf("could not create baseline: %w", err)
	}
	base.LineStyle.Color = color.RGBA{R: 255, A: 255}
	base.LineStyle.Dashes = []vg.Length{vg.Points(4), vg.Points(2)}

	mean, _ := f.Pedestal()
	ped, err := plotter.NewLine(plotter.XYs{{X: 0, Y: mean}, {X: xmax, Y: mean}})
	if err != nil {
		return fmt.Errorf("could not create pedestal: %w", err)
	}
	ped.LineStyle.Color = color.RGBA{G: 160, A: 255}

	p.Add(wave, base, ped, hplot.NewGrid())
	p.Legend.Add("waveform", wave)
	p.Legend.Add("baseline", base)
	p.Legend.Add("pedestal", ped)
	p.Legend.Top = true

	return save(p, oname)
}

func plotCharge(oname string, h *hbook.H1D) error {
	p := hplot.New()
	p.Title.Text = "DAPHNE peak charge"
	p.X.Label.Text = "charge"
	p.Y.Label.Text = "entries"

	hh := hplot.NewH1D(h)
	hh.LineStyle.Color = color.Black
	hh.FillColor = color.RGBA{R: 100, G: 149, B: 237, A: 255}
	hh.Infos.Style = hplot.HInfoSummary

	p.Add(hh, hplot.NewGrid())

	return save(p, oname)
}

func save(p *hplot.Plot, oname string) error {
	ext := strings.TrimPrefix(filepath.Ext(oname), ".")
	switch ext {
	case "png", "pdf", "svg", "eps", "jpg", "jpeg", "tif", "tiff":
	default:
		return fmt.Errorf("invalid plot format %q", ext)
	}
	err := p.Save(20*vg.Centimeter, 10*vg.Centimeter, oname)
	if err != nil {
		return fmt.Errorf("could not save plot %q: %w", oname, err)
	}
	return nil
}
