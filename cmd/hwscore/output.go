package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"codeberg.org/mutker/hwscore/internal/config"
	"codeberg.org/mutker/hwscore/internal/errors"
	"codeberg.org/mutker/hwscore/internal/profile"
	"codeberg.org/mutker/hwscore/internal/scoring"
	"codeberg.org/mutker/hwscore/internal/store"
	"gopkg.in/yaml.v3"
)

type document struct {
	Reference string            `json:"reference" yaml:"reference"`
	Report    scoring.Report    `json:"report" yaml:"report"`
	Extended  *profile.Extended `json:"extended,omitempty" yaml:"extended,omitempty"`
}

func newDocument(reference string, r scoring.Report, ext profile.Extended) document {
	doc := document{Reference: reference, Report: r}
	if !ext.IsZero() {
		doc.Extended = &ext
	}

	return doc
}

func render(w io.Writer, format config.Format, doc document) error {
	errFactory := errors.New()

	var err error
	switch format {
	case config.FormatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		err = enc.Encode(doc)
	case config.FormatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err = enc.Encode(doc); err == nil {
			err = enc.Close()
		}
	case config.FormatText:
		err = renderText(w, doc)
	default:
		return errFactory.WithData(errors.ErrInvalidFormat, format)
	}

	if err != nil {
		return errFactory.Wrap(errors.ErrRenderReport, err)
	}

	return nil
}

func renderText(w io.Writer, doc document) error {
	var b strings.Builder

	fmt.Fprintf(&b, "Reference:     %s\n", doc.Reference)
	fmt.Fprintf(&b, "Overall score: %.1f\n", doc.Report.OverallScore)
	fmt.Fprintf(&b, "GPU score:     %.1f\n", doc.Report.GPUScore)
	fmt.Fprintf(&b, "CPU score:     %.1f\n", doc.Report.CPUScore)

	if doc.Report.HasWarnings() {
		b.WriteString("Warnings:\n")
		for _, warning := range doc.Report.Warnings {
			fmt.Fprintf(&b, "  - %s\n", warning)
		}
	}

	if ext := doc.Extended; ext != nil {
		b.WriteString("Host:\n")
		fmt.Fprintf(&b, "  Hostname:      %s\n", ext.Hostname)
		fmt.Fprintf(&b, "  Host ID:       %s\n", ext.HostID)
		fmt.Fprintf(&b, "  OS:            %s %s %s (%s)\n", ext.OS, ext.Platform, ext.PlatformVersion, ext.KernelArch)
		if ext.Virtualization != "" {
			fmt.Fprintf(&b, "  Virtualized:   %s\n", ext.Virtualization)
		}
		fmt.Fprintf(&b, "  CPU:           %s %s (%s physical cores)\n", ext.CPUVendor, ext.CPUModel, ext.PhysicalCores)
		fmt.Fprintf(&b, "  GPUs:          %d\n", ext.GPUCount)
		if ext.GPUName != "" {
			fmt.Fprintf(&b, "  GPU:           %s (%s)\n", ext.GPUName, ext.GPUUUID)
			fmt.Fprintf(&b, "  Driver:        %s, CUDA %s\n", ext.GPUDriverVersion, ext.CUDADriverVersion)
		}
	}

	_, err := io.WriteString(w, b.String())
	return err
}

type historyEntry struct {
	RecordedAt time.Time      `json:"recorded_at" yaml:"recorded_at"`
	Reference  string         `json:"reference" yaml:"reference"`
	Report     scoring.Report `json:"report" yaml:"report"`
}

func newHistoryEntries(snapshots []store.ScoreSnapshot) []historyEntry {
	entries := make([]historyEntry, 0, len(snapshots))
	for _, s := range snapshots {
		entries = append(entries, historyEntry{
			RecordedAt: s.RecordedAt.UTC(),
			Reference:  s.Reference,
			Report:     s.Report,
		})
	}

	return entries
}

func renderHistory(w io.Writer, format config.Format, entries []historyEntry) error {
	errFactory := errors.New()

	var err error
	switch format {
	case config.FormatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		err = enc.Encode(entries)
	case config.FormatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err = enc.Encode(entries); err == nil {
			err = enc.Close()
		}
	case config.FormatText:
		var b strings.Builder
		for _, e := range entries {
			fmt.Fprintf(&b, "%s  %-16s overall %6.1f  gpu %6.1f  cpu %6.1f",
				e.RecordedAt.Format(time.RFC3339), e.Reference,
				e.Report.OverallScore, e.Report.GPUScore, e.Report.CPUScore)
			if n := len(e.Report.Warnings); n > 0 {
				fmt.Fprintf(&b, "  (%d warnings)", n)
			}
			b.WriteByte('\n')
		}
		_, err = io.WriteString(w, b.String())
	default:
		return errFactory.WithData(errors.ErrInvalidFormat, format)
	}

	if err != nil {
		return errFactory.Wrap(errors.ErrRenderReport, err)
	}

	return nil
}
