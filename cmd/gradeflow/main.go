// gradeflow combines student submissions into one review PDF, reads the
// handwritten grades back into the class roster, and splits the graded PDF
// into per-student files.
//
// Usage:
//
//	gradeflow combine -submissions DIR -roster FILE -output DIR [options]
//	gradeflow grade   -pdf FILE -roster FILE -assignment NAME [options]
//	gradeflow split   -pdf FILE -submissions DIR [options]
//
// Common flags:
//
//	-config string  Path to a YAML configuration file (defaults are used when omitted)
//	-debug          Enable debug logging
//
// combine flags:
//
//	-submissions string  Folder of unpacked submission folders
//	-roster string       Roster CSV export
//	-output string       Output folder; an existing one is renamed first
//	-student-pdfs        Also write one normalized PDF per student
//	-dry-run             Leave unreadable submissions in place
//
// grade flags:
//
//	-pdf string          Combined PDF with handwritten grades
//	-roster string       Roster CSV export, rewritten in place
//	-assignment string   Assignment name used for the grade column
//	-submissions string  Submissions folder (required for -completion)
//	-output string       Folder for the first-pages review PDF
//	-completion          Give every submitted student the default grade
//	-insert              Keep all roster columns and insert the grade column
//
// split flags:
//
//	-pdf string          Graded combined PDF
//	-submissions string  Folder of submission folders to write into
//	-roster string       Roster CSV export (optional)
//	-dry-run             Report placement without writing files
//
// Document AI:
//
// Grades are read with Google Document AI when project_id, location and
// processor_id are configured (or GRADEFLOW_DOCAI_* is set) and with the
// local Tesseract engine otherwise, or when the service fails.
//
// Example:
//
//	gradeflow combine -submissions ./Essay1 -roster roster.csv -output ./Essay1_review
//	gradeflow grade -pdf ./Essay1_review/combined.pdf -roster roster.csv -assignment "Essay 1" -submissions ./Essay1
//	gradeflow split -pdf graded.pdf -submissions ./Essay1 -roster roster.csv
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"

	"github.com/gardar/gradeflow/pkg/config"
	"github.com/gardar/gradeflow/pkg/logging"
	"github.com/gardar/gradeflow/pkg/pipeline"
)

func usage() {
	fmt.Fprintln(os.Stderr, "Usage: gradeflow <combine|grade|split> [flags]")
	fmt.Fprintln(os.Stderr, "Run 'gradeflow <command> -h' for the flags of a command.")
}

type common struct {
	configPath *string
	debug      *bool
}

func commonFlags(fs *flag.FlagSet) common {
	return common{
		configPath: fs.String("config", "", "Path to the config YAML file"),
		debug:      fs.Bool("debug", false, "Enable debug logging"),
	}
}

// require reports every named flag left empty and exits when one is missing.
func require(fs *flag.FlagSet, values map[string]string) {
	hasError := false
	for name, v := range values {
		if v == "" {
			fmt.Fprintf(os.Stderr, "Error: -%s flag is required\n", name)
			hasError = true
		}
	}
	if hasError {
		fmt.Fprintln(os.Stderr, "Usage:")
		fs.PrintDefaults()
		os.Exit(2)
	}
}

func main() {
	if len(os.Args) < 2 {
		usage()
		os.Exit(2)
	}
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	var err error
	switch cmd, args := os.Args[1], os.Args[2:]; cmd {
	case "combine":
		err = runCombine(ctx, args)
	case "grade":
		err = runGrade(ctx, args)
	case "split":
		err = runSplit(ctx, args)
	case "-h", "-help", "--help", "help":
		usage()
		return
	default:
		fmt.Fprintf(os.Stderr, "Error: unknown command %q\n", cmd)
		usage()
		os.Exit(2)
	}
	stop()
	if err != nil {
		var ue *pipeline.UserError
		if errors.As(err, &ue) {
			fmt.Fprintln(os.Stderr, ue.Msg)
		} else {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		}
		os.Exit(1)
	}
}

// start loads the configuration and builds the pipeline for one command.
func start(c common, command string) (*pipeline.Pipeline, error) {
	cfg, err := config.Load(*c.configPath)
	if err != nil {
		return nil, err
	}
	log := logging.New(os.Stderr, *c.debug)
	log.Log(logging.MsgRunStarted, "command", command)
	return pipeline.New(cfg, log), nil
}

// finish prints the issue report and closes the run log.
func finish(p *pipeline.Pipeline, command string, err error) error {
	if perr := p.Report.Print(os.Stdout); perr != nil && err == nil {
		err = perr
	}
	p.Log.Log(logging.MsgRunFinished, "command", command, "issues", p.Report.Len(), "ok", err == nil)
	return err
}

func runCombine(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("combine", flag.ExitOnError)
	c := commonFlags(fs)
	subs := fs.String("submissions", "", "Folder of submission folders (required)")
	rosterPath := fs.String("roster", "", "Roster CSV file (required)")
	output := fs.String("output", "", "Output folder (required)")
	studentPDFs := fs.Bool("student-pdfs", false, "Also write one PDF per student")
	dryRun := fs.Bool("dry-run", false, "Leave unreadable submissions in place")
	fs.Parse(args)
	require(fs, map[string]string{"submissions": *subs, "roster": *rosterPath, "output": *output})

	p, err := start(c, "combine")
	if err != nil {
		return err
	}
	res, err := p.Combine(ctx, pipeline.CombineOptions{
		SubmissionsDir: *subs,
		RosterPath:     *rosterPath,
		OutputDir:      *output,
		StudentPDFs:    *studentPDFs,
		DryRun:         *dryRun,
	})
	if err == nil {
		if res.BackupPath != "" {
			fmt.Println("Previous output moved to:", res.BackupPath)
		}
		fmt.Printf("Combined PDF with %d students saved to: %s\n", len(res.Index), res.CombinedPath)
		fmt.Println("Page index saved to:", res.IndexPath)
	}
	return finish(p, "combine", err)
}

func runGrade(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("grade", flag.ExitOnError)
	c := commonFlags(fs)
	pdfPath := fs.String("pdf", "", "Combined PDF with handwritten grades (required unless -completion)")
	rosterPath := fs.String("roster", "", "Roster CSV file (required)")
	assignment := fs.String("assignment", "", "Assignment name for the grade column (required)")
	subs := fs.String("submissions", "", "Folder of submission folders")
	output := fs.String("output", "", "Folder for the first-pages review PDF (defaults to the PDF's folder)")
	completion := fs.Bool("completion", false, "Completion-only grading: every submitted student gets the default grade")
	insert := fs.Bool("insert", false, "Keep all roster columns and insert the grade column")
	fs.Parse(args)
	required := map[string]string{"roster": *rosterPath, "assignment": *assignment}
	if !*completion {
		required["pdf"] = *pdfPath
	}
	require(fs, required)

	p, err := start(c, "grade")
	if err != nil {
		return err
	}
	if *completion {
		p.Config.Gradebook.CompletionOnly = true
	}
	if *insert {
		p.Config.Gradebook.InsertColumn = true
	}
	out := *output
	if out == "" && *pdfPath != "" {
		out = filepath.Dir(*pdfPath)
	}
	res, err := p.Grade(ctx, pipeline.GradeOptions{
		CombinedPath:   *pdfPath,
		RosterPath:     *rosterPath,
		Assignment:     *assignment,
		SubmissionsDir: *subs,
		OutputDir:      out,
	})
	if err == nil {
		fmt.Printf("Grades for %d students written to column %q of %s\n", len(res.Assignments), res.Column, *rosterPath)
	}
	return finish(p, "grade", err)
}

func runSplit(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("split", flag.ExitOnError)
	c := commonFlags(fs)
	pdfPath := fs.String("pdf", "", "Graded combined PDF (required)")
	subs := fs.String("submissions", "", "Folder of submission folders (required)")
	rosterPath := fs.String("roster", "", "Roster CSV file")
	dryRun := fs.Bool("dry-run", false, "Report placement without writing files")
	fs.Parse(args)
	require(fs, map[string]string{"pdf": *pdfPath, "submissions": *subs})

	p, err := start(c, "split")
	if err != nil {
		return err
	}
	res, err := p.Split(ctx, pipeline.SplitOptions{
		CombinedPath:   *pdfPath,
		SubmissionsDir: *subs,
		RosterPath:     *rosterPath,
		DryRun:         *dryRun,
	})
	if res != nil {
		for _, g := range res.Groups {
			switch {
			case g.Written != "":
				fmt.Printf("%s: %d pages saved to %s\n", g.DisplayName(), len(g.Pages), g.Written)
			case g.Folder != "":
				fmt.Printf("%s: %d pages for %s\n", g.DisplayName(), len(g.Pages), g.Folder)
			}
		}
		if len(res.Skipped) > 0 {
			fmt.Printf("Pages without a student name: %v\n", res.Skipped)
		}
	}
	return finish(p, "split", err)
}
