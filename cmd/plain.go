package cmd

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/fakeyudi/worktimer/internal/record"
	"github.com/fakeyudi/worktimer/internal/timer"
	"github.com/fakeyudi/worktimer/internal/tui"
)

const plainHelp = `Commands:
  start                 start or resume the timer
  stop                  stop the timer
  reset                 discard the session and start over
  duration <minutes>    set the target duration (idle only)
  set <field> <value>   field is description, notes, project or project-number
  status                show the session
  post                  post the stopped session
  help                  show this list
  quit                  leave`

// runLines drives machine from line commands on in until quit or EOF.
func runLines(ctx context.Context, in io.Reader, out io.Writer, machine *timer.Machine, sub tui.Submitter, fields record.Fields) error {
	fmt.Fprintln(out, `worktimer: type "help" for commands`)
	scanner := bufio.NewScanner(in)
	for scanner.Scan() {
		if err := ctx.Err(); err != nil {
			return nil
		}
		verb, rest, _ := strings.Cut(strings.TrimSpace(scanner.Text()), " ")
		rest = strings.TrimSpace(rest)

		switch strings.ToLower(verb) {
		case "":
		case "start":
			machine.Start()
			printLine(out, machine.Snapshot())
		case "stop":
			machine.Stop()
			printLine(out, machine.Snapshot())
		case "reset":
			machine.Reset()
			printLine(out, machine.Snapshot())
		case "duration", "minutes":
			setDuration(out, machine, rest)
		case "set":
			if err := setField(&fields, rest); err != nil {
				fmt.Fprintln(out, err)
			}
		case "status":
			printStatus(out, machine.Snapshot(), fields)
		case "post":
			postSession(ctx, out, machine.Snapshot(), sub, fields)
		case "help", "?":
			fmt.Fprintln(out, plainHelp)
		case "quit", "exit", "q":
			return nil
		default:
			fmt.Fprintf(out, "unknown command %q (try help)\n", verb)
		}
	}
	return scanner.Err()
}

func setDuration(out io.Writer, machine *timer.Machine, input string) {
	minutes, err := timer.ParseMinutes(input)
	var inputErr *timer.InputError
	if errors.As(err, &inputErr) {
		fmt.Fprintf(out, "%s; duration field reset to %s\n", inputErr.Message, inputErr.ResetInput)
		return
	}
	if err := machine.SetTargetDuration(minutes); err != nil {
		if errors.Is(err, timer.ErrIllegalTransition) {
			fmt.Fprintln(out, "duration can only be changed while idle (reset first)")
			return
		}
		fmt.Fprintln(out, err)
		return
	}
	fmt.Fprintf(out, "target duration %d min\n", minutes)
}

func setField(f *record.Fields, input string) error {
	name, value, _ := strings.Cut(input, " ")
	value = strings.TrimSpace(value)
	switch strings.ToLower(name) {
	case "description":
		f.Description = value
	case "notes":
		f.Notes = value
	case "project", "project-name":
		f.ProjectName = value
	case "project-number", "project-no":
		f.ProjectNumber = value
	default:
		return fmt.Errorf("unknown field %q (description, notes, project, project-number)", name)
	}
	return nil
}

func printLine(out io.Writer, s timer.Snapshot) {
	fmt.Fprintf(out, "%s  %s  %.1f%%\n", s.State, record.FormatClock(s.ElapsedSeconds), s.Percentage)
}

func printStatus(out io.Writer, s timer.Snapshot, f record.Fields) {
	tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintf(tw, "State:\t%s\n", s.State)
	fmt.Fprintf(tw, "Elapsed:\t%s\n", record.FormatClock(s.ElapsedSeconds))
	fmt.Fprintf(tw, "Progress:\t%.1f%%\n", s.Percentage)
	fmt.Fprintf(tw, "Target:\t%d min\n", s.TargetDurationSeconds/60)
	fmt.Fprintf(tw, "Started:\t%s\n", clockOr(s.StartedAt, "not started yet"))
	fmt.Fprintf(tw, "Stopped:\t%s\n", clockOr(s.StoppedAt, "not stopped yet"))
	fmt.Fprintf(tw, "Description:\t%s\n", dash(f.Description))
	fmt.Fprintf(tw, "Notes:\t%s\n", dash(f.Notes))
	fmt.Fprintf(tw, "Project:\t%s\n", dash(f.ProjectName))
	fmt.Fprintf(tw, "Project No.:\t%s\n", dash(f.ProjectNumber))
	_ = tw.Flush()
}

func postSession(ctx context.Context, out io.Writer, s timer.Snapshot, sub tui.Submitter, f record.Fields) {
	if !s.Complete() {
		fmt.Fprintln(out, "post is available once the timer is stopped")
		return
	}
	outcome, err := sub.Submit(ctx, s.Session, f)
	if err != nil {
		fmt.Fprintf(out, "API Error: %v\n", err)
		return
	}
	if outcome.DryRun {
		fmt.Fprintln(out, "dry run: record not posted")
		body, err := json.MarshalIndent(outcome.Request, "", "  ")
		if err != nil {
			fmt.Fprintln(out, err)
			return
		}
		fmt.Fprintln(out, string(body))
		return
	}
	fmt.Fprintf(out, "API Request Successful: ID:%s record added\n", outcome.RemoteID)
	for _, w := range outcome.Warnings {
		fmt.Fprintln(out, "warning:", w)
	}
}

func clockOr(t *time.Time, empty string) string {
	if t == nil {
		return empty
	}
	layout := cfg.TimeLayout
	if layout == "" {
		layout = record.DefaultTimeLayout
	}
	return t.Format(layout)
}

func dash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
