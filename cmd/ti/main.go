package main

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"strings"

	"github.com/spf13/cobra"

	"github.com/giladbarnea/ti-sub000/internal/config"
	"github.com/giladbarnea/ti-sub000/internal/logs"
	"github.com/giladbarnea/ti-sub000/internal/render"
	"github.com/giladbarnea/ti-sub000/internal/store"
	"github.com/giladbarnea/ti-sub000/internal/timeutil"
	"github.com/giladbarnea/ti-sub000/internal/tracker"
)

// app carries the explicitly constructed process context: config, logger and
// renderer, built once in main and handed to every command.
type app struct {
	cfg *config.Config
	log *slog.Logger
	out *render.Renderer
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	logger, closer, err := logs.New(cfg)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	if closer != nil {
		defer closer.Close()
	}

	a := &app{cfg: cfg, log: logger, out: render.New(cfg.NoColor)}

	rootCmd := &cobra.Command{
		Use:           "ti",
		Short:         "Personal activity and time tracker",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	rootCmd.PersistentFlags().StringVar(&cfg.File, "file", cfg.File, "sheet path")

	rootCmd.AddCommand(onCmd(a))
	rootCmd.AddCommand(stopCmd(a))
	rootCmd.AddCommand(statusCmd(a))
	rootCmd.AddCommand(noteCmd(a))
	rootCmd.AddCommand(tagCmd(a))
	rootCmd.AddCommand(logCmd(a))
	rootCmd.AddCommand(editCmd(a))
	rootCmd.AddCommand(exportCmd(a))

	if err := rootCmd.Execute(); err != nil {
		// Domain state errors are plain user-facing conditions, not traces.
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func (a *app) store() *store.FileStore {
	return store.NewFile(a.cfg.File, a.log)
}

// at resolves the --at flag, defaulting to now.
func at(flag string) (timeutil.Time, error) {
	if flag == "" {
		return timeutil.Now(), nil
	}
	return timeutil.Parse(flag)
}

func onCmd(a *app) *cobra.Command {
	var atFlag, tag, note string

	cmd := &cobra.Command{
		Use:   "on [name]",
		Short: "Start an activity, stopping the current one",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			name := strings.Join(args, " ")
			t, err := at(atFlag)
			if err != nil {
				return err
			}
			s := a.store()
			w, err := s.Load()
			if err != nil {
				return err
			}
			act, err := w.On(name, t, tag, note)
			if err != nil {
				return err
			}
			if err := s.Dump(w); err != nil {
				return err
			}
			fmt.Printf("started %s at %s\n", a.out.Name(act.Name()), t)
			return nil
		},
	}

	cmd.Flags().StringVar(&atFlag, "at", "", "start time (e.g. 09:30)")
	cmd.Flags().StringVarP(&tag, "tag", "t", "", "tag the new entry")
	cmd.Flags().StringVarP(&note, "note", "n", "", "note on the new entry")
	return cmd
}

func stopCmd(a *app) *cobra.Command {
	var atFlag, tag, note string

	cmd := &cobra.Command{
		Use:   "stop",
		Short: "Stop the ongoing activity",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			t, err := at(atFlag)
			if err != nil {
				return err
			}
			s := a.store()
			w, err := s.Load()
			if err != nil {
				return err
			}
			act, entry, err := w.Stop(t, tag, note)
			if err != nil {
				return err
			}
			if err := s.Dump(w); err != nil {
				return err
			}
			span := ""
			if d, ok := entry.Duration(); ok {
				span = " after " + timeutil.HumanDuration(d)
			}
			fmt.Printf("stopped %s%s\n", a.out.Name(act.Name()), span)
			return nil
		},
	}

	cmd.Flags().StringVar(&atFlag, "at", "", "stop time (e.g. 17:30)")
	cmd.Flags().StringVarP(&tag, "tag", "t", "", "tag the closed entry")
	cmd.Flags().StringVarP(&note, "note", "n", "", "note on the closed entry")
	return cmd
}

func statusCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show what is ongoing",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			w, err := a.store().Load()
			if err != nil {
				return err
			}
			act, err := w.OngoingActivity()
			if errors.Is(err, tracker.ErrNoOngoing) {
				fmt.Println("nothing is ongoing")
				return nil
			}
			if err != nil {
				return err
			}
			fmt.Println(a.out.Status(act))
			return nil
		},
	}
}

func noteCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "note [text]",
		Short: "Attach a note to the ongoing entry",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s := a.store()
			w, err := s.Load()
			if err != nil {
				return err
			}
			act, err := w.AddNote(strings.Join(args, " "), timeutil.Now())
			if err != nil {
				return err
			}
			if err := s.Dump(w); err != nil {
				return err
			}
			fmt.Printf("noted on %s\n", a.out.Name(act.Name()))
			return nil
		},
	}
}

func tagCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "tag [tag]",
		Short: "Tag the ongoing entry",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s := a.store()
			w, err := s.Load()
			if err != nil {
				return err
			}
			act, err := w.AddTag(args[0])
			if err != nil {
				return err
			}
			if err := s.Dump(w); err != nil {
				return err
			}
			fmt.Printf("tagged %s\n", a.out.Name(act.Name()))
			return nil
		},
	}
}

func logCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "log [today|yesterday|DD/MM/YY]",
		Short: "Print a day's activity log",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			key, err := resolveDayKey(args)
			if err != nil {
				return err
			}
			w, err := a.store().Load()
			if err != nil {
				return err
			}
			for _, have := range w.DayKeys() {
				if have != key {
					continue
				}
				day, err := w.Day(key)
				if err != nil {
					return err
				}
				out, err := a.out.Day(key, day)
				if err != nil {
					return err
				}
				fmt.Print(out)
				return nil
			}
			fmt.Printf("nothing recorded for %s\n", key)
			return nil
		},
	}
}

func resolveDayKey(args []string) (string, error) {
	if len(args) == 0 || args[0] == "today" {
		return timeutil.Now().DayKey(), nil
	}
	if args[0] == "yesterday" {
		return timeutil.FromStdTime(timeutil.Now().Std().AddDate(0, 0, -1)).DayKey(), nil
	}
	if _, err := timeutil.ParseDayKey(args[0]); err != nil {
		return "", err
	}
	return args[0], nil
}

func editCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "edit",
		Short: "Open the sheet in your editor",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s := a.store()
			// Ensure the sheet exists before handing it to the editor.
			if _, err := s.Load(); err != nil {
				return err
			}
			edit := exec.Command(a.cfg.Editor, a.cfg.File)
			edit.Stdin = os.Stdin
			edit.Stdout = os.Stdout
			edit.Stderr = os.Stderr
			if err := edit.Run(); err != nil {
				return fmt.Errorf("run editor: %w", err)
			}
			if _, err := s.Load(); err != nil {
				return fmt.Errorf("sheet no longer parses: %w", err)
			}
			return nil
		},
	}
}

func exportCmd(a *app) *cobra.Command {
	var dbPath string

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Flatten closed entries into a sqlite archive",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			w, err := a.store().Load()
			if err != nil {
				return err
			}
			if dbPath == "" {
				dbPath = a.cfg.File + ".db"
			}
			archive, err := store.OpenArchive(dbPath)
			if err != nil {
				return err
			}
			defer archive.Close()
			rows, err := archive.ExportWork(w)
			if err != nil {
				return err
			}
			fmt.Printf("exported %d entries to %s\n", rows, dbPath)
			return nil
		},
	}

	cmd.Flags().StringVar(&dbPath, "db", "", "archive database path")
	return cmd
}
