package markers

import (
	"fmt"
	"strconv"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"

	"mp3player/internal/app/audio"
	"mp3player/internal/app/errors"
	"mp3player/internal/app/library"
	"mp3player/internal/app/marker"
	"mp3player/internal/app/timeutil"
	"mp3player/internal/config"
)

var filePath string

func init() {
	Cmd.PersistentFlags().StringVarP(&filePath, "file", "f", "", "MP3 file the markers belong to")
	Cmd.MarkPersistentFlagRequired("file")

	Cmd.AddCommand(listCmd)
	Cmd.AddCommand(addCmd)
	Cmd.AddCommand(moveCmd)
	Cmd.AddCommand(delCmd)
	Cmd.AddCommand(clearCmd)
}

// Cmd represents the markers command
var Cmd = &cobra.Command{
	Use:   "markers",
	Short: "Manage the time markers of an MP3",
	Long: `Manage the time markers stored in the MP3's sidecar file
(<stem>.markers.json). Times accept seconds ("83.5") or mm:ss.cc
("01:23.50").`,
}

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List all markers",
	RunE: func(cmd *cobra.Command, args []string) error {
		_, mgr, _, err := load()
		if err != nil {
			return err
		}
		for _, m := range mgr.Markers() {
			line := fmt.Sprintf("%-10s %s", m.Name, timeutil.Format(m.Time))
			if m.Comment != "" {
				line += "  # " + m.Comment
			}
			fmt.Println(line)
		}
		return nil
	},
}

var addCmd = &cobra.Command{
	Use:   "add <time>",
	Short: "Add a marker at the given time",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		t, err := parseTime(args[0])
		if err != nil {
			return err
		}
		path, mgr, store, err := load()
		if err != nil {
			return err
		}
		m, err := mgr.Add(t)
		if err != nil {
			return err
		}
		if err := store.Save(path, mgr); err != nil {
			return err
		}
		fmt.Printf("added %s at %s\n", m.Name, timeutil.Format(m.Time))
		return nil
	},
}

var moveCmd = &cobra.Command{
	Use:   "move <name> <time>",
	Short: "Move a marker to a new time",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		t, err := parseTime(args[1])
		if err != nil {
			return err
		}
		path, mgr, store, err := load()
		if err != nil {
			return err
		}
		m, err := mgr.Move(args[0], t)
		if err != nil {
			return err
		}
		if err := store.Save(path, mgr); err != nil {
			return err
		}
		fmt.Printf("moved %s to %s\n", m.Name, timeutil.Format(m.Time))
		return nil
	},
}

var delCmd = &cobra.Command{
	Use:   "del <name>",
	Short: "Delete a marker",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		path, mgr, store, err := load()
		if err != nil {
			return err
		}
		if err := mgr.Delete(args[0]); err != nil {
			return err
		}
		if err := store.Save(path, mgr); err != nil {
			return err
		}
		fmt.Printf("deleted %s\n", args[0])
		return nil
	},
}

var clearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Delete all user markers",
	RunE: func(cmd *cobra.Command, args []string) error {
		path, mgr, store, err := load()
		if err != nil {
			return err
		}
		mgr.DeleteAll()
		if err := store.Save(path, mgr); err != nil {
			return err
		}
		fmt.Println("cleared user markers")
		return nil
	},
}

func load() (string, *marker.Manager, *marker.Store, error) {
	dirs, err := config.GetDirs()
	if err != nil {
		return "", nil, nil, err
	}
	path, err := library.Resolve(nil, dirs, filePath)
	if err != nil {
		return "", nil, nil, err
	}

	store := marker.NewStore(afero.NewOsFs())
	duration := 0.0
	if !store.Exists(path) {
		// A fresh sidecar needs the real duration for the end marker.
		duration, err = audio.Duration(path)
		if err != nil {
			return "", nil, nil, errors.Wrapf(err, "probe %s", path)
		}
	}
	mgr, err := store.LoadManager(path, duration)
	if err != nil {
		return "", nil, nil, err
	}
	return path, mgr, store, nil
}

// parseTime accepts plain seconds or mm:ss.cc.
func parseTime(s string) (float64, error) {
	if v, err := strconv.ParseFloat(s, 64); err == nil {
		return v, nil
	}
	return timeutil.Parse(s)
}
