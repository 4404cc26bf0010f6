package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"satisfactory-save-edit/satisfactory"
)

var infoCmd = &cobra.Command{
	Use:   "info <save-file>",
	Short: "Print header fields and object counts",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		log := logger()
		decoder := satisfactory.NewDecoder()
		decoder.Log = log
		decoder.Diag = satisfactory.NewDiagnostics()
		decoder.Progress = func(stage satisfactory.Stage, current, total int) {
			log.Debug().Stringer("stage", stage).Int("current", current).Int("total", total).Msg("progress")
		}

		session, err := decoder.DecodeFile(args[0])
		if err != nil {
			exitErr("failed to decode save", err)
		}

		header := session.Header
		fmt.Printf("header version:  %d\n", header.HeaderVersion)
		fmt.Printf("save version:    %d\n", header.SaveVersion)
		fmt.Printf("build version:   %d\n", header.BuildVersion)
		fmt.Printf("map:             %s\n", header.MapName)
		fmt.Printf("map options:     %s\n", header.MapOptions)
		fmt.Printf("session:         %s\n", header.SessionName)
		fmt.Printf("play time:       %s\n", time.Duration(header.PlayDurationSeconds)*time.Second)
		fmt.Printf("compressed:      %v\n", session.Compressed)

		actors, components := 0, 0
		for _, object := range session.Objects {
			if object.Kind() == satisfactory.KindActor {
				actors++
			} else {
				components++
			}
		}
		fmt.Printf("objects:         %d (%d actors, %d components)\n", len(session.Objects), actors, components)
		fmt.Printf("destroyed:       %d\n", len(session.Destroyed))
	},
}

func init() {
	RootCmd.AddCommand(infoCmd)
}
