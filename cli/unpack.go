package cli

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/goccy/go-json"
	"github.com/spf13/cobra"

	"satisfactory-save-edit/satisfactory"
	"satisfactory-save-edit/utils"
)

var unpackOut string

var unpackCmd = &cobra.Command{
	Use:   "unpack <save-file>",
	Short: "Decode a save file to JSON",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		log := logger()
		decoder := satisfactory.NewDecoder()
		decoder.Log = log
		decoder.Diag = satisfactory.NewDiagnostics()

		session, err := decoder.DecodeFile(args[0])
		if err != nil {
			exitErr("failed to decode save", err)
		}

		data, err := json.MarshalIndent(session, "", "  ")
		if err != nil {
			exitErr("failed to marshal session", err)
		}

		name := filepath.Base(args[0])
		err = utils.SaveToFile(name, "session", "json", session)
		if err != nil {
			log.Warn().Err(err).Msg("debug dump failed")
		}

		if unpackOut == "" {
			fmt.Println(string(data))
			return
		}
		err = os.WriteFile(unpackOut, data, 0644)
		if err != nil {
			exitErr("failed to write output", err)
		}
	},
}

func init() {
	unpackCmd.Flags().StringVarP(&unpackOut, "out", "o", "", "Output path (default: stdout)")
	RootCmd.AddCommand(unpackCmd)
}
