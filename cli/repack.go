package cli

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"satisfactory-save-edit/satisfactory"
	"satisfactory-save-edit/utils"
)

var repackOut string

var repackCmd = &cobra.Command{
	Use:   "repack <save-file>",
	Short: "Decode a save file and re-encode it, verifying a stable round trip",
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

		encoder := satisfactory.NewEncoder()
		encoder.Log = log
		var first bytes.Buffer
		err = encoder.Encode(&first, session)
		if err != nil {
			exitErr("failed to encode save", err)
		}

		// the re-encoded bytes must decode to a session that encodes
		// identically, or the codec lost data somewhere
		reread, err := satisfactory.NewDecoder().Decode(bytes.NewReader(first.Bytes()))
		if err != nil {
			exitErr("re-encoded save does not decode", err)
		}
		var second bytes.Buffer
		err = satisfactory.NewEncoder().Encode(&second, reread)
		if err != nil {
			exitErr("failed to re-encode save", err)
		}
		if !bytes.Equal(first.Bytes(), second.Bytes()) {
			exitErr("round trip is not stable", fmt.Errorf("%d vs %d bytes", first.Len(), second.Len()))
		}

		name := filepath.Base(args[0])
		err = utils.SaveToFile(name, "repacked", "bin", first.Bytes())
		if err != nil {
			log.Warn().Err(err).Msg("debug dump failed")
		}

		out := repackOut
		if out == "" {
			out = args[0] + ".repacked"
		}
		err = os.WriteFile(out, first.Bytes(), 0644)
		if err != nil {
			exitErr("failed to write output", err)
		}
		fmt.Printf("wrote %s (%d bytes, %d objects)\n", out, first.Len(), len(session.Objects))
	},
}

func init() {
	repackCmd.Flags().StringVarP(&repackOut, "out", "o", "", "Output path (default: <save-file>.repacked)")
	RootCmd.AddCommand(repackCmd)
}
