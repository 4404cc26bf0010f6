package utils

import (
	"fmt"
	"os"
	"path"

	"github.com/goccy/go-json"

	"satisfactory-save-edit/config"
)

func dump(root, foldername, filename string, data []byte) error {
	dir := path.Join(root, foldername)
	err := os.MkdirAll(dir, os.ModePerm)
	if err != nil {
		return err
	}
	return os.WriteFile(path.Join(dir, filename), data, 0644)
}

// SaveToFile dumps debug artifacts under json/ or binary/, gated by the
// corresponding DEBUG_SAVE_* env flags.
func SaveToFile(foldername string, name string, dataType string, data interface{}) error {
	switch dataType {
	case "json":
		if !config.DEBUG_SAVE_JSON {
			return nil
		}
		encoded, err := json.MarshalIndent(data, "", "  ")
		if err != nil {
			return err
		}
		return dump("json", foldername, name+".json", encoded)
	case "bin":
		if !config.DEBUG_SAVE_BINARY {
			return nil
		}
		raw, ok := data.([]byte)
		if !ok {
			return fmt.Errorf("binary dump needs []byte, got %T", data)
		}
		return dump("binary", foldername, name+".bin", raw)
	}
	return fmt.Errorf("unknown file dataType: %s", dataType)
}
