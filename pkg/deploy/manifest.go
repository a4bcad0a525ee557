package deploy

import (
	"encoding/json"
	"os"

	dserrors "github.com/matzehuels/dllstage/pkg/errors"
)

// WriteManifest writes rep as indented JSON to path.
func WriteManifest(path string, rep *Report) error {
	data, err := json.MarshalIndent(rep, "", "  ")
	if err != nil {
		return dserrors.Wrap(dserrors.ErrCodeInternal, err, "encode manifest")
	}
	if err := os.WriteFile(path, append(data, '\n'), 0o644); err != nil {
		return dserrors.Wrap(dserrors.ErrCodeCopyFailed, err, "write manifest %s", path)
	}
	return nil
}
