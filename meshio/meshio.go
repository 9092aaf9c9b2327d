// Package meshio is the file-format collaborator spec.md §6 delegates to:
// OBJ, PLY (ASCII or binary) and OFF, auto-detected from a path's extension.
// Codec is a pipeline.Loader and pipeline.Saver; the pipeline core never
// parses a file format itself.
package meshio

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/ssh4net/meshrepair/meshmodel"
)

// Format identifies one of the three supported mesh file formats.
type Format int

const (
	FormatUnknown Format = iota
	FormatOBJ
	FormatPLY
	FormatOFF
)

func (f Format) String() string {
	switch f {
	case FormatOBJ:
		return "obj"
	case FormatPLY:
		return "ply"
	case FormatOFF:
		return "off"
	default:
		return "unknown"
	}
}

// DetectFormat maps a file path's extension (case-insensitive) to a Format.
func DetectFormat(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".obj":
		return FormatOBJ, nil
	case ".ply":
		return FormatPLY, nil
	case ".off":
		return FormatOFF, nil
	default:
		return FormatUnknown, fmt.Errorf("meshio: unrecognized extension in %q", path)
	}
}

// Codec dispatches Load/Save to the format-specific reader/writer selected
// by DetectFormat. OBJ and OFF are always ASCII; PLY honors the binary flag.
type Codec struct{}

// Load reads path, detecting its format from the extension.
func (Codec) Load(path string) (meshmodel.Soup, error) {
	format, err := DetectFormat(path)
	if err != nil {
		return meshmodel.Soup{}, err
	}
	switch format {
	case FormatOBJ:
		return LoadOBJ(path)
	case FormatPLY:
		return LoadPLY(path)
	case FormatOFF:
		return LoadOFF(path)
	default:
		return meshmodel.Soup{}, fmt.Errorf("meshio: no loader for format %v", format)
	}
}

// Save writes mesh to path, detecting its format from the extension. binary
// is honored for PLY only; OBJ and OFF are always written as ASCII.
func (Codec) Save(mesh *meshmodel.Mesh, path string, binary bool) error {
	format, err := DetectFormat(path)
	if err != nil {
		return err
	}
	switch format {
	case FormatOBJ:
		return SaveOBJ(mesh, path)
	case FormatPLY:
		return SavePLY(mesh, path, binary)
	case FormatOFF:
		return SaveOFF(mesh, path)
	default:
		return fmt.Errorf("meshio: no saver for format %v", format)
	}
}
