package models

import (
	"fmt"
	"path/filepath"
	"strings"
)

// Load decodes a mesh file, choosing the decoder by extension.
// PLY files are read with dec; glTF files ignore it.
func Load(path string, dec *PLYDecoder) (*Mesh, error) {
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".ply":
		if dec == nil {
			dec = &PLYDecoder{}
		}
		m, _, err := dec.Load(path)
		return m, err
	case ".glb", ".gltf":
		return LoadGLB(path)
	default:
		return nil, fmt.Errorf("unsupported mesh format %q (use .ply, .glb or .gltf)", ext)
	}
}
