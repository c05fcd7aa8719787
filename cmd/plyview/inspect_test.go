package main

import (
	"bytes"
	"context"
	"image/color"
	"strings"
	"testing"
)

func TestInspectFile(t *testing.T) {
	dir := t.TempDir()
	ply := writeFile(t, dir, "quad.ply", []byte(quadPLY))
	tex := writeFile(t, dir, "quad.bmp", solidBMP(4, 2, color.RGBA{1, 2, 3, 255}))

	tests := []struct {
		path string
		kind string
		want map[string]string
	}{
		{ply, "PLY mesh", map[string]string{
			"format":            "ascii 1.0",
			"declared vertices": "4",
			"declared faces":    "2",
			"vertex properties": "x y z u v",
			"comment":           "test quad",
			"vertices":          "4",
			"triangles":         "2",
			"bounds min":        "-1.000 -1.000 0.000",
			"bounds max":        "1.000 1.000 0.000",
		}},
		{tex, "BMP image", map[string]string{
			"size":        "4x2",
			"data offset": "54",
			"image size":  "32",
			"pixels":      "32-bit, decoded",
		}},
	}
	for _, tt := range tests {
		t.Run(tt.kind, func(t *testing.T) {
			r, err := inspectFile(tt.path, true)
			if err != nil {
				t.Fatalf("inspectFile: %v", err)
			}
			if r.kind != tt.kind {
				t.Errorf("kind = %q, want %q", r.kind, tt.kind)
			}
			for key, want := range tt.want {
				if got, ok := r.value(key); !ok || got != want {
					t.Errorf("%s = %q (%v), want %q", key, got, ok, want)
				}
			}
			out := r.render()
			if !strings.Contains(out, tt.path) || !strings.Contains(out, tt.kind) {
				t.Errorf("render output missing content:\n%s", out)
			}
		})
	}
}

func TestInspectFileErrors(t *testing.T) {
	dir := t.TempDir()
	bad := writeFile(t, dir, "bad.ply", []byte("not a ply\n"))
	for _, path := range []string{
		bad,
		writeFile(t, dir, "notes.txt", []byte("hello")),
		dir + "/missing.bmp",
	} {
		if _, err := inspectFile(path, true); err == nil {
			t.Errorf("inspectFile(%s) succeeded", path)
		}
	}
}

func TestInspectCommandReportsFailures(t *testing.T) {
	dir := t.TempDir()
	ply := writeFile(t, dir, "quad.ply", []byte(quadPLY))

	var out bytes.Buffer
	cmd := newInspectCmd()
	cmd.SetOut(&out)
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs([]string{ply, dir + "/missing.ply"})
	err := cmd.ExecuteContext(context.Background())
	if err == nil || !strings.Contains(err.Error(), "1 of 2") {
		t.Errorf("err = %v, want 1 of 2 failures", err)
	}
	if !strings.Contains(out.String(), "triangles") {
		t.Errorf("output lacks the readable file:\n%s", out.String())
	}
}
