package main

import (
	"github.com/spf13/pflag"

	"github.com/taigrr/plyview/pkg/config"
)

// sceneOptions are the flags shared by every command that loads a scene.
type sceneOptions struct {
	configPath string
	flags      config.Flags
}

func (o *sceneOptions) register(fs *pflag.FlagSet) {
	fs.StringVarP(&o.configPath, "config", "c", "", "scene config file (JSON)")
	fs.StringVar(&o.flags.Title, "title", "", `window title (default "My Room")`)
	fs.IntVar(&o.flags.Width, "width", 0, "surface width in pixels (default 800)")
	fs.IntVar(&o.flags.Height, "height", 0, "surface height in pixels (default 600)")
	fs.IntVar(&o.flags.FPS, "fps", 0, "target frames per second (default 60)")
	fs.StringVar(&o.flags.Background, "bg", "", "background color as R,G,B")
	fs.Float64Var(&o.flags.Speed, "speed", 0, "camera step per frame (default 0.05)")
	fs.BoolVar(&o.flags.Strict, "strict", false, "reject malformed PLY and BMP files instead of reading what parses")
}

// load builds the scene config: defaults, then the config file, then flags.
// Positional arguments replace the mesh list.
func (o *sceneOptions) load(args []string) (config.Config, error) {
	cfg := config.Default()
	if o.configPath != "" {
		var err error
		if cfg, err = config.Load(o.configPath); err != nil {
			return config.Config{}, err
		}
	}

	flags := o.flags
	flags.Meshes = nil
	for _, a := range args {
		flags.Meshes = append(flags.Meshes, config.ParseMeshArg(a))
	}
	if err := cfg.Resolve(flags); err != nil {
		return config.Config{}, err
	}
	return cfg, nil
}
