package config

import "flag"

// Flags are the command-line overrides shared by the CLIs.
type Flags struct {
	fs *flag.FlagSet

	ConfigPath  string
	LogLevel    string
	LogFile     string
	Workers     int
	FlipWinding bool
	Strict      bool
	Backend     string
	WatchDir    string
	Width       int
	Height      int
}

// RegisterFlags defines the shared flags on fs.
//
// Parameters:
//   - fs: the flag set, usually flag.CommandLine
//
// Returns:
//   - *Flags: the flag values, filled in when fs is parsed
func RegisterFlags(fs *flag.FlagSet) *Flags {
	f := &Flags{fs: fs}
	fs.StringVar(&f.ConfigPath, "config", "", "path to a YAML or TOML config file")
	fs.StringVar(&f.LogLevel, "log-level", "", "log level (debug, info, warn, error)")
	fs.StringVar(&f.LogFile, "log-file", "", "rotating JSON log file")
	fs.IntVar(&f.Workers, "workers", 0, "concurrent imports (0 = NumCPU-1)")
	fs.BoolVar(&f.FlipWinding, "flip-winding", true, "reverse triangle winding")
	fs.BoolVar(&f.Strict, "strict", false, "reject GLB files with a wrong total length")
	fs.StringVar(&f.Backend, "backend", "", "import backend (memory, gl, none)")
	fs.StringVar(&f.WatchDir, "watch", "", "directory to import dropped .glb files from")
	fs.IntVar(&f.Width, "width", 0, "window width")
	fs.IntVar(&f.Height, "height", 0, "window height")
	return f
}

// Load reads the file named by -config and applies the flags over it.
//
// Returns:
//   - *Config: the configuration with defaults < file < flags priority
//   - error: a config load error
func (f *Flags) Load() (*Config, error) {
	cfg, err := Load(f.ConfigPath)
	if err != nil {
		return nil, err
	}
	f.Apply(cfg)
	return cfg, nil
}

// Apply overrides cfg with every flag that was set explicitly on the command line.
//
// Parameters:
//   - cfg: the configuration to modify
func (f *Flags) Apply(cfg *Config) {
	f.fs.Visit(func(fl *flag.Flag) {
		switch fl.Name {
		case "log-level":
			cfg.Log.Level = f.LogLevel
		case "log-file":
			cfg.Log.File.Path = f.LogFile
		case "workers":
			cfg.Import.Workers = f.Workers
		case "flip-winding":
			cfg.Import.FlipWinding = f.FlipWinding
		case "strict":
			cfg.Import.StrictLength = f.Strict
		case "backend":
			cfg.Import.Backend = f.Backend
		case "watch":
			cfg.Watch.Dir = f.WatchDir
		case "width":
			cfg.Viewer.Width = f.Width
		case "height":
			cfg.Viewer.Height = f.Height
		}
	})
}
