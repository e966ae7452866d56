package cli

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/assetvariant/internal/config"
)

// starterSchema is written to schemas/types.cue by init.
const starterSchema = `package project

// Each entry declares an asset type. Field values are kind names; nested
// structs are records and one-element lists are arrays.
types: Enemy: {
	speed: "float"
	label: "string"
	stats: {hp: "int", armor: "int"}
	drop:  "object"
	waypoints: ["vector3"]
}
`

// InitResult describes a freshly initialized project.
type InitResult struct {
	Config  string `json:"config"`
	Assets  string `json:"assets"`
	Schemas string `json:"schemas"`
}

func (r InitResult) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "Initialized project in %s\n", filepath.Dir(r.Config))
	fmt.Fprintf(&b, "  config:  %s\n", r.Config)
	fmt.Fprintf(&b, "  assets:  %s\n", r.Assets)
	fmt.Fprintf(&b, "  schemas: %s\n", r.Schemas)
	return b.String()
}

// NewInitCommand creates the init command.
func NewInitCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "init [dir]",
		Short: "Create a project configuration",
		Long: `Write ` + configFileName + ` with default settings and create the assets
and schemas directories. A starter type schema is added when the schemas
directory has no CUE files.

Examples:
  assetvariant init
  assetvariant init ./game`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			dir := opts.Dir
			if len(args) == 1 {
				dir = args[0]
			}
			return runInit(cmd, opts, dir)
		},
	}
}

func runInit(cmd *cobra.Command, opts *RootOptions, dir string) error {
	f := newFormatter(cmd, opts)

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return WrapExitError(ExitCommandError, "failed to create project directory", err)
	}
	path, err := config.Write(dir)
	if errors.Is(err, os.ErrExist) {
		return NewExitError(ExitCommandError, fmt.Sprintf("%s already exists in %s", configFileName, dir)).WithCode(ErrCodeConfig)
	}
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to write configuration", err).WithCode(ErrCodeWriteFailed)
	}
	cfg, err := config.Load(path)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to load configuration", err)
	}

	for _, d := range []string{cfg.Project.Assets, cfg.Project.Schemas} {
		if err := os.MkdirAll(d, 0o755); err != nil {
			return WrapExitError(ExitCommandError, "failed to create directory", err)
		}
	}
	existing, err := filepath.Glob(filepath.Join(cfg.Project.Schemas, "*.cue"))
	if err != nil {
		return err
	}
	if len(existing) == 0 {
		starter := filepath.Join(cfg.Project.Schemas, "types.cue")
		if err := os.WriteFile(starter, []byte(starterSchema), 0o644); err != nil {
			return WrapExitError(ExitCommandError, "failed to write starter schema", err).WithCode(ErrCodeWriteFailed)
		}
		f.VerboseLog("wrote %s", starter)
	}

	return f.Success(InitResult{Config: path, Assets: cfg.Project.Assets, Schemas: cfg.Project.Schemas})
}
